package config

import (
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
	"gopkg.in/yaml.v2"
)

// Fingerprint identifies a target and transpile configuration pair. Equal
// configurations have equal fingerprints; the transpile configuration is
// taken with defaults applied so that an omitted field and its default agree.
func Fingerprint(tc *TargetConfig, cfg TranspileConfig) (string, error) {
	withDefaults := cfg.WithDefaults()
	// Logging does not change the compiled output.
	withDefaults.LogFile = ""
	withDefaults.Logger = nil
	withDefaults.Workers = 0

	data, err := yaml.Marshal(struct {
		Target    *TargetConfig   `yaml:"target"`
		Transpile TranspileConfig `yaml:"transpile"`
	}{tc, withDefaults})
	if err != nil {
		return "", errors.Wrap(err, "fingerprint")
	}

	digest := sha3.Sum256(data)
	return base58.Encode(digest[:]), nil
}
