package presets

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidConfig is the sentinel every configuration error unwraps to.
var ErrInvalidConfig = errors.New("invalid transpile configuration")

// ConfigError reports a configuration value rejected while assembling a
// pipeline. It is always raised before any circuit is touched.
type ConfigError struct {
	Field   string
	Value   string
	Allowed []string
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config error [%s]: invalid value %q", e.Field, e.Value)
	if len(e.Allowed) > 0 {
		msg += fmt.Sprintf(", expected one of %s", strings.Join(e.Allowed, ", "))
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}
