package presets

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"source.quilibrium.com/quilibrium/monorepo/transpiler/passes"
	"source.quilibrium.com/quilibrium/monorepo/transpiler/target"
)

func TestParseTranslationMethod(t *testing.T) {
	for name, want := range map[string]TranslationMethod{
		"legacy-unroll": TranslationLegacyUnroll,
		"unroller":      TranslationLegacyUnroll,
		"translator":    TranslationTranslator,
		"synthesis":     TranslationSynthesis,
	} {
		got, err := ParseTranslationMethod(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	assert.Equal(t, "legacy-unroll", TranslationLegacyUnroll.String())

	for _, bad := range []string{"", "bogus", "Translator"} {
		_, err := ParseTranslationMethod(bad)
		assert.True(t, errors.Is(err, ErrInvalidConfig), bad)
	}
}

func TestParseSchedulingMethod(t *testing.T) {
	for name, want := range map[string]SchedulingMethod{
		"":                    SchedulingNone,
		"alap":                SchedulingALAP,
		"as-late-as-possible": SchedulingALAP,
		"as_late_as_possible": SchedulingALAP,
		"asap":                SchedulingASAP,
		"as-soon-as-possible": SchedulingASAP,
		"as_soon_as_possible": SchedulingASAP,
	} {
		got, err := ParseSchedulingMethod(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseSchedulingMethod("sooner")
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "scheduling_method", cfgErr.Field)
	assert.Equal(t, "sooner", cfgErr.Value)
	assert.Contains(t, err.Error(), "expected one of alap")
}

func TestParseLayoutMethod(t *testing.T) {
	m, err := ParseLayoutMethod("")
	require.NoError(t, err)
	assert.Equal(t, LayoutDefault, m)
	m, err = ParseLayoutMethod("vf2")
	require.NoError(t, err)
	assert.Equal(t, LayoutVF2, m)
	_, err = ParseLayoutMethod("dense")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRoutingPass(t *testing.T) {
	line := target.LineCouplingMap(3)
	pass, err := RoutingPass("", line)
	require.NoError(t, err)
	assert.Equal(t, passes.BasicSwap{Coupling: line}, pass)

	_, err = RoutingPass("sabre", line)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
