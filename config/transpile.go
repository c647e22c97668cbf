package config

const (
	defaultOptimizationLevel      = 1
	defaultRoutingMethod          = "basic"
	defaultTranslationMethod      = "translator"
	defaultUnitarySynthesisMethod = "default"
	defaultWorkers                = 4
)

// TranspileConfig selects how circuits are compiled. Method names are
// validated when the pipelines are assembled, not when the file is read.
type TranspileConfig struct {
	// Optimization level, 0 to 3. Levels 1 to 3 allow a layout search with a
	// level dependent call budget.
	OptimizationLevel *int `yaml:"optimizationLevel" toml:"optimizationLevel"`
	// Options: "", "trivial", "vf2".
	LayoutMethod  string `yaml:"layoutMethod" toml:"layoutMethod"`
	InitialLayout []int  `yaml:"initialLayout" toml:"initialLayout"`
	// Options: "basic".
	RoutingMethod string `yaml:"routingMethod" toml:"routingMethod"`
	// Options: "legacy-unroll", "translator", "synthesis".
	TranslationMethod string `yaml:"translationMethod" toml:"translationMethod"`
	// Options: "", "alap", "asap" and the long forms.
	SchedulingMethod string `yaml:"schedulingMethod" toml:"schedulingMethod"`
	// Between 0 and 1, unset for exact synthesis.
	ApproximationDegree          *float64       `yaml:"approximationDegree" toml:"approximationDegree"`
	UnitarySynthesisMethod       string         `yaml:"unitarySynthesisMethod" toml:"unitarySynthesisMethod"`
	UnitarySynthesisPluginConfig map[string]any `yaml:"unitarySynthesisPluginConfig" toml:"unitarySynthesisPluginConfig"`
	SeedTranspiler               *int64         `yaml:"seedTranspiler" toml:"seedTranspiler"`
	// Overrides the target's native set.
	BasisGates               []string `yaml:"basisGates" toml:"basisGates"`
	RemoveResetInZero        bool     `yaml:"removeResetInZero" toml:"removeResetInZero"`
	BarrierBeforeMeasurement *bool    `yaml:"barrierBeforeMeasurement" toml:"barrierBeforeMeasurement"`
	// Defaults to true at level 1, where a perfect trivial layout is kept.
	CheckTrivial *bool `yaml:"checkTrivial" toml:"checkTrivial"`
	// Number of circuits compiled concurrently in a batch.
	Workers int        `yaml:"workers" toml:"workers"`
	LogFile string     `yaml:"logFile" toml:"logFile"`
	Logger  *LogConfig `yaml:"logger" toml:"logger"`
}

// WithDefaults returns a copy of the TranspileConfig with any missing fields
// set to their default values.
func (c TranspileConfig) WithDefaults() TranspileConfig {
	cpy := c
	if cpy.OptimizationLevel == nil {
		level := defaultOptimizationLevel
		cpy.OptimizationLevel = &level
	}
	if cpy.RoutingMethod == "" {
		cpy.RoutingMethod = defaultRoutingMethod
	}
	if cpy.TranslationMethod == "" {
		cpy.TranslationMethod = defaultTranslationMethod
	}
	if cpy.UnitarySynthesisMethod == "" {
		cpy.UnitarySynthesisMethod = defaultUnitarySynthesisMethod
	}
	if cpy.BarrierBeforeMeasurement == nil {
		barrier := true
		cpy.BarrierBeforeMeasurement = &barrier
	}
	if cpy.CheckTrivial == nil {
		check := *cpy.OptimizationLevel == 1
		cpy.CheckTrivial = &check
	}
	if cpy.Workers <= 0 {
		cpy.Workers = defaultWorkers
	}
	if cpy.Logger != nil {
		logger := cpy.Logger.WithDefaults()
		cpy.Logger = &logger
	}
	return cpy
}

// Level returns the optimization level, or the default when unset.
func (c TranspileConfig) Level() int {
	if c.OptimizationLevel == nil {
		return defaultOptimizationLevel
	}
	return *c.OptimizationLevel
}
