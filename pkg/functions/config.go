package functions

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/metahuman-os/workflow-memory/pkg/errors"
)

// Duration wraps time.Duration so config files can use human-readable
// values like "2s" or "720h".
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return errors.Wrap(err, errors.InvalidInput, "invalid duration")
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Config configures the workflow library.
type Config struct {
	// BaseDir is the root of the on-disk function store.
	BaseDir string `yaml:"base_dir" validate:"required"`
	// JournalPath is the sqlite observability journal; empty disables it.
	JournalPath string `yaml:"journal_path"`

	// Learning gate thresholds.
	MinSteps           int     `yaml:"min_steps" validate:"gte=1"`
	MaxSteps           int     `yaml:"max_steps" validate:"gtefield=MinSteps"`
	MinSuccessRate     float64 `yaml:"min_success_rate" validate:"gte=0,lte=1"`
	MinUniqueSkills    int     `yaml:"min_unique_skills" validate:"gte=1"`
	MaxRepetitionRatio float64 `yaml:"max_repetition_ratio" validate:"gt=0,lte=1"`
	MatchThreshold     float64 `yaml:"match_threshold" validate:"gte=0,lte=1"`

	// Retrieval defaults.
	RetrievalTopK     int      `yaml:"retrieval_top_k" validate:"gte=1"`
	RetrievalMinScore float64  `yaml:"retrieval_min_score" validate:"gte=0,lte=1"`
	IncludeDrafts     bool     `yaml:"include_drafts"`
	IndexTimeout      Duration `yaml:"index_timeout"`

	// Maintenance thresholds.
	ConsolidationThreshold float64  `yaml:"consolidation_threshold" validate:"gte=0,lte=1"`
	CleanupMinQuality      float64  `yaml:"cleanup_min_quality" validate:"gte=0,lte=1"`
	CleanupUnusedAge       Duration `yaml:"cleanup_unused_age"`
	CleanupAbandonedAge    Duration `yaml:"cleanup_abandoned_age"`
	MaintenanceInterval    Duration `yaml:"maintenance_interval"`

	// LockTimeout bounds draft-lock acquisition.
	LockTimeout Duration `yaml:"lock_timeout"`
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		BaseDir:                "functions",
		MinSteps:               3,
		MaxSteps:               15,
		MinSuccessRate:         0.8,
		MinUniqueSkills:        2,
		MaxRepetitionRatio:     0.8,
		MatchThreshold:         0.7,
		RetrievalTopK:          3,
		RetrievalMinScore:      0.6,
		IncludeDrafts:          true,
		IndexTimeout:           Duration(2 * time.Second),
		ConsolidationThreshold: 0.85,
		CleanupMinQuality:      0.3,
		CleanupUnusedAge:       Duration(30 * 24 * time.Hour),
		CleanupAbandonedAge:    Duration(60 * 24 * time.Hour),
		LockTimeout:            Duration(5 * time.Second),
	}
}

var configValidator = validator.New()

// Validate checks that the config has valid values.
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return errors.Wrap(err, errors.ValidationFailed, "invalid configuration")
	}
	return nil
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.WithFields(
			errors.Wrap(err, errors.StorageFailed, "failed to read config file"),
			errors.Fields{"path": path},
		)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, errors.InvalidInput, "failed to parse config file")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
