package tagtrain

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Config represents the tagtrain configuration. The same YAML file is
// consumed by the external training tools, so only the sections tagtrain
// understands are modeled here; everything else is carried opaquely.
type Config struct {
	Data     DataConfig     `yaml:"data"`
	SaveData string         `yaml:"save_data"`
	Fields   []string       `yaml:"fields"`
	Vocab    VocabConfig    `yaml:"vocab"`
	Tools    ToolsConfig    `yaml:"tools"`
	Training map[string]any `yaml:"training,omitempty"`
}

// DataConfig holds the treebank corpus locations
type DataConfig struct {
	Train string `yaml:"train"`
	Dev   string `yaml:"dev"`
}

// VocabConfig represents vocabulary build settings
type VocabConfig struct {
	// Number of transformed samples to dump per corpus. -1 means unlimited.
	NSample int `yaml:"n_sample"`
}

// ToolsConfig locates the external executables the pipeline dispatches to
type ToolsConfig struct {
	DatasetBuilder string `yaml:"dataset_builder"`
	VocabBuilder   string `yaml:"vocab_builder"`
	Trainer        string `yaml:"trainer"`

	// Scorer is the helper script the trainer calls during validation.
	// It is made executable and exposed on the child PATH before dispatch.
	Scorer string `yaml:"scorer"`
}

// Default locations of the external tools
const (
	DefaultDatasetBuilder = "tagtrain-dataset"
	DefaultVocabBuilder   = "onmt-build-vocab"
	DefaultTrainer        = "onmt-train"
	DefaultScorer         = "scripts/score.sh"
)

// LoadConfig loads configuration from the specified file
func LoadConfig(configPath string) (*Config, error) {
	// Load .env files first
	err := loadEnvFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to load environment files: %w", err)
	}

	// A missing file or a directory path means "no config file": the
	// external tools may not need one either, so fall back to defaults.
	info, err := os.Stat(configPath)
	if os.IsNotExist(err) || (err == nil && info.IsDir()) {
		config := getDefaultConfig()
		expandConfigEnvVars(config)

		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// The file carries keys owned by the external tools (seed, train_steps,
	// optimizer settings), so unknown fields are tolerated.
	var config Config

	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	// Apply defaults for missing values
	applyDefaults(&config)

	// Expand environment variables
	expandConfigEnvVars(&config)

	return &config, nil
}

// validateConfig validates the configuration for common errors and inconsistencies
func validateConfig(config *Config) error {
	if len(config.Fields) > 0 {
		if err := ValidateFields(config.Fields); err != nil {
			return fmt.Errorf("%w: %w", ErrConfigValidation, err)
		}
	}

	if config.Vocab.NSample < -1 {
		return fmt.Errorf("%w: vocab.n_sample must be -1 (unlimited) or a non-negative count, got %d", ErrConfigValidation, config.Vocab.NSample)
	}

	return nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	return &Config{
		SaveData: "./run",
		Fields:   []string{},
		Vocab: VocabConfig{
			NSample: -1,
		},
		Tools: ToolsConfig{
			DatasetBuilder: DefaultDatasetBuilder,
			VocabBuilder:   DefaultVocabBuilder,
			Trainer:        DefaultTrainer,
			Scorer:         DefaultScorer,
		},
	}
}

// applyDefaults applies default values to missing configuration fields
func applyDefaults(config *Config) {
	if config.SaveData == "" {
		config.SaveData = "./run"
	}

	if config.Fields == nil {
		config.Fields = []string{}
	}

	// 0 cannot be distinguished from unset in YAML; an explicit sample
	// count of zero makes no sense for a vocabulary build, so treat it
	// as unlimited.
	if config.Vocab.NSample == 0 {
		config.Vocab.NSample = -1
	}

	if config.Tools.DatasetBuilder == "" {
		config.Tools.DatasetBuilder = DefaultDatasetBuilder
	}

	if config.Tools.VocabBuilder == "" {
		config.Tools.VocabBuilder = DefaultVocabBuilder
	}

	if config.Tools.Trainer == "" {
		config.Tools.Trainer = DefaultTrainer
	}

	if config.Tools.Scorer == "" {
		config.Tools.Scorer = DefaultScorer
	}
}

// expandConfigEnvVars expands environment variables in config paths
func expandConfigEnvVars(config *Config) {
	config.Data.Train = expandEnvVars(config.Data.Train)
	config.Data.Dev = expandEnvVars(config.Data.Dev)
	config.SaveData = expandEnvVars(config.SaveData)

	config.Tools.DatasetBuilder = expandEnvVars(config.Tools.DatasetBuilder)
	config.Tools.VocabBuilder = expandEnvVars(config.Tools.VocabBuilder)
	config.Tools.Trainer = expandEnvVars(config.Tools.Trainer)
	config.Tools.Scorer = expandEnvVars(config.Tools.Scorer)
}
