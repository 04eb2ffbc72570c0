package tagtrain

import "errors"

// Common errors used throughout the tagtrain package
var (
	// ErrConfigValidation is returned when configuration validation fails.
	// Configuration errors
	ErrConfigValidation = errors.New("configuration validation failed")
	// ErrConfigFileNotFound indicates a required configuration file could not be located.
	ErrConfigFileNotFound = errors.New("configuration file not found")
	// ErrDataPathsRequired indicates the config file supplies no corpus paths
	// although dataset-build parameters were requested from it.
	ErrDataPathsRequired = errors.New("config file does not define data.train and data.dev")

	// ErrEmptyFields indicates an annotation field list with no entries.
	// Field list errors
	ErrEmptyFields = errors.New("empty annotation field list")
	// ErrUnknownField indicates an annotation field that is not a CoNLL-U column.
	ErrUnknownField = errors.New("unknown annotation field")
)
