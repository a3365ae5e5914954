package config

import "errors"

// Configuration errors returned by Load and Config.Validate.
var (
	// ErrConfigNotFound is returned when an explicitly named file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	ErrInvalidAddr     = errors.New("invalid server address: must not be empty")
	ErrInvalidDBDriver = errors.New("invalid db driver: must be postgres or sqlite")
	ErrInvalidWorkers  = errors.New("invalid pool workers: must be non-negative")
	ErrInvalidDuration = errors.New("invalid duration: must be positive")
	ErrInvalidEngine   = errors.New("invalid search engine: name and url are required")
	ErrInvalidEnv      = errors.New("invalid environment variable")
)
