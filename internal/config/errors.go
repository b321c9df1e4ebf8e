package config

import "errors"

// Sentinel error kinds for configuration. Load wraps source and decoding
// failures in ErrLoadConfig and range violations in ErrInvalidConfig.
var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrLoadConfig    = errors.New("cannot load configuration")
)
