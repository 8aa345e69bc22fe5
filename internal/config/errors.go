package config

import "errors"

// ErrConfigLoad is returned when a registry or rules file cannot be read.
// It is fatal for a run.
var ErrConfigLoad = errors.New("config load failed")
