// Package config provides fail-open environment loaders and validators shared by
// the fetcher and worker configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadResult is the outcome of loading one configuration value.
// When FallbackApplied is true, Value holds the default and Warning explains why.
type LoadResult[T any] struct {
	Value           T
	Warning         string
	FallbackApplied bool
}

// LoadEnvString returns the environment value or defaultValue when unset or empty.
func LoadEnvString(envKey, defaultValue string) string {
	value := os.Getenv(envKey)
	if value == "" {
		return defaultValue
	}
	return value
}

// LoadEnvWithFallback loads a string and validates it.
// A validation failure never becomes an error: the default is used and a
// warning is returned instead.
//
// Warning format:
//
//	"Invalid {envKey}='{value}': {error}, falling back to default '{default}'"
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) LoadResult[string] {
	return loadEnv(envKey, defaultValue, func(s string) (string, error) { return s, nil }, validator)
}

// LoadEnvDuration loads a time.Duration ("30s", "1m30s") with optional validation.
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) LoadResult[time.Duration] {
	return loadEnv(envKey, defaultValue, time.ParseDuration, validator)
}

// LoadEnvInt loads a base-10 integer with optional validation.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) LoadResult[int] {
	return loadEnv(envKey, defaultValue, func(s string) (int, error) {
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, fmt.Errorf("invalid integer format")
		}
		return v, nil
	}, validator)
}

// LoadEnvInt64 loads a 64-bit integer with optional validation.
func LoadEnvInt64(envKey string, defaultValue int64, validator func(int64) error) LoadResult[int64] {
	return loadEnv(envKey, defaultValue, func(s string) (int64, error) {
		v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid integer format")
		}
		return v, nil
	}, validator)
}

// LoadEnvFloat loads a float64 with optional validation.
func LoadEnvFloat(envKey string, defaultValue float64, validator func(float64) error) LoadResult[float64] {
	return loadEnv(envKey, defaultValue, func(s string) (float64, error) {
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	}, validator)
}

// LoadEnvBool loads a boolean accepting the strconv.ParseBool spellings.
func LoadEnvBool(envKey string, defaultValue bool) LoadResult[bool] {
	return loadEnv(envKey, defaultValue, strconv.ParseBool, nil)
}

func loadEnv[T any](envKey string, defaultValue T, parse func(string) (T, error), validator func(T) error) LoadResult[T] {
	raw := os.Getenv(envKey)
	if raw == "" {
		return LoadResult[T]{Value: defaultValue}
	}

	parsed, err := parse(raw)
	if err == nil && validator != nil {
		err = validator(parsed)
	}
	if err != nil {
		return LoadResult[T]{
			Value: defaultValue,
			Warning: fmt.Sprintf("Invalid %s='%s': %v, falling back to default '%v'",
				envKey, raw, err, defaultValue),
			FallbackApplied: true,
		}
	}

	return LoadResult[T]{Value: parsed}
}
