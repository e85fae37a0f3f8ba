// Package config provides fail-open environment loading and validation helpers
// shared by the scraper and worker configuration.
//
// Every loader falls back to the supplied default when the variable is unset,
// unparseable or rejected by its validator. Fallbacks never fail the process;
// they are reported as warnings so the caller can log them and update metrics.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ConfigLoadResult represents the result of loading a configuration value.
//
// Fields:
//   - Value: The loaded configuration value (the default if a fallback was applied)
//   - Warnings: One message per fallback applied
//   - FallbackApplied: True if the default value was used due to a parse or validation failure
//
// Example:
//
//	result := LoadEnvDuration("PAGE_DELAY", 10*time.Second, ValidatePositiveDuration)
//	for _, warning := range result.Warnings {
//	    logger.Warn("Configuration fallback applied", slog.String("warning", warning))
//	}
//	delay := result.Value.(time.Duration)
type ConfigLoadResult struct {
	Value           interface{}
	Warnings        []string
	FallbackApplied bool
}

func loaded(v interface{}) ConfigLoadResult {
	return ConfigLoadResult{Value: v}
}

func fallback(envKey, raw string, reason interface{}, defaultValue interface{}) ConfigLoadResult {
	return ConfigLoadResult{
		Value: defaultValue,
		Warnings: []string{fmt.Sprintf(
			"Invalid %s='%s': %v, falling back to default '%v'",
			envKey, raw, reason, defaultValue,
		)},
		FallbackApplied: true,
	}
}

// LoadEnvString loads a string value from an environment variable.
// If the environment variable is not set or empty, the default value is returned.
// No validation is performed; use LoadEnvWithFallback if validation is needed.
func LoadEnvString(envKey, defaultValue string) string {
	value := os.Getenv(envKey)
	if value == "" {
		return defaultValue
	}
	return value
}

// LoadEnvWithFallback loads a string value and validates it.
// An unset variable yields the default without a warning; a value rejected by
// validator yields the default with a warning. validator may be nil.
//
// Example:
//
//	result := LoadEnvWithFallback("CRON_SCHEDULE", "0 6 * * *", ValidateCronSchedule)
//	schedule := result.Value.(string)
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) ConfigLoadResult {
	value := os.Getenv(envKey)
	if value == "" {
		return loaded(defaultValue)
	}

	if validator != nil {
		if err := validator(value); err != nil {
			return fallback(envKey, value, err, defaultValue)
		}
	}

	return loaded(value)
}

// LoadEnvDuration loads a time.ParseDuration value ("30s", "5m", "1h30m") and validates it.
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return loaded(defaultValue)
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fallback(envKey, raw, err, defaultValue)
	}

	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallback(envKey, raw, err, defaultValue)
		}
	}

	return loaded(parsed)
}

// LoadEnvInt loads a base-10 integer and validates it.
// Values with spaces, decimals or other characters fall back to the default.
//
// Example:
//
//	result := LoadEnvInt("MAX_ATTEMPTS", 3, func(v int) error { return ValidateIntRange(v, 1, 10) })
//	attempts := result.Value.(int)
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return loaded(defaultValue)
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback(envKey, raw, "invalid integer format", defaultValue)
	}

	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallback(envKey, raw, err, defaultValue)
		}
	}

	return loaded(parsed)
}

// LoadEnvFloat loads a float64 and validates it.
func LoadEnvFloat(envKey string, defaultValue float64, validator func(float64) error) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return loaded(defaultValue)
	}

	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback(envKey, raw, "invalid number format", defaultValue)
	}

	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallback(envKey, raw, err, defaultValue)
		}
	}

	return loaded(parsed)
}

// LoadEnvBool loads a boolean.
//   - True: "1", "t", "T", "true", "TRUE", "True"
//   - False: "0", "f", "F", "false", "FALSE", "False"
//
// Other values fall back to the default with a warning.
func LoadEnvBool(envKey string, defaultValue bool) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return loaded(defaultValue)
	}

	switch raw {
	case "1", "t", "T", "true", "TRUE", "True":
		return loaded(true)
	case "0", "f", "F", "false", "FALSE", "False":
		return loaded(false)
	default:
		return fallback(envKey, raw, "invalid boolean format, expected 'true' or 'false'", defaultValue)
	}
}
