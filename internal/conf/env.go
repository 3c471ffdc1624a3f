// env.go - environment variable configuration and validation for birdnet-eval
package conf

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by birdnet-eval.
const EnvPrefix = "BIRDNET_EVAL"

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns the explicitly validated environment bindings.
// Every other key is still reachable through AutomaticEnv.
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", EnvPrefix + "_DEBUG", validateEnvBool},

		{"input.main", EnvPrefix + "_INPUT_MAIN", validateEnvPath},
		{"input.classifier", EnvPrefix + "_INPUT_CLASSIFIER", validateEnvPath},

		{"evaluation.resolution", EnvPrefix + "_EVALUATION_RESOLUTION", nil},
		{"evaluation.thresholds.lo", EnvPrefix + "_EVALUATION_THRESHOLDS_LO", validateEnvThreshold},
		{"evaluation.thresholds.hi", EnvPrefix + "_EVALUATION_THRESHOLDS_HI", validateEnvThreshold},
		{"evaluation.workers", EnvPrefix + "_EVALUATION_WORKERS", validateEnvWorkers},

		{"novel.threshold", EnvPrefix + "_NOVEL_THRESHOLD", validateEnvThreshold},
		{"novel.export.path", EnvPrefix + "_NOVEL_EXPORT_PATH", validateEnvPath},

		{"output.mysql.password", EnvPrefix + "_OUTPUT_MYSQL_PASSWORD", nil},
		{"sentry.dsn", EnvPrefix + "_SENTRY_DSN", nil},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars() error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

// validateEnvBool validates boolean environment variables
func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("must be true or false")
	}
	return nil
}

// validateEnvThreshold validates a score threshold on the 0-100 scale
func validateEnvThreshold(value string) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if v < 0 || v > 100 {
		return fmt.Errorf("must be between 0 and 100")
	}
	return nil
}

// validateEnvWorkers validates the sweep worker count
func validateEnvWorkers(value string) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("must be an integer")
	}
	if v < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

// validateEnvPath rejects paths containing null bytes
func validateEnvPath(value string) error {
	if strings.ContainsRune(value, 0) {
		return fmt.Errorf("contains null byte")
	}
	return nil
}

// configureEnvironmentVariables enables prefixed automatic env lookup and the
// validated bindings.
func configureEnvironmentVariables() error {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	return bindEnvVars()
}
