// conf/validate.go

package conf

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

var (
	evaluationResolutions = []string{"task", "minute", "recording"}
	novelResolutions      = []string{"task", "recording", "location", "project"}
	tieBreakPolicies      = []string{"first", "random"}
)

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateEvaluationSettings(&settings.Evaluation); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateNovelSettings(&settings.Novel); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateOutputSettings(&settings.Output); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateSentrySettings(&settings.Sentry); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return ve
	}

	return nil
}

func validateEvaluationSettings(settings *EvaluationSettings) error {
	var errs []string

	if !slices.Contains(evaluationResolutions, strings.ToLower(settings.Resolution)) {
		errs = append(errs, fmt.Sprintf("evaluation resolution must be one of %v, got %q", evaluationResolutions, settings.Resolution))
	}

	lo, hi := settings.Thresholds.Lo, settings.Thresholds.Hi
	if lo < 0 || hi > 100 || lo > hi {
		errs = append(errs, fmt.Sprintf("evaluation thresholds must satisfy 0 <= lo <= hi <= 100, got lo=%d hi=%d", lo, hi))
	}

	if settings.Workers < 0 {
		errs = append(errs, "evaluation workers must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("evaluation settings errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateNovelSettings(settings *NovelSettings) error {
	var errs []string

	if !slices.Contains(novelResolutions, strings.ToLower(settings.Resolution)) {
		errs = append(errs, fmt.Sprintf("novel resolution must be one of %v, got %q", novelResolutions, settings.Resolution))
	}

	if settings.Threshold < 0 || settings.Threshold > 100 {
		errs = append(errs, fmt.Sprintf("novel threshold must be between 0 and 100, got %v", settings.Threshold))
	}

	if policy := strings.ToLower(settings.TieBreak.Policy); policy != "" && !slices.Contains(tieBreakPolicies, policy) {
		errs = append(errs, fmt.Sprintf("tie-break policy must be one of %v, got %q", tieBreakPolicies, settings.TieBreak.Policy))
	}

	if settings.Export.Enabled && settings.Export.Path == "" {
		errs = append(errs, "novel export is enabled but no export path is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("novel settings errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateOutputSettings(settings *OutputSettings) error {
	var errs []string

	if settings.SQLite.Enabled && settings.MySQL.Enabled {
		errs = append(errs, "only one of sqlite and mysql output can be enabled")
	}
	if settings.SQLite.Enabled && settings.SQLite.Path == "" {
		errs = append(errs, "sqlite output requires a path")
	}
	if settings.MySQL.Enabled && (settings.MySQL.Host == "" || settings.MySQL.Database == "") {
		errs = append(errs, "mysql output requires host and database")
	}
	if settings.Metrics.Enabled && settings.Metrics.Textfile == "" {
		errs = append(errs, "metrics output requires a textfile path")
	}
	if settings.Plot.Enabled {
		if settings.Plot.Path == "" {
			errs = append(errs, "plot output requires a path")
		}
		if settings.Plot.Width <= 0 || settings.Plot.Height <= 0 {
			errs = append(errs, "plot width and height must be positive")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("output settings errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateSentrySettings(settings *SentrySettings) error {
	if settings.Enabled && settings.DSN == "" {
		return fmt.Errorf("sentry is enabled but no DSN is set")
	}
	return nil
}
