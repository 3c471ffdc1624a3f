package analysis

import "github.com/tphakala/birdnet-eval/internal/logger"

// GetLogger returns the analysis package logger
func GetLogger() logger.Logger {
	return logger.Global().Module("analysis")
}
