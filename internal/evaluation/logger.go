package evaluation

import (
	"github.com/tphakala/birdnet-eval/internal/logger"
)

// GetLogger returns the evaluation package logger
func GetLogger() logger.Logger {
	return logger.Global().Module("evaluation")
}
