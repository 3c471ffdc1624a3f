package datastore

import (
	"time"

	gorm_logger "gorm.io/gorm/logger"

	"github.com/tphakala/birdnet-eval/internal/logger"
)

// slowQueryThreshold marks queries worth a warning.
const slowQueryThreshold = 200 * time.Millisecond

// GetLogger returns the datastore package logger
func GetLogger() logger.Logger {
	return logger.Global().Module("datastore")
}

func createGormLogger() gorm_logger.Interface {
	return logger.NewGormLoggerAdapter(GetLogger(), slowQueryThreshold)
}
