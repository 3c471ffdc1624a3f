// Package datastore persists evaluation and novel detection runs.
package datastore

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/tphakala/birdnet-eval/internal/conf"
	"github.com/tphakala/birdnet-eval/internal/errors"
	"github.com/tphakala/birdnet-eval/internal/logger"
)

// DefaultListLimit caps ListRuns when no limit is given.
const DefaultListLimit = 20

// Interface abstracts the run history backend.
type Interface interface {
	Open() error
	Close() error
	SaveRun(run *EvaluationRun) error
	ListRuns(limit int) ([]EvaluationRun, error)
	GetRun(id string) (*EvaluationRun, error)
	DeleteRun(id string) error
}

// DataStore implements Interface on top of an open GORM connection.
type DataStore struct {
	DB *gorm.DB
}

// New returns the store selected in settings, or nil when no database
// output is enabled.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{Settings: settings}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{Settings: settings}
	default:
		return nil
	}
}

// SaveRun stores a run together with its curve and novel detections.
func (ds *DataStore) SaveRun(run *EvaluationRun) error {
	if err := ds.ready(); err != nil {
		return err
	}
	if run.ID == "" {
		return errors.Newf("run has no id").
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}

	err := ds.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(run).Error
	})
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "save_run").
			Context("run_id", run.ID).
			Build()
	}

	GetLogger().Debug("run saved",
		logger.String("run_id", run.ID),
		logger.String("kind", run.Kind),
		logger.Int("metrics", len(run.Metrics)),
		logger.Int("novel", len(run.Novel)))
	return nil
}

// ListRuns returns the most recent runs without their child rows.
func (ds *DataStore) ListRuns(limit int) ([]EvaluationRun, error) {
	if err := ds.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var runs []EvaluationRun
	if err := ds.DB.Order("created_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "list_runs").
			Build()
	}
	return runs, nil
}

// GetRun loads one run with its curve ordered by threshold.
func (ds *DataStore) GetRun(id string) (*EvaluationRun, error) {
	if err := ds.ready(); err != nil {
		return nil, err
	}

	var run EvaluationRun
	err := ds.DB.
		Preload("Metrics", func(db *gorm.DB) *gorm.DB { return db.Order("threshold ASC") }).
		Preload("Novel").
		Where("id = ?", id).
		First(&run).Error
	if err != nil {
		category := errors.CategoryDatabase
		if errors.Is(err, gorm.ErrRecordNotFound) {
			category = errors.CategoryNotFound
		}
		return nil, errors.New(err).
			Component("datastore").
			Category(category).
			Context("operation", "get_run").
			Context("run_id", id).
			Build()
	}
	return &run, nil
}

// DeleteRun removes a run and its child rows.
func (ds *DataStore) DeleteRun(id string) error {
	if err := ds.ready(); err != nil {
		return err
	}

	err := ds.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", id).Delete(&RunMetric{}).Error; err != nil {
			return err
		}
		if err := tx.Where("run_id = ?", id).Delete(&NovelDetection{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&EvaluationRun{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		category := errors.CategoryDatabase
		if errors.Is(err, gorm.ErrRecordNotFound) {
			category = errors.CategoryNotFound
		}
		return errors.New(err).
			Component("datastore").
			Category(category).
			Context("operation", "delete_run").
			Context("run_id", id).
			Build()
	}
	return nil
}

func (ds *DataStore) ready() error {
	if ds.DB == nil {
		return errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return nil
}

// closeDB closes the pool behind a GORM connection.
func closeDB(db *gorm.DB, dbType string) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("db_type", dbType).
			Build()
	}
	if err := sqlDB.Close(); err != nil {
		return errors.New(fmt.Errorf("failed to close %s database: %w", dbType, err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("db_type", dbType).
			Build()
	}
	return nil
}

func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(&EvaluationRun{}, &RunMetric{}, &NovelDetection{}); err != nil {
		return errors.New(fmt.Errorf("failed to auto-migrate %s database: %w", dbType, err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("db_type", dbType).
			Build()
	}

	if debug {
		GetLogger().Debug("database connection initialized",
			logger.String("db_type", dbType),
			logger.String("connection", connectionInfo))
	}
	return nil
}
