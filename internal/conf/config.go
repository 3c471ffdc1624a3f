// config.go: settings struct for birdnet-eval and the functions to load and save it.
package conf

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/birdnet-eval/internal/errors"
	"github.com/tphakala/birdnet-eval/internal/logger"
)

//go:embed config.yaml
var configFiles embed.FS

// InputSettings locates the two reports every command consumes.
type InputSettings struct {
	Main       string        // path to the main (ground truth) report
	Classifier string        // path to the classifier report
	CacheTTL   time.Duration // how long parsed reports stay cached
}

// ThresholdSettings is an inclusive score threshold range on the 0-100 scale.
type ThresholdSettings struct {
	Lo int
	Hi int
}

// EvaluationSettings configures classifier evaluation.
type EvaluationSettings struct {
	Resolution              string            // task, minute or recording
	Thresholds              ThresholdSettings // sweep range
	RemoveDisallowedSpecies bool              // drop species not allowed in the project
	Species                 []string          // optional species allow-list
	ExcludeCategories       []string          // non-target ground truth categories
	Workers                 int               // sweep concurrency, 0 for GOMAXPROCS
}

// TieBreakSettings selects how tied novel detections are reduced.
type TieBreakSettings struct {
	Policy string // first or random
	Seed   uint64 // seed for the random policy
}

// ExportSettings configures the tag export of novel detections.
type ExportSettings struct {
	Enabled bool
	Path    string
}

// NovelSettings configures novel detection discovery.
type NovelSettings struct {
	Resolution              string  // task, recording, location or project
	Threshold               float64 // minimum classifier score
	RemoveDisallowedSpecies bool
	TieBreak                TieBreakSettings
	Export                  ExportSettings
}

// SQLiteSettings configures the SQLite run store.
type SQLiteSettings struct {
	Enabled bool   // true to enable sqlite output
	Path    string // path to sqlite database
}

// MySQLSettings configures the MySQL run store.
type MySQLSettings struct {
	Enabled  bool   // true to enable mysql output
	Username string // username for mysql database
	Password string // password for mysql database
	Database string // database name for mysql database
	Host     string // host for mysql database
	Port     int    // port for mysql database
}

// MetricsSettings configures the Prometheus textfile written after each run.
type MetricsSettings struct {
	Enabled  bool
	Textfile string
}

// PlotSettings configures the precision/recall curve image.
type PlotSettings struct {
	Enabled bool
	Path    string
	Width   float64 // inches
	Height  float64 // inches
}

// OutputSettings groups everything a run writes besides the console.
type OutputSettings struct {
	SQLite  SQLiteSettings
	MySQL   MySQLSettings
	Metrics MetricsSettings
	Plot    PlotSettings
}

// SentrySettings configures optional error telemetry.
type SentrySettings struct {
	Enabled     bool
	DSN         string
	Environment string
}

// Settings contains all configuration options for birdnet-eval.
type Settings struct {
	Debug bool // true to enable debug mode

	// Runtime values, not stored in config file
	Version   string `yaml:"-"`
	BuildDate string `yaml:"-"`

	Input      InputSettings
	Evaluation EvaluationSettings
	Novel      NovelSettings
	Output     OutputSettings
	Logging    logger.LoggingConfig `mapstructure:"logging"`
	Sentry     SentrySettings
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into Settings.
// An empty configFile searches the default config paths and falls back to the
// embedded defaults when no file exists.
func Load(configFile string) (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := initViper(configFile); err != nil {
		return nil, err
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error unmarshaling config into struct: %w", err)).
			Category(errors.CategoryConfiguration).
			Context("operation", "unmarshal-config").
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper sets defaults, binds the environment and reads the config file.
func initViper(configFile string) error {
	viper.SetConfigType("yaml")
	setDefaultConfig()

	if err := configureEnvironmentVariables(); err != nil {
		GetLogger().Warn("environment configuration issues", logger.Error(err))
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return errors.New(fmt.Errorf("error reading config file: %w", err)).
				Category(errors.CategoryConfiguration).
				Context("operation", "read-config").
				Context("config_file", configFile).
				Build()
		}
		return nil
	}

	viper.SetConfigName("config")
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return err
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	err = viper.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if !errors.As(err, &notFound) {
		return errors.New(fmt.Errorf("fatal error reading config file: %w", err)).
			Category(errors.CategoryConfiguration).
			Context("operation", "read-config").
			Build()
	}

	GetLogger().Debug("no config file found, using embedded defaults",
		logger.Any("search_paths", configPaths))
	return viper.ReadConfig(bytes.NewReader(getDefaultConfig()))
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() []byte {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		// The file is compiled in; failing to read it is a build defect.
		panic(fmt.Sprintf("embedded config.yaml missing: %v", err))
	}
	return data
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// WriteYAML writes settings as YAML to w.
func WriteYAML(w io.Writer, settings *Settings) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(settings); err != nil {
		return errors.New(fmt.Errorf("error marshaling settings to YAML: %w", err)).
			Category(errors.CategoryConfiguration).
			Context("operation", "encode-yaml").
			Build()
	}
	return enc.Close()
}

// SaveYAMLConfig writes settings to configPath. It overwrites the existing
// file, not preserving comments or structure.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	var buf bytes.Buffer
	if err := WriteYAML(&buf, settings); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "create-config-directory").
			Build()
	}

	// Write to a temporary file and move it over configPath.
	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return errors.New(fmt.Errorf("error creating temporary file: %w", err)).
			Category(errors.CategoryFileIO).
			Build()
	}
	tempFileName := tempFile.Name()
	defer func() { _ = os.Remove(tempFileName) }()

	if _, err := tempFile.Write(buf.Bytes()); err != nil {
		_ = tempFile.Close()
		return errors.New(fmt.Errorf("error writing to temporary file: %w", err)).
			Category(errors.CategoryFileIO).
			Build()
	}
	if err := tempFile.Close(); err != nil {
		return errors.New(fmt.Errorf("error closing temporary file: %w", err)).
			Category(errors.CategoryFileIO).
			Build()
	}

	if err := moveFile(tempFileName, configPath); err != nil {
		return errors.New(fmt.Errorf("error moving config file into place: %w", err)).
			Category(errors.CategoryFileIO).
			Context("config_file", configPath).
			Build()
	}

	return nil
}
