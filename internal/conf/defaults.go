// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("input.main", "")
	viper.SetDefault("input.classifier", "")
	viper.SetDefault("input.cachettl", 10*time.Minute)

	viper.SetDefault("evaluation.resolution", "recording")
	viper.SetDefault("evaluation.thresholds.lo", 0)
	viper.SetDefault("evaluation.thresholds.hi", 100)
	viper.SetDefault("evaluation.removedisallowedspecies", true)
	viper.SetDefault("evaluation.species", []string{})
	viper.SetDefault("evaluation.excludecategories", []string{"mammal", "amphibian", "abiotic", "insect", "human", "unknown"})
	viper.SetDefault("evaluation.workers", 0)

	viper.SetDefault("novel.resolution", "location")
	viper.SetDefault("novel.threshold", 80.0)
	viper.SetDefault("novel.removedisallowedspecies", true)
	viper.SetDefault("novel.tiebreak.policy", "first")
	viper.SetDefault("novel.tiebreak.seed", 0)
	viper.SetDefault("novel.export.enabled", false)
	viper.SetDefault("novel.export.path", "output/novel_tags.csv")

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "birdnet-eval.db")

	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "birdnet")
	viper.SetDefault("output.mysql.password", "secret")
	viper.SetDefault("output.mysql.database", "birdnet")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", 3306)

	viper.SetDefault("output.metrics.enabled", false)
	viper.SetDefault("output.metrics.textfile", "output/birdnet_eval.prom")

	viper.SetDefault("output.plot.enabled", false)
	viper.SetDefault("output.plot.path", "output/pr_curve.png")
	viper.SetDefault("output.plot.width", 6.0)
	viper.SetDefault("output.plot.height", 4.0)

	viper.SetDefault("logging.default_level", "info")
	viper.SetDefault("logging.timezone", "Local")
	viper.SetDefault("logging.console.enabled", true)
	viper.SetDefault("logging.console.level", "info")
	viper.SetDefault("logging.file_output.enabled", false)
	viper.SetDefault("logging.file_output.path", "logs/birdnet-eval.log")
	viper.SetDefault("logging.file_output.level", "debug")

	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")
	viper.SetDefault("sentry.environment", "production")
}
