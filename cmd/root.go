package cmd

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cfgcmd "github.com/tphakala/birdnet-eval/cmd/config"
	"github.com/tphakala/birdnet-eval/cmd/evaluate"
	"github.com/tphakala/birdnet-eval/cmd/history"
	"github.com/tphakala/birdnet-eval/cmd/novel"
	"github.com/tphakala/birdnet-eval/cmd/pipeline"
	"github.com/tphakala/birdnet-eval/cmd/version"
	"github.com/tphakala/birdnet-eval/internal/conf"
	"github.com/tphakala/birdnet-eval/internal/errors"
	"github.com/tphakala/birdnet-eval/internal/logger"
)

// sentryFlushTimeout bounds how long exit waits for queued events.
const sentryFlushTimeout = 2 * time.Second

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "birdnet-eval",
		Short:         "Evaluate BirdNET classifier output against human transcriptions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, settings); err != nil {
		panic(err)
	}

	versionCmd := version.Command(settings)
	configCmd := cfgcmd.Command(settings)

	rootCmd.AddCommand(
		evaluate.Command(settings),
		novel.Command(settings),
		pipeline.Command(settings),
		history.Command(settings),
		configCmd,
		versionCmd,
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Version and config dumps work even with a broken config.
		if cmd == versionCmd || cmd.Parent() == configCmd {
			return nil
		}
		applyOutputFlags(cmd, settings)
		return initialize(settings)
	}

	return rootCmd
}

// applyOutputFlags enables the outputs whose path was given on the command line.
func applyOutputFlags(cmd *cobra.Command, settings *conf.Settings) {
	if cmd.Flags().Changed("db") {
		settings.Output.SQLite.Enabled = true
		settings.Output.MySQL.Enabled = false
	}
	if cmd.Flags().Changed("metrics-textfile") {
		settings.Output.Metrics.Enabled = true
	}
}

// initialize validates the merged settings and sets up logging and
// error telemetry.
func initialize(settings *conf.Settings) error {
	if err := conf.ValidateSettings(settings); err != nil {
		return err
	}

	if settings.Debug {
		settings.Logging.DefaultLevel = "debug"
		if settings.Logging.Console != nil {
			settings.Logging.Console.Level = "debug"
		}
	}

	central, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetGlobal(central)

	if settings.Sentry.Enabled {
		if err := initSentry(settings); err != nil {
			return err
		}
	}
	return nil
}

func initSentry(settings *conf.Settings) error {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              settings.Sentry.DSN,
		SampleRate:       1.0,
		AttachStacktrace: false,
		Environment:      settings.Sentry.Environment,
		ServerName:       "",
		Release:          fmt.Sprintf("birdnet-eval@%s", settings.Version),
	})
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	errors.SetTelemetryReporter(errors.NewSentryReporter(true))
	return nil
}

// Shutdown flushes buffered logs and telemetry. Call it once before exit.
func Shutdown() {
	if err := logger.Global().Flush(); err != nil {
		fmt.Printf("failed to flush logs: %v\n", err)
	}
	if errors.GetTelemetryReporter() != nil {
		sentry.Flush(sentryFlushTimeout)
	}
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	// Read by main before the settings are loaded; declared here for help output.
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVarP(&settings.Input.Main, "main", "m", viper.GetString("input.main"), "Path to the main (ground truth) report CSV")
	rootCmd.PersistentFlags().StringVarP(&settings.Input.Classifier, "classifier", "c", viper.GetString("input.classifier"), "Path to the classifier report CSV")
	rootCmd.PersistentFlags().StringVar(&settings.Output.SQLite.Path, "db", viper.GetString("output.sqlite.path"), "Path to the SQLite run history database")
	rootCmd.PersistentFlags().StringVar(&settings.Output.Metrics.Textfile, "metrics-textfile", viper.GetString("output.metrics.textfile"), "Write Prometheus metrics to this file")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
