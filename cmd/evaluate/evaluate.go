package evaluate

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/birdnet-eval/internal/analysis"
	"github.com/tphakala/birdnet-eval/internal/conf"
)

// Command creates the evaluate command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Compute precision and recall over a threshold range",
		Long: `Compare classifier detections with the human transcriptions of the main
report at the chosen resolution and print precision, recall and F-score for
every integer score threshold in the range.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("plot") {
				settings.Output.Plot.Enabled = true
			}
			return analysis.WithRunner(settings, func(r *analysis.Runner) error {
				outcome, err := r.RunEvaluation(cmd.Context())
				if err != nil {
					return err
				}
				analysis.PrintEvaluation(cmd.OutOrStdout(), outcome)
				return nil
			})
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		panic(err)
	}

	return cmd
}

// setupFlags configures flags specific to the evaluate command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVarP(&settings.Evaluation.Resolution, "resolution", "r", viper.GetString("evaluation.resolution"), "Resolution: task, minute or recording")
	cmd.Flags().IntVar(&settings.Evaluation.Thresholds.Lo, "lo", viper.GetInt("evaluation.thresholds.lo"), "Lowest score threshold (0-100)")
	cmd.Flags().IntVar(&settings.Evaluation.Thresholds.Hi, "hi", viper.GetInt("evaluation.thresholds.hi"), "Highest score threshold (0-100)")
	cmd.Flags().StringSliceVar(&settings.Evaluation.Species, "species", viper.GetStringSlice("evaluation.species"), "Only evaluate these species codes")
	cmd.Flags().BoolVar(&settings.Evaluation.RemoveDisallowedSpecies, "remove-disallowed", viper.GetBool("evaluation.removedisallowedspecies"), "Drop detections of species not allowed in the project")
	cmd.Flags().IntVar(&settings.Evaluation.Workers, "workers", viper.GetInt("evaluation.workers"), "Threshold sweep workers, 0 for one per CPU")
	cmd.Flags().StringVar(&settings.Output.Plot.Path, "plot", viper.GetString("output.plot.path"), "Write the precision/recall curve to this image")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}
