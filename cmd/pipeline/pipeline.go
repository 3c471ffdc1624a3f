package pipeline

import (
	"github.com/spf13/cobra"

	"github.com/tphakala/birdnet-eval/internal/analysis"
	"github.com/tphakala/birdnet-eval/internal/conf"
	"github.com/tphakala/birdnet-eval/internal/errors"
	"github.com/tphakala/birdnet-eval/internal/evaluation"
	"github.com/tphakala/birdnet-eval/internal/logger"
)

// Command creates the pipeline command, which runs evaluate and novel
// from the configuration file in one pass.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "pipeline",
		Short: "Run evaluation and novel detection with the configured settings",
		Long: `Run the evaluate and novel steps one after the other, sharing the parsed
reports. Settings come from the configuration file and environment. An empty
novel detection result is reported but does not fail the pipeline.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return analysis.WithRunner(settings, func(r *analysis.Runner) error {
				out := cmd.OutOrStdout()

				eval, err := r.RunEvaluation(cmd.Context())
				if err != nil {
					return err
				}
				analysis.PrintEvaluation(out, eval)

				novel, err := r.RunNovel(cmd.Context())
				if errors.Is(err, evaluation.ErrNoNovelDetections) {
					analysis.GetLogger().Info("pipeline found no novel detections",
						logger.String("resolution", settings.Novel.Resolution))
					return nil
				}
				if err != nil {
					return err
				}
				analysis.PrintNovel(out, novel)
				return nil
			})
		},
	}
}
