package novel

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/birdnet-eval/internal/analysis"
	"github.com/tphakala/birdnet-eval/internal/conf"
)

// Command creates the novel command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "novel",
		Short: "List classifier detections that no human tagged",
		Long: `Find species the classifier detected above a score threshold where the
main report has no tag of that species at the chosen resolution. With
--export the detections are written as tags ready for upload.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("export") {
				settings.Novel.Export.Enabled = settings.Novel.Export.Path != ""
			}
			return analysis.WithRunner(settings, func(r *analysis.Runner) error {
				outcome, err := r.RunNovel(cmd.Context())
				if err != nil {
					return err
				}
				analysis.PrintNovel(cmd.OutOrStdout(), outcome)
				return nil
			})
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		panic(err)
	}

	return cmd
}

// setupFlags configures flags specific to the novel command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVarP(&settings.Novel.Resolution, "resolution", "r", viper.GetString("novel.resolution"), "Resolution: task, recording, location or project")
	cmd.Flags().Float64VarP(&settings.Novel.Threshold, "threshold", "t", viper.GetFloat64("novel.threshold"), "Minimum classifier score (0-100)")
	cmd.Flags().BoolVar(&settings.Novel.RemoveDisallowedSpecies, "remove-disallowed", viper.GetBool("novel.removedisallowedspecies"), "Drop detections of species not allowed in the project")
	cmd.Flags().StringVar(&settings.Novel.TieBreak.Policy, "tiebreak", viper.GetString("novel.tiebreak.policy"), "Tie-break policy for equal scores: first or random")
	cmd.Flags().Uint64Var(&settings.Novel.TieBreak.Seed, "seed", viper.GetUint64("novel.tiebreak.seed"), "Seed for the random tie-break policy")
	cmd.Flags().StringVarP(&settings.Novel.Export.Path, "export", "o", viper.GetString("novel.export.path"), "Export novel detections as tags to this CSV file")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}
