package history

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/birdnet-eval/internal/analysis"
	"github.com/tphakala/birdnet-eval/internal/conf"
	"github.com/tphakala/birdnet-eval/internal/datastore"
	"github.com/tphakala/birdnet-eval/internal/errors"
	"github.com/tphakala/birdnet-eval/internal/logger"
)

// Command creates the history command and its subcommands.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect stored evaluation runs",
	}

	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(settings, func(store datastore.Interface) error {
				runs, err := store.ListRuns(limit)
				if err != nil {
					return err
				}
				analysis.PrintRuns(cmd.OutOrStdout(), runs)
				return nil
			})
		},
	}
	listCmd.Flags().IntVarP(&limit, "limit", "n", datastore.DefaultListLimit, "Maximum number of runs to list")

	showCmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run with its curve or detections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(settings, func(store datastore.Interface) error {
				run, err := store.GetRun(args[0])
				if err != nil {
					return err
				}
				analysis.PrintRun(cmd.OutOrStdout(), run)
				return nil
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(settings, func(store datastore.Interface) error {
				if err := store.DeleteRun(args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted run %s\n", args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(listCmd, showCmd, deleteCmd)
	return cmd
}

// withStore opens the configured datastore for the duration of fn.
func withStore(settings *conf.Settings, fn func(datastore.Interface) error) error {
	store := datastore.New(settings)
	if store == nil {
		return errors.Newf("no run history database is configured, enable output.sqlite or output.mysql").
			Component("history").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if err := store.Open(); err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			analysis.GetLogger().Warn("failed to close datastore", logger.Error(err))
		}
	}()
	return fn(store)
}
