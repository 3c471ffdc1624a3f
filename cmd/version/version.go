package version

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/tphakala/birdnet-eval/internal/conf"
)

// Command creates the version command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "birdnet-eval %s (built %s, %s %s/%s)\n",
				settings.Version, settings.BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
