package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"releasegate/config"

	"github.com/spf13/cobra"
)

// errReported marks failures whose message was already printed
var errReported = errors.New("reported")

// Execute runs the CLI with the process arguments and returns the exit code
func Execute() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.New(os.Stderr, "[releasegate] ", log.LstdFlags)
	return Run(ctx, NewRootCommand(cfg, logger), os.Args[1:], os.Stderr)
}

// Run executes root with args and maps the outcome to an exit code
func Run(ctx context.Context, root *cobra.Command, args []string, errOut io.Writer) int {
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(errOut, "ERROR: %v\n", err)
		}
		return 1
	}
	return 0
}

// NewRootCommand builds the command tree. The root command validates a release archive.
func NewRootCommand(cfg *config.Config, logger *log.Logger) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "releasegate <local_zip_path>",
		Short:         "Check a FLAC album release against the label's release conventions",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				fmt.Fprintln(cmd.OutOrStdout(), "Usage: releasegate <local_zip_path>")
				return errReported
			}
			return runValidate(cmd, cfg, logger, args[0])
		},
	}

	rootCmd.AddCommand(newLinksCommand(cfg, logger))
	rootCmd.AddCommand(newRestyleCommand())
	rootCmd.AddCommand(newStripCoversCommand())
	rootCmd.AddCommand(newSwapGatewayCommand(cfg))
	rootCmd.AddCommand(newServeCommand(cfg, logger))

	return rootCmd
}
