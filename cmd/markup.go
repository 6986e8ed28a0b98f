package cmd

import (
	"fmt"
	"os"

	"releasegate/config"
	"releasegate/services"

	"github.com/spf13/cobra"
)

func newRestyleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restyle <path_to_folder>",
		Short: "Justify text blocks and drop release years from headings in .html files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireDir(args[0]); err != nil {
				return err
			}
			updated, err := services.RestyleTree(args[0])
			if err != nil {
				return err
			}
			for _, path := range updated {
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", path)
			}
			return nil
		},
	}
}

func newStripCoversCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "strip-covers <browser_js_path>",
		Short: "Remove all cover: references from a browser.js file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := services.StripCoverReferences(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed cover references from %s\n", args[0])
			return nil
		},
	}
}

func newSwapGatewayCommand(cfg *config.Config) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "swap-gateway <folder>",
		Short: "Replace the gateway base URL in .html and .eno files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireDir(args[0]); err != nil {
				return err
			}
			if from == "" {
				from = cfg.GatewayURL
			}
			updated, err := services.SwapGateway(args[0], from, to)
			if err != nil {
				return err
			}
			for _, path := range updated {
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Desired gateway, e.g. https://your-gateway.example/")
	cmd.Flags().StringVar(&from, "from", "", "Gateway to replace (defaults to the configured gateway)")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("invalid folder path: %s", path)
	}
	return nil
}
