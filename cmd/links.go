package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"

	"releasegate/config"
	"releasegate/services"

	"github.com/spf13/cobra"
)

func newLinksCommand(cfg *config.Config, logger *log.Logger) *cobra.Command {
	var (
		basePrefix string
		dictionary string
		gateway    string
	)

	cmd := &cobra.Command{
		Use:   "links <local_folder> [ardrive_folder_id]",
		Short: "Point <audio><source> tags of index.html pages at gateway URLs",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			folder := args[0]
			if info, err := os.Stat(folder); err != nil || !info.IsDir() {
				return fmt.Errorf("'%s' is not a valid directory", folder)
			}

			var folderID string
			if len(args) == 2 {
				folderID = args[1]
			}

			links, err := loadLinkMap(cmd, cfg, logger, folderID, dictionary, basePrefix)
			if err != nil {
				return err
			}

			if gateway == "" {
				gateway = cfg.GatewayURL
			}
			stats, err := services.NewRewriter(links, gateway, logger).RewriteTree(folder)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rewrote %d source(s) in %d of %d page(s).\n",
				stats.Rewritten, stats.Updated, stats.Pages)
			return nil
		},
	}

	cmd.Flags().StringVar(&basePrefix, "base-prefix", "", "Path prefix to strip from listed paths")
	cmd.Flags().StringVar(&dictionary, "dictionary", "", "Two-column 'path id' file used instead of ArDrive")
	cmd.Flags().StringVar(&gateway, "gateway", "", "Gateway base URL (defaults to the configured gateway)")

	return cmd
}

// loadLinkMap reads the dictionary when given, otherwise lists the ArDrive folder
func loadLinkMap(cmd *cobra.Command, cfg *config.Config, logger *log.Logger, folderID, dictionary, basePrefix string) (services.LinkMap, error) {
	if dictionary != "" {
		logger.Printf("Using dictionary file: %s", dictionary)
		f, err := os.Open(dictionary)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("dictionary file '%s' not found", dictionary)
			}
			return nil, err
		}
		defer f.Close()

		links, err := services.ParseDictionary(f, basePrefix)
		if err != nil {
			return nil, err
		}
		logger.Printf("Built a file map from dictionary with %d entries.", len(links))
		return links, nil
	}

	if folderID == "" {
		return nil, errors.New("you must provide either --dictionary or ardrive_folder_id")
	}

	logger.Printf("Fetching file data for folder ID: %s", folderID)
	entries, err := services.NewManifestSource(cfg.ArdriveBin).ListFolder(cmd.Context(), folderID)
	if err != nil {
		return nil, err
	}
	logger.Printf("Retrieved %d JSON entries from ArDrive.", len(entries))

	links := services.BuildLinkMap(entries, basePrefix)
	logger.Printf("Built a file map with %d entries.", len(links))
	return links, nil
}
