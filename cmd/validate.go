package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"

	"releasegate/config"
	"releasegate/services"

	"github.com/spf13/cobra"
)

// NewValidator wires the validation pipeline from the configuration.
// The download bar is written to progress.
func NewValidator(cfg *config.Config, logger *log.Logger, progress io.Writer) *services.Validator {
	set := services.DefaultRuleSet()
	set.AudioExtensions = cfg.AudioExtensions

	comparator := services.NewComparator(
		services.NewMetadataReader(),
		services.NewRuleEngine(set),
		cfg.ArtworkName,
		logger,
	)
	fetcher := services.NewFetcher(cfg.HTTPTimeout, cfg.ChunkSize, progress)
	return services.NewValidator(comparator, fetcher, cfg.ReferenceURL, "", logger)
}

func runValidate(cmd *cobra.Command, cfg *config.Config, logger *log.Logger, archivePath string) error {
	out := cmd.OutOrStdout()
	validator := NewValidator(cfg, logger, cmd.ErrOrStderr())
	reporter := services.NewLineReporter(out)

	err := validator.Run(cmd.Context(), archivePath, reporter)
	if errors.Is(err, services.ErrArchiveNotFound) {
		fmt.Fprintf(out, "ERROR: The file '%s' does not exist.\n", archivePath)
		return errReported
	}
	if err != nil {
		return err
	}

	logger.Printf("Validation finished with %d problem(s)", reporter.Count())
	return nil
}
