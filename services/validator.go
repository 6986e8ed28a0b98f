package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// ErrArchiveNotFound is returned when the candidate archive does not exist.
var ErrArchiveNotFound = errors.New("archive not found")

// Validator runs a full check of a candidate release archive against the reference release.
type Validator struct {
	comparator   *Comparator
	fetcher      *Fetcher
	referenceURL string
	workDir      string
	logger       *log.Logger
}

// NewValidator creates a validator. workDir is where temporary workspaces are created
// (os.TempDir when empty).
func NewValidator(comparator *Comparator, fetcher *Fetcher, referenceURL, workDir string, logger *log.Logger) *Validator {
	return &Validator{
		comparator:   comparator,
		fetcher:      fetcher,
		referenceURL: referenceURL,
		workDir:      workDir,
		logger:       logger,
	}
}

// Run extracts the candidate archive, fetches and extracts the reference release,
// and emits every problem to r. Returned errors are fatal for the run; the
// temporary workspace is removed on every path.
func (v *Validator) Run(ctx context.Context, archivePath string, r Reporter) error {
	info, err := os.Stat(archivePath)
	if err != nil || info.IsDir() {
		return fmt.Errorf("%w: %s", ErrArchiveNotFound, archivePath)
	}

	ws, err := NewWorkspace(v.workDir, "releasegate-")
	if err != nil {
		return err
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			v.logger.Printf("Warning: could not remove workspace %s: %v", ws.Root(), err)
		}
	}()

	candidateDir, err := ws.Dir("candidate")
	if err != nil {
		return err
	}
	if err := ExtractZip(archivePath, candidateDir); err != nil {
		return fmt.Errorf("failed to extract candidate archive: %w", err)
	}

	remoteDir, err := ws.Dir("remote")
	if err != nil {
		return err
	}
	remoteZip := filepath.Join(remoteDir, "downloaded.zip")
	v.logger.Println("Downloading remote ZIP...")
	if err := v.fetcher.Fetch(ctx, v.referenceURL, remoteZip); err != nil {
		return fmt.Errorf("failed to retrieve reference release: %w", err)
	}

	referenceDir, err := ws.Dir("remote", "extracted")
	if err != nil {
		return err
	}
	if err := ExtractZip(remoteZip, referenceDir); err != nil {
		return fmt.Errorf("failed to extract reference release: %w", err)
	}

	v.logger.Println("Comparing files...")
	return v.comparator.Compare(candidateDir, referenceDir, r)
}
