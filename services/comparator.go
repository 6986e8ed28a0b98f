package services

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"releasegate/types"
)

// ErrCandidateNotFound is returned when the candidate release directory does not exist.
var ErrCandidateNotFound = errors.New("candidate release directory not found")

// ReferencePolicy decides which differences between the candidate and the
// reference release are problems.
type ReferencePolicy interface {
	Check(candidates []string, reference *types.ReferenceManifest) []types.ComplianceProblem
}

// presenceOnlyPolicy builds the comparison baseline without enforcing anything.
type presenceOnlyPolicy struct{}

func (presenceOnlyPolicy) Check([]string, *types.ReferenceManifest) []types.ComplianceProblem {
	return nil
}

// Comparator checks a candidate release directory against the rule set
// and a reference release.
type Comparator struct {
	reader      MetadataReader
	engine      *RuleEngine
	artworkName string
	extensions  []string
	policy      ReferencePolicy
	logger      *log.Logger
}

// NewComparator creates a comparator. artworkName is the required top-level artwork file.
func NewComparator(reader MetadataReader, engine *RuleEngine, artworkName string, logger *log.Logger) *Comparator {
	return &Comparator{
		reader:      reader,
		engine:      engine,
		artworkName: artworkName,
		extensions:  engine.set.AudioExtensions,
		policy:      presenceOnlyPolicy{},
		logger:      logger,
	}
}

// WithReferencePolicy replaces the policy applied to the reference manifest
func (c *Comparator) WithReferencePolicy(policy ReferencePolicy) *Comparator {
	c.policy = policy
	return c
}

// Compare emits every problem of the candidate release to r.
// Only a missing candidate directory is returned as an error; everything else is reported.
// An empty referenceDir skips the reference manifest.
func (c *Comparator) Compare(candidateDir, referenceDir string, r Reporter) error {
	info, err := os.Stat(candidateDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrCandidateNotFound, candidateDir)
	}

	files, err := c.ListAudioFiles(candidateDir)
	if err != nil {
		return err
	}

	progress, _ := r.(ProgressReporter)
	for i, name := range files {
		if progress != nil {
			progress.FileChecked(i, len(files), name)
		}
		c.checkFile(filepath.Join(candidateDir, name), r)
	}

	if !isRegularFile(filepath.Join(candidateDir, c.artworkName)) {
		r.Report(types.ComplianceProblem{Message: fmt.Sprintf("%s not found in folder", c.artworkName)})
	}

	if referenceDir == "" {
		return nil
	}
	manifest, err := BuildReferenceManifest(referenceDir)
	if err != nil {
		return err
	}
	if progress != nil {
		progress.ReferenceLoaded(manifest)
	}
	c.logf("Reference release lists %d files", manifest.Len())
	for _, p := range c.policy.Check(files, manifest) {
		r.Report(p)
	}
	return nil
}

func (c *Comparator) checkFile(path string, r Reporter) {
	record, err := c.reader.Read(path)
	if err != nil {
		var readErr *MetadataReadError
		cause := err
		if errors.As(err, &readErr) {
			cause = readErr.Err
		}
		r.Report(types.ComplianceProblem{
			File:    filepath.Base(path),
			Message: fmt.Sprintf("could not read metadata: %v", cause),
		})
		return
	}

	for _, p := range c.engine.Evaluate(record) {
		r.Report(p)
	}
}

// ListAudioFiles returns the names of the immediate regular audio files in dir, sorted.
func (c *Comparator) ListAudioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if !isAudioFile(entry.Name(), c.extensions) {
			continue
		}
		if !isRegularFile(filepath.Join(dir, entry.Name())) {
			continue
		}
		files = append(files, entry.Name())
	}
	return files, nil
}

func (c *Comparator) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

// BuildReferenceManifest collects the base names of every regular file under dir.
func BuildReferenceManifest(dir string) (*types.ReferenceManifest, error) {
	var names []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			names = append(names, d.Name())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan reference release %s: %w", dir, err)
	}
	return types.NewReferenceManifest(names...), nil
}

// isRegularFile follows symlinks
func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
