package services

import (
	"fmt"
	"io"

	"releasegate/types"
)

// Reporter receives the problems of a validation run
type Reporter interface {
	Report(problem types.ComplianceProblem)
}

// ProgressReporter is a Reporter that also follows the run file by file
type ProgressReporter interface {
	Reporter
	FileChecked(index, total int, filename string)
	ReferenceLoaded(manifest *types.ReferenceManifest)
}

// LineReporter prints one "- <problem>" line per problem
type LineReporter struct {
	w     io.Writer
	count int
}

// NewLineReporter creates a reporter writing to w
func NewLineReporter(w io.Writer) *LineReporter {
	return &LineReporter{w: w}
}

// Report prints the problem
func (r *LineReporter) Report(problem types.ComplianceProblem) {
	r.count++
	fmt.Fprintf(r.w, "- %s\n", problem)
}

// Count returns the number of problems printed so far
func (r *LineReporter) Count() int {
	return r.count
}

// CollectingReporter accumulates problems into a Report
type CollectingReporter struct {
	report *types.Report
}

// NewCollectingReporter creates a reporter for the named archive
func NewCollectingReporter(archive string) *CollectingReporter {
	return &CollectingReporter{report: &types.Report{
		Archive:  archive,
		Problems: []types.ComplianceProblem{},
	}}
}

// Report stores the problem
func (r *CollectingReporter) Report(problem types.ComplianceProblem) {
	r.report.Problems = append(r.report.Problems, problem)
}

// FileChecked counts checked files
func (r *CollectingReporter) FileChecked(index, total int, filename string) {
	r.report.FilesChecked = index + 1
}

// ReferenceLoaded records the reference size
func (r *CollectingReporter) ReferenceLoaded(manifest *types.ReferenceManifest) {
	r.report.ReferenceFiles = manifest.Len()
}

// Result returns the collected report
func (r *CollectingReporter) Result() *types.Report {
	return r.report
}
