package types

import "sort"

// ComplianceProblem is a single deviation from the release rules.
// File is empty when the problem concerns the release as a whole.
type ComplianceProblem struct {
	File    string `json:"file,omitempty"`
	Message string `json:"message"`
}

// String renders the problem the way it is shown to the operator
func (p ComplianceProblem) String() string {
	if p.File == "" {
		return p.Message
	}
	return p.File + ": " + p.Message
}

// Report collects the outcome of one validation run
type Report struct {
	Archive        string              `json:"archive"`
	FilesChecked   int                 `json:"filesChecked"`
	ReferenceFiles int                 `json:"referenceFiles"`
	Problems       []ComplianceProblem `json:"problems"`
}

// ReferenceManifest is the set of filenames found in the canonical release.
type ReferenceManifest struct {
	names map[string]struct{}
}

// NewReferenceManifest builds a manifest from a list of filenames
func NewReferenceManifest(names ...string) *ReferenceManifest {
	m := &ReferenceManifest{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		m.names[n] = struct{}{}
	}
	return m
}

// Has reports whether the reference contains a file with this name
func (m *ReferenceManifest) Has(name string) bool {
	_, ok := m.names[name]
	return ok
}

// Len returns the number of distinct names
func (m *ReferenceManifest) Len() int {
	return len(m.names)
}

// Names returns the filenames in sorted order
func (m *ReferenceManifest) Names() []string {
	names := make([]string, 0, len(m.names))
	for n := range m.names {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
