package services

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Workspace is a scoped temporary directory. Cleanup removes it and is safe to call repeatedly.
type Workspace struct {
	root string
	once sync.Once
	err  error
}

// NewWorkspace creates a fresh temporary directory under baseDir (os.TempDir when empty)
func NewWorkspace(baseDir, prefix string) (*Workspace, error) {
	root, err := os.MkdirTemp(baseDir, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return &Workspace{root: root}, nil
}

// Root returns the workspace directory
func (w *Workspace) Root() string {
	return w.root
}

// Dir creates (if needed) and returns a directory inside the workspace
func (w *Workspace) Dir(elem ...string) (string, error) {
	path := filepath.Join(append([]string{w.root}, elem...)...)
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	return path, nil
}

// Cleanup removes the workspace and everything in it
func (w *Workspace) Cleanup() error {
	w.once.Do(func() {
		w.err = os.RemoveAll(w.root)
	})
	return w.err
}
