package services

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"releasegate/types"
)

// LinkMap maps a release-relative, forward-slash path to its content identifier.
type LinkMap map[string]string

// BuildLinkMap keeps the file entries of a folder listing and keys them by relative path.
func BuildLinkMap(entries []types.ManifestEntry, basePrefix string) LinkMap {
	links := LinkMap{}
	for _, entry := range entries {
		if entry.EntityType != "file" || entry.Path == "" || entry.DataTxID == "" {
			continue
		}
		links[normalizeLinkPath(entry.Path, basePrefix)] = entry.DataTxID
	}
	return links
}

// ParseDictionary reads "path id" lines. The id is everything after the last space,
// so paths may contain spaces. Blank and malformed lines are skipped.
func ParseDictionary(r io.Reader, basePrefix string) (LinkMap, error) {
	links := LinkMap{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		i := strings.LastIndex(line, " ")
		if i < 0 {
			continue
		}
		links[normalizeLinkPath(line[:i], basePrefix)] = line[i+1:]
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dictionary: %w", err)
	}
	return links, nil
}

func normalizeLinkPath(path, basePrefix string) string {
	if basePrefix != "" {
		path = strings.TrimPrefix(path, basePrefix)
	}
	path = strings.TrimLeft(path, `/\`)
	return strings.ReplaceAll(path, `\`, "/")
}

// Resolve returns the content identifier for an asset reference found in a page
// living in folderName. References are percent-decoded and matched exactly; pages
// in numbered subfolders also try "<folderName>/<ref>".
func (m LinkMap) Resolve(src, folderName string) (string, bool) {
	decoded, err := url.PathUnescape(src)
	if err != nil {
		decoded = src
	}
	ref := strings.TrimLeft(decoded, `/\`)

	if id, ok := m[ref]; ok {
		return id, true
	}
	if isNumeric(folderName) {
		if id, ok := m[folderName+"/"+ref]; ok {
			return id, true
		}
	}
	return "", false
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ManifestSource lists ArDrive folders through the ardrive CLI
type ManifestSource struct {
	bin string
}

// NewManifestSource creates a source that runs the given ardrive binary
func NewManifestSource(bin string) *ManifestSource {
	return &ManifestSource{bin: bin}
}

// ListFolder returns every entry below folderID
func (s *ManifestSource) ListFolder(ctx context.Context, folderID string) ([]types.ManifestEntry, error) {
	cmd := exec.CommandContext(ctx, s.bin, "list-folder", "--parent-folder-id", folderID, "--all")

	// the ardrive launcher needs its own directory (node) on PATH
	env := os.Environ()
	if dir := filepath.Dir(s.bin); dir != "." {
		env = append(env, "PATH="+dir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("error running ardrive command: %w\n%s", err, strings.TrimSpace(stderr.String()))
	}

	var entries []types.ManifestEntry
	if err := json.Unmarshal(stdout.Bytes(), &entries); err != nil {
		return nil, fmt.Errorf("failed to decode ardrive listing: %w", err)
	}
	return entries, nil
}
