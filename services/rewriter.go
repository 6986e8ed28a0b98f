package services

import (
	"bytes"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RewriteStats summarises a rewrite pass
type RewriteStats struct {
	Pages     int
	Updated   int
	Rewritten int
}

// Rewriter points the audio sources of index pages at gateway URLs
type Rewriter struct {
	links   LinkMap
	gateway string
	logger  *log.Logger
}

// NewRewriter creates a rewriter. gateway is the base URL the content identifier is appended to.
func NewRewriter(links LinkMap, gateway string, logger *log.Logger) *Rewriter {
	if !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}
	return &Rewriter{links: links, gateway: gateway, logger: logger}
}

// FindIndexPages returns every index.html below root (name compared case-insensitively)
func FindIndexPages(root string) ([]string, error) {
	var pages []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(d.Name(), "index.html") {
			pages = append(pages, path)
		}
		return nil
	})
	return pages, err
}

// RewriteTree rewrites every index page below root
func (rw *Rewriter) RewriteTree(root string) (RewriteStats, error) {
	var stats RewriteStats

	pages, err := FindIndexPages(root)
	if err != nil {
		return stats, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	rw.logf("Found %d index.html file(s) to process.", len(pages))

	for _, page := range pages {
		rw.logf("Processing %s ...", page)
		n, err := rw.RewriteFile(page)
		if err != nil {
			return stats, err
		}
		stats.Pages++
		stats.Rewritten += n
		if n > 0 {
			stats.Updated++
		}
	}
	return stats, nil
}

// RewriteFile rewrites one page in place and returns the number of sources changed.
// The file is only written when something changed.
func (rw *Rewriter) RewriteFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	folder := filepath.Base(filepath.Dir(path))
	changed := rw.RewriteDocument(doc, folder)
	if changed == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return 0, fmt.Errorf("failed to render %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return 0, err
	}
	return changed, nil
}

// RewriteDocument rewrites the <source> elements inside <audio> elements of doc.
// Unresolved sources are left untouched.
func (rw *Rewriter) RewriteDocument(doc *html.Node, folder string) int {
	changed := 0
	for _, audio := range findElements(doc, atom.Audio) {
		for _, source := range findElements(audio, atom.Source) {
			for i, attr := range source.Attr {
				if attr.Key != "src" {
					continue
				}
				src := strings.TrimSpace(attr.Val)
				if src == "" {
					continue
				}
				id, ok := rw.links.Resolve(src, folder)
				if !ok {
					continue
				}
				rw.logf("Replacing %s -> %s", src, id)
				source.Attr[i].Val = rw.gateway + id
				changed++
			}
		}
	}
	return changed
}

func (rw *Rewriter) logf(format string, args ...any) {
	if rw.logger != nil {
		rw.logger.Printf(format, args...)
	}
}

// findElements returns the descendants of n with the given tag, in document order
func findElements(n *html.Node, tag atom.Atom) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.DataAtom == tag {
				found = append(found, c)
			}
			walk(c)
		}
	}
	walk(n)
	return found
}
