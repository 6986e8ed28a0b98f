package services

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	textAlignDecl   = regexp.MustCompile(`text-align\s*:\s*[^;]*(;|$)`)
	yearInParens    = regexp.MustCompile(`\(\d{4}\)`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
	coverReference  = regexp.MustCompile(`(?m)^[ \t]*cover:[ \t]*'[^'\n]*',?[ \t]*$`)
	justifiedTarget = []string{"text", "abstract"}
)

// RestyleTree justifies the text blocks and strips release years from the headings
// of every .html file below root. It returns the files that were rewritten.
func RestyleTree(root string) ([]string, error) {
	var updated []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".html") {
			return nil
		}
		changed, err := RestyleFile(path)
		if err != nil {
			return err
		}
		if changed {
			updated = append(updated, path)
		}
		return nil
	})
	return updated, err
}

// RestyleFile restyles one page in place
func RestyleFile(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if !RestyleDocument(doc) {
		return false, nil
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return false, fmt.Errorf("failed to render %s: %w", path, err)
	}
	return true, os.WriteFile(path, buf.Bytes(), 0644)
}

// RestyleDocument applies the restyle to a parsed page and reports whether it changed
func RestyleDocument(doc *html.Node) bool {
	changed := false

	for _, div := range findElements(doc, atom.Div) {
		if !hasAnyClass(div, justifiedTarget...) {
			continue
		}
		style := getAttr(div, "style")
		updated := justifyStyle(style)
		if updated != style {
			setAttr(div, "style", updated)
			changed = true
		}
	}

	for _, h1 := range findElements(doc, atom.H1) {
		text := textContent(h1)
		updated := yearInParens.ReplaceAllString(text, "")
		updated = strings.TrimSpace(whitespaceRun.ReplaceAllString(updated, " "))
		if updated == text && h1.FirstChild != nil && h1.FirstChild == h1.LastChild && h1.FirstChild.Type == html.TextNode {
			continue
		}
		for c := h1.FirstChild; c != nil; c = h1.FirstChild {
			h1.RemoveChild(c)
		}
		h1.AppendChild(&html.Node{Type: html.TextNode, Data: updated})
		changed = true
	}

	return changed
}

// justifyStyle sets text-align to justify, replacing an existing declaration
func justifyStyle(style string) string {
	if textAlignDecl.MatchString(style) {
		return strings.TrimSpace(textAlignDecl.ReplaceAllString(style, "text-align: justify;"))
	}
	trimmed := strings.TrimSpace(style)
	if trimmed != "" && !strings.HasSuffix(trimmed, ";") {
		trimmed += ";"
	}
	return strings.TrimSpace(trimmed + " text-align: justify;")
}

// StripCoverReferences blanks every `cover: '...'` line of a player script
func StripCoverReferences(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	updated := coverReference.ReplaceAll(data, nil)
	return os.WriteFile(path, updated, 0644)
}

// SwapGateway replaces oldGateway with newGateway in every .html and .eno file below root.
// It returns the files that were updated.
func SwapGateway(root, oldGateway, newGateway string) ([]string, error) {
	if oldGateway == "" {
		return nil, fmt.Errorf("old gateway must not be empty")
	}

	var updated []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".html") && !strings.HasSuffix(d.Name(), ".eno") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if !bytes.Contains(data, []byte(oldGateway)) {
			return nil
		}
		data = bytes.ReplaceAll(data, []byte(oldGateway), []byte(newGateway))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return err
		}
		updated = append(updated, path)
		return nil
	})
	return updated, err
}

func hasAnyClass(n *html.Node, classes ...string) bool {
	for _, c := range strings.Fields(getAttr(n, "class")) {
		for _, want := range classes {
			if c == want {
				return true
			}
		}
	}
	return false
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
