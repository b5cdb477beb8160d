// Package parser reads the text of a heritage document from disk.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Document struct {
	Title string
	Text  string
	// Meta holds markdown frontmatter. It is empty for other formats.
	Meta       map[string]any
	Project    string
	Language   string
	SourceFile string
}

var (
	ErrEmptyDocument     = errors.New("document has no text")
	ErrInvalidYAML       = errors.New("invalid YAML in frontmatter")
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

// Extensions lists the file extensions ParseFile accepts.
var Extensions = []string{".txt", ".md", ".markdown", ".pdf"}

// Supported reports whether ParseFile can read path.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, known := range Extensions {
		if ext == known {
			return true
		}
	}
	return false
}

func ParseFile(path string) (*Document, error) {
	var doc *Document
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		doc, err = parsePDF(path)
	case ".md", ".markdown":
		var data []byte
		if data, err = os.ReadFile(path); err == nil {
			doc, err = ParseMarkdown(data)
		}
	case ".txt":
		var data []byte
		if data, err = os.ReadFile(path); err == nil {
			doc, err = ParseText(data)
		}
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, err
	}

	doc.SourceFile = path
	if doc.Title == "" {
		doc.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return doc, nil
}

func ParseText(content []byte) (*Document, error) {
	text := strings.TrimSpace(string(bytes.TrimPrefix(content, []byte("\uFEFF"))))
	if text == "" {
		return nil, ErrEmptyDocument
	}
	return &Document{Text: text, Meta: map[string]any{}}, nil
}

// ParseMarkdown reads optional YAML frontmatter (title, project, language
// and anything else) followed by the body. Without a title in the
// frontmatter the first level-one heading is used.
func ParseMarkdown(content []byte) (*Document, error) {
	trimmed := bytes.TrimLeft(content, "\uFEFF\n\r\t ")
	meta := map[string]any{}
	body := trimmed

	if bytes.HasPrefix(trimmed, []byte("---\n")) {
		rest := trimmed[len("---\n"):]
		end := bytes.Index(rest, []byte("\n---"))
		if end != -1 {
			yamlBytes := rest[:end]
			body = bytes.TrimLeft(rest[end+len("\n---"):], "-")
			if err := yaml.Unmarshal(yamlBytes, &meta); err != nil {
				return nil, ErrInvalidYAML
			}
			if meta == nil {
				meta = map[string]any{}
			}
		}
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return nil, ErrEmptyDocument
	}

	doc := &Document{
		Text:     text,
		Meta:     meta,
		Title:    stringField(meta, "title"),
		Project:  stringField(meta, "project"),
		Language: stringField(meta, "language"),
	}
	if doc.Title == "" {
		doc.Title = firstHeading(text)
	}
	return doc, nil
}

func stringField(meta map[string]any, key string) string {
	s, ok := meta[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func firstHeading(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return ""
}
