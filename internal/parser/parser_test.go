package parser

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseMarkdown(t *testing.T) {
	t.Run("full frontmatter", func(t *testing.T) {
		content := []byte("---\ntitle: Wedding letter\nproject: Ramet family\nlanguage: fr\nyear: 1925\n---\n\nMarcel Ramet married Jeanne Dubois in Paris in 1925.\n")
		doc, err := ParseMarkdown(content)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if doc.Title != "Wedding letter" {
			t.Fatalf("expected title, got %q", doc.Title)
		}
		if doc.Project != "Ramet family" || doc.Language != "fr" {
			t.Fatalf("unexpected project/language: %q %q", doc.Project, doc.Language)
		}
		if doc.Text != "Marcel Ramet married Jeanne Dubois in Paris in 1925." {
			t.Fatalf("unexpected text %q", doc.Text)
		}
		if doc.Meta["year"] != 1925 {
			t.Fatalf("expected year in meta, got %#v", doc.Meta["year"])
		}
	})

	t.Run("byte order mark before frontmatter", func(t *testing.T) {
		doc, err := ParseMarkdown([]byte("\uFEFF---\ntitle: Register\n---\nBaptism of Louis.\n"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if doc.Title != "Register" || doc.Text != "Baptism of Louis." {
			t.Fatalf("unexpected document %q %q", doc.Title, doc.Text)
		}
	})

	t.Run("no frontmatter uses heading", func(t *testing.T) {
		doc, err := ParseMarkdown([]byte("# Diary, 1916\n\nRain again at Verdun.\n"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if doc.Title != "Diary, 1916" {
			t.Fatalf("expected heading title, got %q", doc.Title)
		}
		if len(doc.Meta) != 0 {
			t.Fatalf("expected empty meta, got %#v", doc.Meta)
		}
	})

	t.Run("unterminated frontmatter is body", func(t *testing.T) {
		doc, err := ParseMarkdown([]byte("---\ntitle: Missing\n"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if doc.Title != "" {
			t.Fatalf("expected no title, got %q", doc.Title)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := ParseMarkdown([]byte("---\ntitle: [\n---\nBody\n"))
		if !errors.Is(err, ErrInvalidYAML) {
			t.Fatalf("expected ErrInvalidYAML, got %v", err)
		}
	})

	t.Run("frontmatter only", func(t *testing.T) {
		_, err := ParseMarkdown([]byte("---\ntitle: Empty\n---\n\n"))
		if !errors.Is(err, ErrEmptyDocument) {
			t.Fatalf("expected ErrEmptyDocument, got %v", err)
		}
	})
}

func TestParseText(t *testing.T) {
	doc, err := ParseText([]byte("\uFEFF  Jeanne wrote from Lyon.  \n"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if doc.Text != "Jeanne wrote from Lyon." {
		t.Fatalf("unexpected text %q", doc.Text)
	}

	if _, err := ParseText([]byte(" \n\t")); !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("text file titled by name", func(t *testing.T) {
		path := writeFile(t, dir, "letter-1925.txt", "Marcel Ramet married Jeanne Dubois.")
		doc, err := ParseFile(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if doc.Title != "letter-1925" || doc.SourceFile != path {
			t.Fatalf("unexpected doc: %+v", doc)
		}
	})

	t.Run("markdown file", func(t *testing.T) {
		path := writeFile(t, dir, "note.md", "---\ntitle: Note\n---\nParis, 1925.\n")
		doc, err := ParseFile(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if doc.Title != "Note" {
			t.Fatalf("unexpected title %q", doc.Title)
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := writeFile(t, dir, "scan.tiff", "binary")
		if _, err := ParseFile(path); !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
		}
	})

	t.Run("corrupt pdf", func(t *testing.T) {
		path := writeFile(t, dir, "broken.pdf", "not a pdf")
		if _, err := ParseFile(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := ParseFile(filepath.Join(dir, "missing.txt")); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestSupported(t *testing.T) {
	for path, want := range map[string]bool{
		"a.txt": true, "b.MD": true, "c.pdf": true, "d.docx": false, "e": false,
	} {
		if got := Supported(path); got != want {
			t.Errorf("Supported(%q) = %v, want %v", path, got, want)
		}
	}
}

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}
