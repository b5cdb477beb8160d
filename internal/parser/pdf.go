package parser

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

func parsePDF(path string) (*Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Scanned pages without a text layer fail here; keep the rest.
			continue
		}
		text = strings.TrimSpace(text)
		if text != "" {
			pages = append(pages, text)
		}
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyDocument)
	}

	return &Document{
		Title: strings.TrimSpace(reader.Trailer().Key("Info").Key("Title").Text()),
		Text:  strings.Join(pages, "\n\n"),
		Meta:  map[string]any{},
	}, nil
}
