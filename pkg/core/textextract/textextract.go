// Package textextract defines the text-extraction stage boundary.
// PDF OCR lives outside this repo; implementations of Extractor plug in
// native-text or OCR backends. The pipeline only consumes the shapes here.
package textextract

import (
	"fmt"
	"os"
	"strings"
)

// PageText is the extracted text of a single page.
type PageText struct {
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
	IsScanned  bool   `json:"is_scanned"`
	Method     string `json:"method"` // "native" or "ocr"
}

// DocumentText is the complete text extraction for a document.
type DocumentText struct {
	FilePath   string     `json:"file_path"`
	TotalPages int        `json:"total_pages"`
	Pages      []PageText `json:"pages"`
	Errors     []string   `json:"errors"`
}

// FullText concatenates all page text.
func (d *DocumentText) FullText() string {
	var parts []string
	for _, p := range d.Pages {
		if p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Extractor is implemented by text-extraction backends.
type Extractor interface {
	ExtractText(path string) DocumentText
}

// PlainText reads text-like files (txt, html, md) as a single page.
// It is the default backend when no OCR service is wired in.
type PlainText struct{}

func (PlainText) ExtractText(path string) DocumentText {
	result := DocumentText{FilePath: path}

	content, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to read file: %v", err))
		return result
	}

	result.TotalPages = 1
	result.Pages = []PageText{{
		PageNumber: 1,
		Text:       string(content),
		Method:     "native",
	}}
	return result
}
