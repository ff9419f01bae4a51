package tables

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExtractTablesFromFile reads a document and extracts its tables,
// trying HTML first and falling back to Markdown. Extraction failures
// accumulate as error strings; the result is always usable downstream.
func ExtractTablesFromFile(path string) TableExtractionResult {
	result := TableExtractionResult{FilePath: path}

	content, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("file not readable: %v", err))
		return result
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		result.Tables, err = ExtractFromHTML(string(content))
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("html extraction failed: %v", err))
		}
	case ".md", ".markdown":
		result.Tables, err = ExtractFromMarkdown(content)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("markdown extraction failed: %v", err))
		}
	default:
		// Unknown extension: try HTML, then Markdown.
		result.Tables, err = ExtractFromHTML(string(content))
		if err != nil || len(result.Tables) == 0 {
			mdTables, mdErr := ExtractFromMarkdown(content)
			if mdErr == nil && len(mdTables) > 0 {
				result.Tables = mdTables
			} else if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("all table extraction methods failed: %v", err))
			}
		}
	}

	result.TotalTables = len(result.Tables)
	return result
}
