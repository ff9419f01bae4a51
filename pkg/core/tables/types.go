// Package tables detects and extracts tabular data from financial
// documents, and cleans financial number formatting into plain floats.
// Column 0 is assumed to be the label column; the first row the header.
package tables

// ExtractedTable is a single table pulled from a document.
type ExtractedTable struct {
	TableID     int          `json:"table_id"`
	PageNumber  int          `json:"page_number"`
	Title       string       `json:"title,omitempty"`
	Headers     []string     `json:"headers"`
	Rows        [][]string   `json:"rows"`
	NumericRows [][]*float64 `json:"numeric_rows"`
	Accuracy    float64      `json:"accuracy"`
	Method      string       `json:"method"` // "html", "markdown"
}

// TableExtractionResult holds every table found in a document.
type TableExtractionResult struct {
	FilePath    string           `json:"file_path"`
	Tables      []ExtractedTable `json:"tables"`
	TotalTables int              `json:"total_tables"`
	Errors      []string         `json:"errors"`
}

// ParseNumericRows runs CleanNumeric over every cell of every row.
func ParseNumericRows(rows [][]string) [][]*float64 {
	numeric := make([][]*float64, 0, len(rows))
	for _, row := range rows {
		parsed := make([]*float64, 0, len(row))
		for _, cell := range row {
			parsed = append(parsed, CleanNumeric(cell))
		}
		numeric = append(numeric, parsed)
	}
	return numeric
}
