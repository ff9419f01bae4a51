package tables

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractFromHTML pulls every <table> out of an HTML document.
// Financial filings are predominantly HTML, so this is the primary path.
func ExtractFromHTML(html string) ([]ExtractedTable, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var tables []ExtractedTable
	doc.Find("table").Each(func(i int, sel *goquery.Selection) {
		table := parseHTMLTable(sel, len(tables)+1)
		if table != nil {
			tables = append(tables, *table)
		}
	})

	return tables, nil
}

// parseHTMLTable converts one <table> selection. Returns nil for tables
// too small to carry a header plus a data row.
func parseHTMLTable(sel *goquery.Selection, id int) *ExtractedTable {
	trs := sel.Find("tr")
	if trs.Length() < 2 {
		return nil
	}

	var headers []string
	var rows [][]string

	trs.Each(func(i int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td, th").Each(func(j int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		if len(cells) == 0 {
			return
		}
		if headers == nil {
			headers = cells
			return
		}
		rows = append(rows, cells)
	})

	if headers == nil || len(rows) == 0 {
		return nil
	}

	table := &ExtractedTable{
		TableID: id,
		Title:   findHTMLTableTitle(sel),
		Headers: headers,
		Rows:    rows,
		Method:  "html",
	}
	table.NumericRows = ParseNumericRows(rows)
	return table
}

// findHTMLTableTitle looks for a statement-like caption immediately
// before the table.
func findHTMLTableTitle(sel *goquery.Selection) string {
	prev := sel.Prev()
	if prev.Length() == 0 {
		return ""
	}
	text := strings.TrimSpace(prev.Text())
	lower := strings.ToLower(text)
	if strings.Contains(lower, "balance") ||
		strings.Contains(lower, "statement") ||
		strings.Contains(lower, "income") ||
		strings.Contains(lower, "cash flow") {
		return text
	}
	return ""
}
