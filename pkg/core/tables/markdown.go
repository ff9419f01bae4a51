package tables

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// ExtractFromMarkdown pulls pipe tables out of a Markdown document.
// Used for filings that reach us already converted to Markdown.
func ExtractFromMarkdown(source []byte) ([]ExtractedTable, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader(source))

	var tables []ExtractedTable
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() != east.KindTable {
			return ast.WalkContinue, nil
		}
		table := parseMarkdownTable(n, source, len(tables)+1)
		if table != nil {
			tables = append(tables, *table)
		}
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return nil, err
	}

	return tables, nil
}

func parseMarkdownTable(node ast.Node, source []byte, id int) *ExtractedTable {
	var headers []string
	var rows [][]string

	for row := node.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, nodeText(cell, source))
		}
		if _, isHeader := row.(*east.TableHeader); isHeader {
			headers = cells
			continue
		}
		rows = append(rows, cells)
	}

	if headers == nil || len(rows) == 0 {
		return nil
	}

	table := &ExtractedTable{
		TableID: id,
		Headers: headers,
		Rows:    rows,
		Method:  "markdown",
	}
	table.NumericRows = ParseNumericRows(rows)
	return table
}

// nodeText concatenates the raw text content beneath a node.
func nodeText(node ast.Node, source []byte) string {
	var out []byte
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			out = append(out, t.Segment.Value(source)...)
		case *ast.String:
			out = append(out, t.Value...)
		}
		return ast.WalkContinue, nil
	})
	return string(out)
}
