package util

import (
	"strings"
	"text/tabwriter"
)

// Table accumulates rows of cells and renders them with aligned columns.
// Writes go to a strings.Builder, which never fails, so no method returns an error.
type Table struct {
	indent string
	sb     *strings.Builder
	writer *tabwriter.Writer
}

// NewTable creates a table whose rows are prefixed by indent.
func NewTable(indent string) *Table {
	sb := &strings.Builder{}
	return &Table{
		indent: indent,
		sb:     sb,
		writer: tabwriter.NewWriter(sb, 0, 4, 2, ' ', 0),
	}
}

// Row appends a row. Cells must not contain tabs or newlines.
func (t *Table) Row(cells ...string) {
	_, _ = t.writer.Write([]byte(t.indent + strings.Join(cells, "\t") + "\n"))
}

// String renders the rows added so far.
func (t *Table) String() string {
	_ = t.writer.Flush()
	return t.sb.String()
}
