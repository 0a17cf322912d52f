package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one table column. Numeric columns are right-aligned.
type column struct {
	title   string
	numeric bool
}

func textColumn(title string) column    { return column{title: title} }
func numericColumn(title string) column { return column{title: title, numeric: true} }

// tableView is a rendered CLI table with an optional totals footer.
type tableView struct {
	columns []column
	rows    [][]string
	footer  []string
}

func (v tableView) render() string {
	if len(v.columns) == 0 {
		return ""
	}
	tw := table.NewWriter()
	style := table.StyleRounded
	style.Format.Header = text.FormatDefault
	style.Format.Footer = text.FormatDefault
	tw.SetStyle(style)

	tw.AppendHeader(v.padded(headerCells(v.columns)))
	for _, row := range v.rows {
		tw.AppendRow(v.padded(row))
	}
	if len(v.footer) > 0 {
		tw.AppendFooter(v.padded(v.footer))
	}

	configs := make([]table.ColumnConfig, len(v.columns))
	for i, col := range v.columns {
		align := text.AlignLeft
		if col.numeric {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignFooter: align, AlignHeader: text.AlignLeft}
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

// padded fills short rows with blanks and drops cells past the last column.
func (v tableView) padded(cells []string) table.Row {
	row := make(table.Row, len(v.columns))
	for i := range row {
		row[i] = ""
		if i < len(cells) {
			row[i] = cells[i]
		}
	}
	return row
}

func headerCells(columns []column) []string {
	cells := make([]string, len(columns))
	for i, col := range columns {
		cells[i] = col.title
	}
	return cells
}

// countRow is one labelled tally in a two-column summary table.
type countRow struct {
	label string
	value int
}

// renderCounts renders label/count pairs such as build and filter totals.
func renderCounts(title string, counts []countRow) string {
	rows := make([][]string, len(counts))
	for i, c := range counts {
		rows[i] = []string{c.label, strconv.Itoa(c.value)}
	}
	return tableView{
		columns: []column{textColumn(title), numericColumn("Count")},
		rows:    rows,
	}.render()
}
