package commands

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// TableData holds headers and rows for printTable.
type TableData struct {
	headers []string
	rows    [][]string
}

func NewTableData(headers ...string) *TableData {
	return &TableData{headers: headers, rows: make([][]string, 0)}
}

func (t *TableData) AddRow(row ...string) {
	t.rows = append(t.rows, row)
}

// printTable writes data as a borderless, left-aligned table.
func printTable(w io.Writer, data *TableData) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(data.headers)

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, row := range data.rows {
		table.Append(row)
	}
	table.Render()
}
