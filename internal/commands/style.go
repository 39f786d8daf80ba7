package commands

import (
	"github.com/fatih/color"
	"github.com/gosuri/uitable"
)

const version = "0.1.0"

var (
	bold      = color.New(color.Bold)
	warnColor = color.New(color.FgYellow)
	seedColor = color.New(color.FgCyan, color.Italic)
)

func newTable(header ...interface{}) *uitable.Table {
	tbl := uitable.New()
	tbl.Separator = "  "
	if len(header) > 0 {
		cells := make([]interface{}, len(header))
		for i, h := range header {
			cells[i] = bold.Sprint(h)
		}
		tbl.AddRow(cells...)
	}
	return tbl
}
