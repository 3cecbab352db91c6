package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// titleWidth caps free-text columns so long clip titles wrap instead of
// pushing the table off screen.
const titleWidth = 40

type tableSpec struct {
	headers []string
	rows    [][]string
	aligns  []columnAlignment
	// wrap lists zero-based columns that soft-wrap at titleWidth.
	wrap   []int
	footer []string
}

func (s tableSpec) render() string {
	columns := len(s.headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	style := table.StyleRounded
	style.Format.Footer = text.FormatDefault
	tw.SetStyle(style)
	tw.AppendHeader(toRow(s.headers, columns))
	for _, row := range s.rows {
		tw.AppendRow(toRow(row, columns))
	}
	if len(s.footer) > 0 {
		tw.AppendFooter(toRow(s.footer, columns))
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		cc := table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft, AlignFooter: text.AlignLeft}
		if i < len(s.aligns) && s.aligns[i] == alignRight {
			cc.Align = text.AlignRight
			cc.AlignFooter = text.AlignRight
		}
		for _, w := range s.wrap {
			if w == i {
				cc.WidthMax = titleWidth
				cc.WidthMaxEnforcer = text.WrapSoft
			}
		}
		configs = append(configs, cc)
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func toRow(values []string, columns int) table.Row {
	r := make(table.Row, columns)
	for i := range r {
		if i < len(values) {
			r[i] = values[i]
		} else {
			r[i] = ""
		}
	}
	return r
}

func printTable(cmd *cobra.Command, headers []string, rows [][]string, aligns []columnAlignment) {
	printTableSpec(cmd, tableSpec{headers: headers, rows: rows, aligns: aligns})
}

func printTableSpec(cmd *cobra.Command, spec tableSpec) {
	fmt.Fprintln(cmd.OutOrStdout(), spec.render())
}
