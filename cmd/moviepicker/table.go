package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/John-Robertt/MoviePicker/internal/domain"
	"github.com/John-Robertt/MoviePicker/internal/query"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// printResult 输出查询结果：无结果时只有一行提示，否则提示 + 表格。
func printResult(w io.Writer, res query.Result) {
	if res.Empty() {
		fmt.Fprintln(w, res.Summary())
		return
	}
	fmt.Fprintf(w, "\n%s\n", res.Summary())

	t := newTable(w)
	t.AppendHeader(table.Row{"Title", "Rating"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Rating", Align: text.AlignRight},
	})
	for _, r := range res.Records {
		t.AppendRow(table.Row{r.Title, domain.FormatRating(r.Rating)})
	}
	t.Render()
}
