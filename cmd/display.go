package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"pmdbsync/pkg/media"
	"pmdbsync/pkg/reconcile"
)

const (
	ansiReset = "\x1b[0m"
	ansiBlue  = "\x1b[34m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (s *session) banner(title string) {
	line := fmt.Sprintf("== %s ==", title)
	rule := strings.Repeat("-", len(line))
	if s.colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	fmt.Fprintln(s.out, line)
	fmt.Fprintln(s.out, rule)
}

func renderTable(headers []string, rows [][]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(row))
		for i, cell := range row {
			r[i] = cell
		}
		tw.AppendRow(r)
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}

func (s *session) showSearchResults(titles []media.Title) {
	s.banner("Search Results")
	rows := make([][]string, 0, len(titles))
	for i, t := range titles {
		rows = append(rows, []string{fmt.Sprintf("%d", i+1), t.Name, t.Year, t.ID})
	}
	fmt.Fprintln(s.out, renderTable([]string{"#", "Title", "Year", "TMDB ID"}, rows))
}

func (s *session) showPlan(title media.Title, imdbID string, plan reconcile.Plan) {
	s.banner("Title Information")
	fmt.Fprintf(s.out, "Title:   %s (%s)\n", title.Name, title.Year)
	fmt.Fprintf(s.out, "TMDB ID: %s\n", title.ID)
	fmt.Fprintf(s.out, "IMDb ID: %s\n", imdbID)
	fmt.Fprintln(s.out)

	s.banner("Identifier Mappings")
	for _, m := range plan.NewMappings {
		fmt.Fprintf(s.out, "  TMDB %s -> %s %s [NEW]\n", title.ID, m.IDType, m.Value)
	}
	for _, m := range plan.SkippedMappings {
		fmt.Fprintf(s.out, "  TMDB %s -> %s %s [EXISTS]\n", title.ID, m.IDType, m.Value)
	}
	if len(plan.NewMappings)+len(plan.SkippedMappings) == 0 {
		fmt.Fprintln(s.out, "  No identifier mappings collected.")
	}
	fmt.Fprintln(s.out)

	s.banner("Ratings")
	for _, r := range plan.NewRatings {
		fmt.Fprintf(s.out, "  %s: %.1f/100 [NEW]\n", r.Label, r.Score)
	}
	for _, r := range plan.SkippedRatings {
		fmt.Fprintf(s.out, "  %s: %.1f/100 [EXISTS]\n", r.Label, r.Score)
	}
	if len(plan.NewRatings)+len(plan.SkippedRatings) == 0 {
		fmt.Fprintln(s.out, "  No ratings collected.")
	}
	fmt.Fprintln(s.out)
}
