package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/forPelevin/streamclip/internal/pipeline"
	"github.com/forPelevin/streamclip/internal/store"
	"github.com/forPelevin/streamclip/internal/types"
)

const (
	colorPrimary = "#7D56F4"
	colorSuccess = "#04B575"
	colorError   = "#FF0000"
	colorInfo    = "#626262"
	colorBorder  = "#874BFD"
)

// styles are bound to the output writer so NO_COLOR and non-terminal
// outputs render plain text.
type styles struct {
	title  lipgloss.Style
	header lipgloss.Style
	cell   lipgloss.Style
	ok     lipgloss.Style
	fail   lipgloss.Style
	info   lipgloss.Style
	border lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:  r.NewStyle().Bold(true).Foreground(lipgloss.Color(colorPrimary)),
		header: r.NewStyle().Bold(true).Padding(0, 1),
		cell:   r.NewStyle().Padding(0, 1),
		ok:     r.NewStyle().Foreground(lipgloss.Color(colorSuccess)),
		fail:   r.NewStyle().Foreground(lipgloss.Color(colorError)),
		info:   r.NewStyle().Foreground(lipgloss.Color(colorInfo)),
		border: r.NewStyle().Foreground(lipgloss.Color(colorBorder)),
	}
}

func (s styles) table(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(s.border).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.header
			}
			return s.cell
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}

func clock(sec float64) string {
	total := int(sec + 0.5)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func printRecommendations(w io.Writer, presetName string, recs types.Recommendations) {
	s := newStyles(w)
	fmt.Fprintln(w, s.title.Render(fmt.Sprintf("%d clips · %s", recs.Total, presetName)))
	if len(recs.Clips) == 0 {
		fmt.Fprintln(w, s.info.Render("no highlights found"))
		return
	}
	rows := make([][]string, 0, len(recs.Clips))
	for i, c := range recs.Clips {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			clock(c.Start) + "-" + clock(c.End),
			strconv.Itoa(c.Score),
			c.Title,
			c.Reason,
		})
	}
	fmt.Fprintln(w, s.table([]string{"#", "Range", "Score", "Title", "Reason"}, rows))
}

func printManifest(w io.Writer, m types.Manifest, outDir string) {
	s := newStyles(w)
	fmt.Fprintln(w, s.title.Render(fmt.Sprintf("%d clips rendered", len(m.Clips))))
	rows := make([][]string, 0, len(m.Clips))
	for _, c := range m.Clips {
		rows = append(rows, []string{c.ID, clock(c.StartSec) + "-" + clock(c.EndSec), strconv.Itoa(c.Comments), c.File})
	}
	if len(rows) > 0 {
		fmt.Fprintln(w, s.table([]string{"ID", "Range", "Comments", "File"}, rows))
	}
	fmt.Fprintln(w, s.info.Render(outDir))
}

func printBatch(w io.Writer, items []pipeline.BatchItem) {
	s := newStyles(w)
	rows := make([][]string, 0, len(items))
	failed := 0
	for _, it := range items {
		status := s.ok.Render("ok")
		detail := it.OutDir
		if it.Err != nil {
			failed++
			status = s.fail.Render("failed")
			detail = it.Err.Error()
		}
		rows = append(rows, []string{it.Dir, status, strconv.Itoa(it.Clips), detail})
	}
	fmt.Fprintln(w, s.title.Render(fmt.Sprintf("%d broadcasts, %d failed", len(items), failed)))
	fmt.Fprintln(w, s.table([]string{"Directory", "Status", "Clips", "Output"}, rows))
}

func printPresets(w io.Writer, ps []types.Preset) {
	s := newStyles(w)
	rows := make([][]string, 0, len(ps))
	for _, p := range ps {
		rows = append(rows, []string{p.Key, p.Name, bounds(p.ClipDuration), strconv.Itoa(len(p.SignaturePhrases))})
	}
	fmt.Fprintln(w, s.table([]string{"Key", "Name", "Duration", "Memes"}, rows))
}

func printPreset(w io.Writer, p types.Preset) {
	s := newStyles(w)
	fmt.Fprintln(w, s.title.Render(p.Name+" ("+p.Key+")"))
	if p.Description != "" {
		fmt.Fprintln(w, p.Description)
	}
	fmt.Fprintf(w, "duration: %s\n", bounds(p.ClipDuration))
	if len(p.SignaturePhrases) > 0 {
		fmt.Fprintf(w, "memes: %s\n", strings.Join(p.SignaturePhrases, ", "))
	}
	if p.TitleTemplate != "" {
		fmt.Fprintf(w, "title template: %s\n", p.TitleTemplate)
	}
	if len(p.Tags) > 0 {
		fmt.Fprintf(w, "tags: %s\n", strings.Join(p.Tags, ", "))
	}
}

func bounds(b *types.DurationBounds) string {
	if b == nil {
		return "-"
	}
	return fmt.Sprintf("%gs-%gs", b.Min, b.Max)
}

func printRuns(w io.Writer, runs []store.Run) {
	s := newStyles(w)
	if len(runs) == 0 {
		fmt.Fprintln(w, s.info.Render("no runs recorded"))
		return
	}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Preset,
			strconv.Itoa(r.Clips),
			strconv.Itoa(r.TopScore),
			r.OutDir,
		})
	}
	fmt.Fprintln(w, s.table([]string{"Run", "Created", "Preset", "Clips", "Top", "Output"}, rows))
}
