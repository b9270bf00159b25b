// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/jonathan/link-planner/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// maxCellWidth caps URL and anchor columns in tables
	maxCellWidth = 48
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, shorten(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func (p *Printer) newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetStyle(table.StyleLight)
	return t
}

// shorten cuts s to at most n runes, marking the cut with "...".
func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// PrintCrawlSummary outputs crawl counters and the first few discovered pages.
func (p *Printer) PrintCrawlSummary(result *types.CrawlResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Seed:      %s\n", result.Seed))
	sb.WriteString(fmt.Sprintf("Attempted: %d\n", result.TotalAttempted))
	sb.WriteString(fmt.Sprintf("Succeeded: %d\n", result.TotalSucceeded))
	sb.WriteString(fmt.Sprintf("Failed:    %d\n", result.TotalFailed))

	if len(result.Pages) > 0 {
		sb.WriteString("\nPages:\n")
		count := min(len(result.Pages), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", result.Pages[i].URL))
		}
		if len(result.Pages) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(result.Pages)-maxItemsToShow))
		}
	}

	p.printBox("CRAWL SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintClusters renders one table row per topic cluster.
func (p *Printer) PrintClusters(clusters []types.ClusterSummary, quality float64) {
	if len(clusters) == 0 {
		return
	}

	t := p.newTable()
	t.SetTitle(fmt.Sprintf("TOPIC CLUSTERS (silhouette %.3f)", quality))
	t.AppendHeader(table.Row{"ID", "Label", "Pillar", "Pages"})
	for _, c := range clusters {
		pillar := c.PillarURL
		if pillar == "" {
			pillar = "-"
		}
		t.AppendRow(table.Row{c.ID, shorten(c.Label, 30), shorten(pillar, maxCellWidth), len(c.Members)})
	}
	t.Render()
}

// PrintRecommendations renders the first few link recommendations.
func (p *Printer) PrintRecommendations(recs []types.LinkRecommendation) {
	if len(recs) == 0 {
		p.printBox("LINK RECOMMENDATIONS", "No links recommended")
		return
	}

	t := p.newTable()
	t.SetTitle(fmt.Sprintf("LINK RECOMMENDATIONS (%d)", len(recs)))
	t.AppendHeader(table.Row{"Source", "Target", "Anchor", "Score"})
	count := min(len(recs), maxItemsToShow)
	for i := 0; i < count; i++ {
		rec := recs[i]
		t.AppendRow(table.Row{
			shorten(rec.SourceURL, maxCellWidth),
			shorten(rec.TargetURL, maxCellWidth),
			shorten(rec.AnchorText, 30),
			fmt.Sprintf("%.4f", rec.SemanticScore),
		})
	}
	if len(recs) > maxItemsToShow {
		t.AppendFooter(table.Row{fmt.Sprintf("... and %d more", len(recs)-maxItemsToShow)})
	}
	t.Render()
}

// PrintReport outputs the run summary followed by any warnings and errors.
func (p *Printer) PrintReport(report *types.LinkReport) {
	if report == nil {
		return
	}

	status := "✅ SUCCESS"
	if !report.Success {
		status = "❌ FAILED"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Status:        %s\n", status))
	sb.WriteString(fmt.Sprintf("Site:          %s\n", report.Site))
	sb.WriteString(fmt.Sprintf("Pages crawled: %d\n", report.TotalPagesCrawled))
	sb.WriteString(fmt.Sprintf("Usable pages:  %d\n", report.UsablePages))
	sb.WriteString(fmt.Sprintf("Clusters:      %d\n", report.NumClusters))
	sb.WriteString(fmt.Sprintf("Quality:       %.4f\n", report.QualityScore))
	sb.WriteString(fmt.Sprintf("Links:         %d\n", report.NumLinksRecommended))
	sb.WriteString(fmt.Sprintf("Elapsed:       %.2fs", report.ExecutionTimeSeconds))
	p.printBox("RUN SUMMARY", sb.String())

	p.PrintProblems(report.Warnings, report.Errors)
}

// PrintProblems outputs warnings and errors, or a single all-clear line when there are none.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintProblems(warnings, errs []string) {
	if len(warnings) == 0 && len(errs) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ NO WARNINGS OR ERRORS")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	for _, w := range warnings {
		sb.WriteString(fmt.Sprintf("⚠ %s\n", w))
	}
	count := min(len(errs), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("✗ %s\n", errs[i]))
	}
	if len(errs) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more errors\n", len(errs)-maxItemsToShow))
	}

	p.printBox(fmt.Sprintf("WARNINGS (%d) / ERRORS (%d)", len(warnings), len(errs)), strings.TrimSuffix(sb.String(), "\n"))
}
