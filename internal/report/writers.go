package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/link-planner/internal/schemas"
	"github.com/jonathan/link-planner/internal/types"
	"github.com/jonathan/link-planner/internal/urlutil"
	reportschema "github.com/jonathan/link-planner/schemas"
)

// Output formats accepted by WriteAll.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

const filenameTimeLayout = "20060102_150405"

// recommendationHeader is the column order of the CSV file and the XLSX sheet.
var recommendationHeader = []string{
	"source_url", "target_url", "anchor_text", "supporting_sentence", "semantic_score", "cluster_id",
}

// Filename builds "{domain}_{timestamp}_{suffix}" for a site, e.g. example.com_20260102_150405_links.csv.
func Filename(site string, at time.Time, suffix string) string {
	domain := urlutil.Host(site)
	if domain == "" {
		domain = "site"
	}
	domain = strings.ReplaceAll(domain, ":", "_")
	return fmt.Sprintf("%s_%s_%s", domain, at.Format(filenameTimeLayout), suffix)
}

func suffixFor(format string) string {
	switch format {
	case FormatCSV:
		return "links.csv"
	case FormatXLSX:
		return "links.xlsx"
	default:
		return "report.json"
	}
}

// WriteAll writes the report in every requested format into dir and returns the paths written.
// Formats are written concurrently; the first failure is returned.
func WriteAll(ctx context.Context, dir string, formats []string, report *types.LinkReport) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	at, err := time.Parse(time.RFC3339, report.Timestamp)
	if err != nil {
		at = time.Now().UTC()
	}

	writers := make([]func(string, *types.LinkReport) error, len(formats))
	for i, format := range formats {
		switch format {
		case FormatCSV:
			writers[i] = WriteCSV
		case FormatJSON:
			writers[i] = WriteJSON
		case FormatXLSX:
			writers[i] = WriteXLSX
		default:
			return nil, fmt.Errorf("unsupported output format %q", format)
		}
	}

	paths := make([]string, len(formats))
	g, _ := errgroup.WithContext(ctx)
	for i, format := range formats {
		path := filepath.Join(dir, Filename(report.Site, at, suffixFor(format)))
		paths[i] = path
		write := writers[i]
		g.Go(func() error {
			return write(path, report)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// WriteCSV writes one row per recommendation.
func WriteCSV(path string, report *types.LinkReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	if err := EncodeCSV(f, report.Recommendations); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// EncodeCSV writes the CSV header and one row per recommendation to w.
func EncodeCSV(w io.Writer, recs []types.LinkRecommendation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(recommendationHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, rec := range recs {
		if err := cw.Write(recommendationRow(rec)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

func recommendationRow(rec types.LinkRecommendation) []string {
	return []string{
		rec.SourceURL,
		rec.TargetURL,
		rec.AnchorText,
		rec.SupportingSentence,
		strconv.FormatFloat(rec.SemanticScore, 'f', 4, 64),
		strconv.Itoa(rec.ClusterID),
	}
}

// WriteJSON writes the full report as indented JSON after validating it against the report schema.
func WriteJSON(path string, report *types.LinkReport) error {
	data, err := MarshalJSON(report)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	return nil
}

// MarshalJSON serializes and schema-validates a report.
func MarshalJSON(report *types.LinkReport) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report to JSON: %w", err)
	}
	if err := schemas.ValidateJSONString(reportschema.LinkReport, string(data)); err != nil {
		return nil, fmt.Errorf("report does not match schema: %w", err)
	}
	return data, nil
}

// WriteXLSX writes a workbook with Recommendations, Clusters and Summary sheets.
func WriteXLSX(path string, report *types.LinkReport) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const recSheet = "Recommendations"
	if err := f.SetSheetName("Sheet1", recSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	rows := make([][]any, 0, len(report.Recommendations)+1)
	rows = append(rows, toRow(recommendationHeader))
	for _, rec := range report.Recommendations {
		rows = append(rows, []any{rec.SourceURL, rec.TargetURL, rec.AnchorText, rec.SupportingSentence, rec.SemanticScore, rec.ClusterID})
	}
	if err := writeRows(f, recSheet, rows); err != nil {
		return err
	}

	clusterRows := [][]any{{"id", "label", "pillar_url", "members"}}
	for _, c := range report.Clusters {
		clusterRows = append(clusterRows, []any{c.ID, c.Label, c.PillarURL, len(c.Members)})
	}
	if err := writeNewSheet(f, "Clusters", clusterRows); err != nil {
		return err
	}

	summary := [][]any{
		{"run_id", report.RunID},
		{"site", report.Site},
		{"timestamp", report.Timestamp},
		{"success", report.Success},
		{"total_pages_crawled", report.TotalPagesCrawled},
		{"usable_pages", report.UsablePages},
		{"num_clusters", report.NumClusters},
		{"quality_score", report.QualityScore},
		{"num_links_recommended", report.NumLinksRecommended},
		{"execution_time_seconds", report.ExecutionTimeSeconds},
	}
	for _, w := range report.Warnings {
		summary = append(summary, []any{"warning", w})
	}
	for _, e := range report.Errors {
		summary = append(summary, []any{"error", e})
	}
	if err := writeNewSheet(f, "Summary", summary); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save XLSX file: %w", err)
	}
	return nil
}

func writeNewSheet(f *excelize.File, sheet string, rows [][]any) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}
	return writeRows(f, sheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return fmt.Errorf("failed to compute cell name: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to set %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}

func toRow(values []string) []any {
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}
