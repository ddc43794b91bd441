package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Vodeneev/tipstrr-export/internal/pkg/models"
)

// Export represents the export format
type Export struct {
	Timestamp    string          `json:"timestamp"`
	Tipster      string          `json:"tipster"`
	TotalRecords int             `json:"total_records"`
	Failed       int             `json:"failed"`
	Records      []models.Record `json:"records"`
}

// Files lists the artifacts produced by WriteFiles.
type Files struct {
	Table string
	CSV   string
	JSON  string
}

// Fixed column order of the tabular artifacts.
var columns = []string{
	"event_date", "event_time", "home_team", "away_team", "match",
	"market", "bet", "odds", "result", "profit", "original_profit",
	"sport", "league", "raw_result_code", "reference",
}

// Exporter writes the record sequence as a rendered table, a CSV mirror and a
// raw JSON dump, all timestamped, into the output directory.
type Exporter struct {
	outputDir string
}

// NewExporter creates a new exporter
func NewExporter(outputDir string) *Exporter {
	if outputDir == "" {
		outputDir = "."
	}
	return &Exporter{outputDir: outputDir}
}

// ExportRecords wraps the record sequence into the export format.
func (e *Exporter) ExportRecords(tipster string, records []models.Record, failed int) *Export {
	return &Export{
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Tipster:      tipster,
		TotalRecords: len(records),
		Failed:       failed,
		Records:      records,
	}
}

// ExportToJSON renders the raw record dump.
func (e *Exporter) ExportToJSON(export *Export) ([]byte, error) {
	return json.MarshalIndent(export, "", "  ")
}

// ExportToCSV renders the records in the fixed column order. The output is
// prefixed with a UTF-8 BOM so spreadsheet imports pick up the encoding.
func (e *Exporter) ExportToCSV(records []models.Record) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("\xEF\xBB\xBF")

	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		if err := w.Write(recordRow(r)); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderTable renders the records as a text table in the fixed column order.
func (e *Exporter) RenderTable(records []models.Record) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)

	header := make(table.Row, 0, len(columns))
	for _, c := range columns {
		header = append(header, c)
	}
	t.AppendHeader(header)

	for _, r := range records {
		row := make(table.Row, 0, len(columns))
		for _, cell := range recordRow(r) {
			row = append(row, cell)
		}
		t.AppendRow(row)
	}
	return t.Render()
}

func recordRow(r models.Record) []string {
	return []string{
		r.EventDate,
		r.EventTime,
		r.HomeTeam,
		r.AwayTeam,
		r.Match,
		r.Market,
		r.Bet,
		r.Odds,
		r.Result,
		strconv.FormatFloat(r.Profit, 'f', -1, 64),
		r.OriginalProfit,
		r.Sport,
		r.League,
		strconv.Itoa(r.RawResultCode),
		r.Reference,
	}
}

// WriteFiles writes the table, CSV and JSON artifacts with a shared timestamp
// in their names and returns the paths.
func (e *Exporter) WriteFiles(export *Export) (Files, error) {
	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return Files{}, fmt.Errorf("create output dir: %w", err)
	}

	ts := time.Now().Format("20060102_150405")
	files := Files{
		Table: filepath.Join(e.outputDir, fmt.Sprintf("tipstrr_results_%s.txt", ts)),
		CSV:   filepath.Join(e.outputDir, fmt.Sprintf("tipstrr_results_%s.csv", ts)),
		JSON:  filepath.Join(e.outputDir, fmt.Sprintf("tipstrr_data_%s.json", ts)),
	}

	if err := os.WriteFile(files.Table, []byte(e.RenderTable(export.Records)+"\n"), 0644); err != nil {
		return Files{}, fmt.Errorf("write table file: %w", err)
	}

	csvData, err := e.ExportToCSV(export.Records)
	if err != nil {
		return Files{}, err
	}
	if err := os.WriteFile(files.CSV, csvData, 0644); err != nil {
		return Files{}, fmt.Errorf("write csv file: %w", err)
	}

	jsonData, err := e.ExportToJSON(export)
	if err != nil {
		return Files{}, fmt.Errorf("marshal export: %w", err)
	}
	if err := os.WriteFile(files.JSON, jsonData, 0644); err != nil {
		return Files{}, fmt.Errorf("write json file: %w", err)
	}

	return files, nil
}

// BuildSummary builds the end-of-run report: result distribution, total
// recomputed profit against the site's own total.
func (e *Exporter) BuildSummary(export *Export) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "=== Tipstrr Export Summary ===\n")
	fmt.Fprintf(&buf, "Tipster: %s\n", export.Tipster)
	fmt.Fprintf(&buf, "Records: %d, Failed: %d\n", export.TotalRecords, export.Failed)

	if len(export.Records) == 0 {
		return buf.String()
	}

	resultCounts := make(map[string]int)
	var totalProfit, totalOriginal float64
	for _, r := range export.Records {
		resultCounts[r.Result]++
		totalProfit += r.Profit
		if v, err := strconv.ParseFloat(r.OriginalProfit, 64); err == nil {
			totalOriginal += v
		}
	}

	results := make([]string, 0, len(resultCounts))
	for result := range resultCounts {
		results = append(results, result)
	}
	sort.Strings(results)

	fmt.Fprintf(&buf, "\nResults:\n")
	for _, result := range results {
		count := resultCounts[result]
		fmt.Fprintf(&buf, "  %s: %d (%.1f%%)\n", result, count, float64(count)/float64(len(export.Records))*100)
	}

	fmt.Fprintf(&buf, "\nTotal profit (recomputed): %.2f\n", totalProfit)
	fmt.Fprintf(&buf, "Total profit (site):       %.2f\n", totalOriginal)
	fmt.Fprintf(&buf, "Difference:                %.2f\n", totalProfit-totalOriginal)
	return buf.String()
}

// PrintSummary prints the end-of-run report to stdout.
func (e *Exporter) PrintSummary(export *Export) {
	fmt.Print(e.BuildSummary(export))
}
