package domain

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/jakechild/sleuth/internal/adapter"
	"github.com/jakechild/sleuth/internal/domain/metrics"
	m "github.com/jakechild/sleuth/internal/model"
)

// ReportFormat selects the report serialisation.
type ReportFormat string

// Supported report formats.
const (
	FormatCSV      ReportFormat = "csv"
	FormatMarkdown ReportFormat = "markdown"
)

// DefaultReportBase names the report written when no explicit path is
// given; the format's extension is appended.
const DefaultReportBase = "suspiciousness_report"

// ParseFormat resolves a user-supplied format name.
func ParseFormat(name string) (ReportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}

	return "", fmt.Errorf("unknown report format %q", name)
}

// Ext returns the file extension for the format.
func (f ReportFormat) Ext() string {
	if f == FormatMarkdown {
		return ".md"
	}

	return ".csv"
}

// metricColumns is the fixed column order shared by both formats.
var metricColumns = []string{
	metrics.TarantulaName,
	metrics.OchiaiName,
	metrics.DStarName,
	metrics.Op2Name,
	metrics.JaccardName,
}

// Reporter materialises ranked rows to disk.
type Reporter struct {
	fs adapter.SourceFSAdapter
}

// NewReporter constructs a Reporter.
func NewReporter(fs adapter.SourceFSAdapter) *Reporter {
	return &Reporter{fs: fs}
}

// Write renders rows in the given format and writes them atomically so
// a crash never leaves a truncated report behind.
func (r *Reporter) Write(path m.Path, format ReportFormat, rows []m.Row) error {
	var content []byte

	if format == FormatMarkdown {
		content = RenderMarkdown(rows)
	} else {
		content = RenderCSV(rows)
	}

	if err := r.fs.WriteFileAtomic(path, content, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}

	return nil
}

// RenderCSV serialises rows as CSV. Fields with commas, quotes or
// newlines are quoted with doubled internal quotes; undefined scores
// are empty fields.
func RenderCSV(rows []m.Row) []byte {
	var buf bytes.Buffer

	w := csv.NewWriter(&buf)

	header := append([]string{"sid", "file", "line", "snippet"}, metricColumns...)
	_ = w.Write(header)

	for _, row := range rows {
		record := []string{
			string(row.Statement.ID.Key()),
			string(row.Statement.File),
			strconv.Itoa(row.Statement.Line),
			row.Statement.Snippet,
		}

		for _, name := range metricColumns {
			record = append(record, row.Scores[name].Format(""))
		}

		_ = w.Write(record)
	}

	w.Flush()

	return buf.Bytes()
}

// RenderMarkdown serialises rows as a pipe table with "-" for
// undefined scores.
func RenderMarkdown(rows []m.Row) []byte {
	var buf bytes.Buffer

	header := append([]string{"sid", "file", "line", "snippet"}, metricColumns...)

	buf.WriteString("| " + strings.Join(header, " | ") + " |\n")

	separator := make([]string, len(header))
	for i := range separator {
		separator[i] = "---"
	}

	buf.WriteString("| " + strings.Join(separator, " | ") + " |\n")

	for _, row := range rows {
		cells := []string{
			string(row.Statement.ID.Key()),
			escapeMarkdownCell(string(row.Statement.File)),
			strconv.Itoa(row.Statement.Line),
			escapeMarkdownCell(row.Statement.Snippet),
		}

		for _, name := range metricColumns {
			cells = append(cells, row.Scores[name].Format("-"))
		}

		buf.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}

	return buf.Bytes()
}

func escapeMarkdownCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
