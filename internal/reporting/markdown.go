package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Northbound Factor Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Instrument: %s | Variant: %s\n\n", r.Parameters.Instrument, r.Parameters.Variant))

	// Run Parameters
	sb.WriteString("## Run Parameters\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Start Date | %s |\n", r.Parameters.StartDate))
	sb.WriteString(fmt.Sprintf("| End Date | %s |\n", r.Parameters.EndDate))
	for _, p := range r.Parameters.Rules {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", p.Name, formatFloat(p.Value)))
	}
	if r.Parameters.Adjuster != "" {
		sb.WriteString(fmt.Sprintf("| Adjuster | %s |\n", r.Parameters.Adjuster))
	}
	sb.WriteString("\n")

	// Data Summary
	s := r.Summary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Rows | %d |\n", s.TotalRows))
	sb.WriteString(fmt.Sprintf("| Rows With Factor | %d |\n", s.RowsWithFactor))
	sb.WriteString(fmt.Sprintf("| Rows With Futures | %d |\n", s.RowsWithFutures))
	sb.WriteString(fmt.Sprintf("| Rows With North Flow | %d |\n", s.RowsWithFlow))
	sb.WriteString(fmt.Sprintf("| Gap Dates | %d |\n", s.GapDates))
	if s.TotalRows > 0 {
		sb.WriteString(fmt.Sprintf("| First Date | %s |\n", s.FirstDate))
		sb.WriteString(fmt.Sprintf("| Last Date | %s |\n", s.LastDate))
	}
	sb.WriteString("\n")

	// Signal Distribution
	sb.WriteString("## Signal Distribution\n\n")
	sb.WriteString("| Signal | Count | Share |\n")
	sb.WriteString("|--------|-------|-------|\n")
	for _, d := range r.Distribution {
		sb.WriteString(fmt.Sprintf("| %s | %d | %.2f%% |\n", d.Signal, d.Count, d.Share*100))
	}
	sb.WriteString("\n")

	// Data Gaps
	sb.WriteString("## Data Gaps\n\n")
	if len(r.Gaps) > 0 {
		sb.WriteString("Rows are kept; these dates classify as HOLD under the joint variant.\n\n")
		sb.WriteString("| Date | Reason |\n")
		sb.WriteString("|------|--------|\n")
		for _, g := range r.Gaps {
			sb.WriteString(fmt.Sprintf("| %s | %s |\n", g.Date, g.Reason))
		}
	} else {
		sb.WriteString("No data gaps.\n")
	}
	sb.WriteString("\n")

	// Transitions
	sb.WriteString("## Signal Transitions\n\n")
	if len(r.Transitions) > 0 {
		sb.WriteString("| Date | From | To |\n")
		sb.WriteString("|------|------|----|\n")
		for _, t := range r.Transitions {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", t.Date, t.From, t.To))
		}
	} else {
		sb.WriteString("No signal transitions.\n")
	}
	sb.WriteString("\n")

	// Reproducibility
	sb.WriteString("## Reproducibility\n\n")
	if r.RunID != "" {
		sb.WriteString(fmt.Sprintf("Run ID: `%s`\n\n", r.RunID))
	}
	if len(r.Inputs) > 0 {
		sb.WriteString("| Input | Path | SHA256 |\n")
		sb.WriteString("|-------|------|--------|\n")
		for _, in := range r.Inputs {
			sb.WriteString(fmt.Sprintf("| %s | %s | `%s` |\n", in.Name, in.Path, in.SHA256))
		}
	} else {
		sb.WriteString("No input digests recorded.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
