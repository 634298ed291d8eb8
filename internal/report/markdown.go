package report

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/ledgerloom/internal/analytics"
	"github.com/KaramelBytes/ledgerloom/internal/schema"
)

// Document is everything one analyze run produces.
type Document struct {
	Name     string                `json:"file,omitempty"`
	Mapping  *schema.MappingReport `json:"mapping"`
	Payments []*PaymentSummary     `json:"payments,omitempty"`
	Results  *analytics.Results    `json:"analytics,omitempty"`
}

// Markdown renders the document as plain sections.
func (d *Document) Markdown() string {
	var b strings.Builder
	if d.Mapping != nil {
		b.WriteString(Mapping(d.Name, d.Mapping))
	}
	for _, p := range d.Payments {
		b.WriteString("\n")
		b.WriteString(Payments(p))
	}
	if d.Results != nil {
		b.WriteString("\n")
		b.WriteString(Results(d.Results))
	}
	return b.String()
}

// Mapping renders a mapping report.
func Mapping(name string, rep *schema.MappingReport) string {
	var b strings.Builder
	b.WriteString("[MAPPING REPORT]\n")
	if name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", name))
	}
	b.WriteString(fmt.Sprintf("Format: %s", rep.SourceFormat))
	if rep.Legacy {
		b.WriteString(" (legacy)")
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Rows: %d\n", rep.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d mapped of %d\n", rep.MappedColumns, rep.TotalColumns))
	status := "complete"
	if !rep.Success {
		status = "incomplete"
	}
	b.WriteString(fmt.Sprintf("Status: %s\n\n", status))

	b.WriteString("[HEADERS]\n")
	for _, hm := range rep.Mapped {
		b.WriteString(fmt.Sprintf("- %s -> %s\n", hm.Header, hm.Field))
	}
	for _, h := range rep.Unmapped {
		b.WriteString(fmt.Sprintf("- %s (unmapped)\n", h))
	}
	if len(rep.MissingRequired) > 0 {
		b.WriteString(fmt.Sprintf("Missing required: %s\n", strings.Join(rep.MissingRequired, ", ")))
	}
	if len(rep.Synthesized) > 0 {
		b.WriteString(fmt.Sprintf("Synthesized: %s\n", strings.Join(rep.Synthesized, ", ")))
	}
	if len(rep.Warnings) > 0 {
		b.WriteString("\n[WARNINGS]\n")
		for _, w := range rep.Warnings {
			b.WriteString("- " + w + "\n")
		}
	}
	return b.String()
}

// Payments renders a payment summary.
func Payments(s *PaymentSummary) string {
	var b strings.Builder
	b.WriteString("[PAYMENTS]\n")
	b.WriteString(fmt.Sprintf("Source: %s\n", s.Source))
	b.WriteString(fmt.Sprintf("Revenue: %.2f\n", s.TotalRevenue))
	if s.TotalRefunded > 0 {
		b.WriteString(fmt.Sprintf("Refunded: %.2f\n", s.TotalRefunded))
	}
	b.WriteString(fmt.Sprintf("Fees: %.2f\n", s.TotalFees))
	b.WriteString(fmt.Sprintf("Net profit: %.2f\n", s.NetProfit))
	b.WriteString(fmt.Sprintf("Refunds: %d\n", s.RefundCount))
	for _, p := range s.Products {
		b.WriteString(fmt.Sprintf("- %s: %.2f (%d units)\n", p.Name, p.Revenue, p.Units))
	}
	return b.String()
}

// Results renders the task outputs in run order.
func Results(r *analytics.Results) string {
	var b strings.Builder
	if r.ForecastMeta != nil {
		b.WriteString("[FORECAST]\n")
		writeMeta(&b, r.ForecastMeta)
		for _, p := range r.Forecast {
			b.WriteString(fmt.Sprintf("- %s: %.2f (%.2f..%.2f)\n", p.Date, p.Predicted, p.Lower, p.Upper))
		}
		b.WriteString("\n")
	}
	if r.AnomalyMeta != nil {
		b.WriteString("[ANOMALIES]\n")
		writeMeta(&b, r.AnomalyMeta)
		if len(r.Anomalies) == 0 {
			b.WriteString("- none\n")
		}
		for _, a := range r.Anomalies {
			b.WriteString(fmt.Sprintf("- %s: %s, revenue %.2f over %d orders (score %.3f, %s)\n",
				a.Date, a.Type, a.Revenue, a.Orders, a.Score, a.Severity))
		}
		b.WriteString("\n")
	}
	if r.SegmentMeta != nil {
		b.WriteString("[SEGMENTS]\n")
		writeMeta(&b, r.SegmentMeta)
		for _, s := range r.Segments {
			b.WriteString(fmt.Sprintf("- %s: %d customers (%.1f%%), revenue %.2f, avg spent %.2f, avg recency %.1f days\n",
				s.Name, s.CustomerCount, s.Percentage, s.TotalRevenue, s.AvgTotalSpent, s.AvgRecency))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func writeMeta(b *strings.Builder, m *analytics.Meta) {
	b.WriteString(fmt.Sprintf("Method: %s", m.Method))
	if m.Reason != "" {
		b.WriteString(fmt.Sprintf(" (%s)", m.Reason))
	}
	if m.CacheHit {
		b.WriteString(", cache hit")
	}
	b.WriteString("\n")
	if m.Error != "" {
		b.WriteString(fmt.Sprintf("Error: %s\n", m.Error))
	}
}
