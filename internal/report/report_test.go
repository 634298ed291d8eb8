package report_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/KaramelBytes/ledgerloom/internal/analytics"
	"github.com/KaramelBytes/ledgerloom/internal/report"
	"github.com/KaramelBytes/ledgerloom/internal/schema"
)

func process(t *testing.T, text string) (*report.PaymentSummary, *schema.MappingReport) {
	t.Helper()
	ds, rep, err := schema.New(nil, schema.Options{}).Process(text)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	s, err := report.Summarize(ds, rep.SourceFormat)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	return s, rep
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestSummarizeStorefront(t *testing.T) {
	s, _ := process(t, "Order ID,Date,Product Name,Total Amount,Quantity,Payment Status,Customer ID\n"+
		"o1,2024-01-01,Course,100,1,paid,c1\n"+
		"o2,2024-01-02,Course,50,2,Paid,c2\n"+
		"o3,2024-01-03,Ebook,20,1,refunded,c3\n"+
		"o4,2024-01-04,Ebook,30,1,succeeded,c4\n")
	if s.Source != "Stan Store" {
		t.Fatalf("source = %q", s.Source)
	}
	if !near(s.TotalRevenue, 180) || !near(s.TotalFees, 24.42) || !near(s.NetProfit, 155.58) {
		t.Fatalf("unexpected totals: %+v", s)
	}
	if s.RefundCount != 1 {
		t.Fatalf("refunds = %d", s.RefundCount)
	}
	want := []report.ProductSales{{Name: "Course", Revenue: 150, Units: 3}, {Name: "Ebook", Revenue: 30, Units: 1}}
	if len(s.Products) != len(want) {
		t.Fatalf("products = %+v", s.Products)
	}
	for i := range want {
		if s.Products[i] != want[i] {
			t.Fatalf("product %d = %+v, want %+v", i, s.Products[i], want[i])
		}
	}
}

func TestSummarizeProcessorConvertsCents(t *testing.T) {
	s, rep := process(t, "id,Amount,Amount Refunded,Fee,Net,Status\n"+
		"ch_1,1000,0,59,941,succeeded\n"+
		"ch_2,2500,2500,103,2397,succeeded\n")
	if rep.SourceFormat != schema.SourceStripe {
		t.Fatalf("format = %q", rep.SourceFormat)
	}
	if !near(s.TotalRevenue, 35) || !near(s.TotalRefunded, 25) || !near(s.TotalFees, 1.62) || !near(s.NetProfit, 33.38) {
		t.Fatalf("unexpected totals: %+v", s)
	}
	if s.RefundCount != 1 {
		t.Fatalf("refunds = %d", s.RefundCount)
	}
}

func TestSummarizeUnknownSource(t *testing.T) {
	ds, _, err := schema.New(nil, schema.Options{}).Process("a,b\n1,2\n")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if _, err := report.Summarize(ds, schema.SourceUnknown); !errors.Is(err, report.ErrUnknownSource) {
		t.Fatalf("err = %v", err)
	}
}

func TestDocumentMarkdown(t *testing.T) {
	s, rep := process(t, "Order ID,Date,Product Name,Total Amount,Customer ID,Notes\n"+
		"o1,2024-01-01,Course,100,c1,gift\n")
	doc := &report.Document{
		Name:     "orders.csv",
		Mapping:  rep,
		Payments: []*report.PaymentSummary{s},
		Results: &analytics.Results{
			Forecast:     []analytics.ForecastPoint{{Date: "2024-01-02", Predicted: 130, Lower: 91, Upper: 169}},
			ForecastMeta: &analytics.Meta{Method: "simple_average", Reason: analytics.ReasonInsufficientData},
			AnomalyMeta:  &analytics.Meta{Method: "skipped", Reason: analytics.ReasonInsufficientData},
		},
	}
	out := doc.Markdown()
	for _, want := range []string{
		"[MAPPING REPORT]",
		"File: orders.csv",
		"Format: stan (legacy)",
		"Status: complete",
		"[PAYMENTS]",
		"- Course: 100.00 (1 units)",
		"[FORECAST]",
		"Method: simple_average (insufficient_data)",
		"- 2024-01-02: 130.00 (91.00..169.00)",
		"[ANOMALIES]",
		"- none",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "[SEGMENTS]") {
		t.Fatalf("segments rendered without being requested:\n%s", out)
	}
}

func TestMappingMarkdownIncomplete(t *testing.T) {
	_, rep, err := schema.New(nil, schema.Options{}).Process("amount,email,Notes\n10,a@x.io,hi\n")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	out := report.Mapping("", rep)
	for _, want := range []string{"Status: incomplete", "Missing required: product_name", "- Notes (unmapped)", "Synthesized: customer_id, order_id"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestSummarizeStorefrontBlankStatusIsRefund(t *testing.T) {
	s, _ := process(t, "Order ID,Date,Product Name,Total Amount,Customer ID,Payment Status\n"+
		"o1,2024-01-01,Course,100,c1,paid\n"+
		"o2,2024-01-02,Course,50,c2,\n")
	if s.RefundCount != 1 || !near(s.TotalRevenue, 100) {
		t.Fatalf("blank status should count as refund: %+v", s)
	}

	s, _ = process(t, "Order ID,Date,Product Name,Total Amount,Customer ID\n"+
		"o1,2024-01-01,Course,100,c1\n"+
		"o2,2024-01-02,Course,50,c2\n")
	if s.RefundCount != 0 || !near(s.TotalRevenue, 150) {
		t.Fatalf("rows without a status column should count as paid: %+v", s)
	}
}
