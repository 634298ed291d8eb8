// Package report summarizes normalized exports and renders analysis output.
package report

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/ledgerloom/internal/dataset"
	"github.com/KaramelBytes/ledgerloom/internal/schema"
)

// Fee model applied to storefront exports.
const (
	PlatformFeeRate   = 0.10
	ProcessorFeeRate  = 0.029
	ProcessorFeePerTx = 0.30
)

// ErrUnknownSource is returned for exports that are neither storefront nor
// processor data.
var ErrUnknownSource = errors.New("unknown export source")

// ProductSales aggregates paid rows of one product.
type ProductSales struct {
	Name    string  `json:"name"`
	Revenue float64 `json:"revenue"`
	Units   int     `json:"units"`
}

// PaymentSummary is the money view of one export.
type PaymentSummary struct {
	Source        string         `json:"source"`
	TotalRevenue  float64        `json:"total_revenue"`
	TotalFees     float64        `json:"total_fees"`
	TotalRefunded float64        `json:"total_refunded,omitempty"`
	NetProfit     float64        `json:"net_profit"`
	RefundCount   int            `json:"refund_count"`
	Products      []ProductSales `json:"products"`
}

// Summarize computes the payment summary for a dataset of the given source
// format.
func Summarize(ds *dataset.Dataset, source string) (*PaymentSummary, error) {
	switch source {
	case schema.SourceStan:
		return summarizeStorefront(ds), nil
	case schema.SourceStripe:
		return summarizeProcessor(ds), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
}

// paid reports whether a status counts as revenue. Blank statuses do not.
// Exports without a status column are treated as fully paid by the caller.
func paid(v dataset.Value) bool {
	switch strings.ToLower(strings.TrimSpace(v.Text())) {
	case "paid", "succeeded":
		return true
	}
	return false
}

func summarizeStorefront(ds *dataset.Dataset) *PaymentSummary {
	s := &PaymentSummary{Source: "Stan Store", Products: []ProductSales{}}
	byName := map[string]*ProductSales{}
	hasStatus := ds.Has(schema.FieldPaymentStatus)
	units := 0
	for i := 0; i < ds.Len(); i++ {
		if hasStatus && !paid(ds.Value(i, schema.FieldPaymentStatus)) {
			s.RefundCount++
			continue
		}
		amount, _ := ds.Value(i, schema.FieldTotalAmount).Float()
		qty := 1
		if q, ok := ds.Value(i, schema.FieldQuantity).Float(); ok {
			qty = int(q)
		}
		name := ds.Value(i, schema.FieldProductName).Text()
		if name == "" {
			name = "Unknown"
		}
		p, ok := byName[name]
		if !ok {
			p = &ProductSales{Name: name}
			byName[name] = p
		}
		p.Revenue += amount
		p.Units += qty
		s.TotalRevenue += amount
		units += qty
	}
	fees := s.TotalRevenue*PlatformFeeRate + s.TotalRevenue*ProcessorFeeRate + ProcessorFeePerTx*float64(units)
	s.TotalFees = round2(fees)
	s.NetProfit = round2(s.TotalRevenue - fees)
	s.TotalRevenue = round2(s.TotalRevenue)
	for _, p := range byName {
		p.Revenue = round2(p.Revenue)
		s.Products = append(s.Products, *p)
	}
	sort.Slice(s.Products, func(i, j int) bool {
		if s.Products[i].Revenue != s.Products[j].Revenue {
			return s.Products[i].Revenue > s.Products[j].Revenue
		}
		return s.Products[i].Name < s.Products[j].Name
	})
	return s
}

// summarizeProcessor converts processor amounts from cents.
func summarizeProcessor(ds *dataset.Dataset) *PaymentSummary {
	amountField := schema.FieldAmount
	if !ds.Has(amountField) {
		amountField = schema.FieldTotalAmount
	}
	netField := schema.FieldNet
	if !ds.Has(netField) {
		netField = schema.FieldNetAmount
	}
	cents := func(i int, field string) float64 {
		v, _ := ds.Value(i, field).Float()
		return v / 100
	}
	s := &PaymentSummary{Source: "Stripe", Products: []ProductSales{}}
	var net float64
	for i := 0; i < ds.Len(); i++ {
		refunded := cents(i, schema.FieldAmountRefunded)
		s.TotalRevenue += cents(i, amountField)
		s.TotalRefunded += refunded
		s.TotalFees += cents(i, schema.FieldFee)
		net += cents(i, netField)
		if refunded > 0 {
			s.RefundCount++
		}
	}
	s.TotalRevenue = round2(s.TotalRevenue)
	s.TotalRefunded = round2(s.TotalRefunded)
	s.TotalFees = round2(s.TotalFees)
	s.NetProfit = round2(net)
	return s
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
