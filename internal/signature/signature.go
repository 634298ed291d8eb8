// Package signature fingerprints the aggregate shape of a normalized dataset.
package signature

import (
	"encoding/hex"
	"sort"
	"strconv"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/KaramelBytes/ledgerloom/internal/dataset"
	"github.com/KaramelBytes/ledgerloom/internal/schema"
)

// Signature is a 32 character hex digest.
type Signature string

// Shape holds the statistics a signature is computed from.
type Shape struct {
	Rows       int
	FirstDate  time.Time
	LastDate   time.Time
	Total      float64
	Products   []string
	Identities int
}

// Describe extracts the hashed statistics from ds. Row order does not affect
// the result.
func Describe(ds *dataset.Dataset) Shape {
	s := Shape{Rows: ds.Len()}
	if lo, hi, ok := ds.DateRange(schema.FieldDate); ok {
		s.FirstDate, s.LastDate = lo, hi
	}
	amounts := ds.Numbers(schema.FieldTotalAmount)
	sort.Float64s(amounts)
	for _, a := range amounts {
		s.Total += a
	}
	s.Products = ds.Distinct(schema.FieldProductName)
	switch {
	case ds.Has(schema.FieldCustomerEmail):
		s.Identities = len(ds.Distinct(schema.FieldCustomerEmail))
	case ds.Has(schema.FieldCustomerID):
		s.Identities = len(ds.Distinct(schema.FieldCustomerID))
	}
	return s
}

// Compute returns the signature of ds. Datasets with equal shapes share a
// signature even when individual rows differ.
func Compute(ds *dataset.Dataset) Signature {
	return Describe(ds).Sum()
}

// Sum hashes the shape.
func (s Shape) Sum() Signature {
	h := xxh3.New()
	write := func(tag, v string) {
		_, _ = h.WriteString(tag)
		_, _ = h.WriteString("=")
		_, _ = h.WriteString(v)
		_, _ = h.WriteString("\x00")
	}
	write("rows", strconv.Itoa(s.Rows))
	write("from", stamp(s.FirstDate))
	write("to", stamp(s.LastDate))
	write("total", strconv.FormatFloat(s.Total, 'f', 6, 64))
	for _, p := range s.Products {
		write("product", p)
	}
	write("identities", strconv.Itoa(s.Identities))
	sum := h.Sum128().Bytes()
	return Signature(hex.EncodeToString(sum[:]))
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
