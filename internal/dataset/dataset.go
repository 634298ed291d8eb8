// Package dataset holds the normalized record set produced by schema mapping.
//
// A Dataset is immutable once built: every derivation returns a new Dataset
// that shares no row maps with its source.
package dataset

import (
	"fmt"
	"sort"
	"time"
)

// Record maps a field name to its typed value.
type Record map[string]Value

// Dataset is an ordered set of records that all expose the same fields.
type Dataset struct {
	fields []string
	rows   []Record
}

// New builds a dataset from field names and rows. Missing fields in a row are
// filled with null so every row exposes the same field set.
func New(fields []string, rows []Record) *Dataset {
	fs := make([]string, len(fields))
	copy(fs, fields)
	out := make([]Record, len(rows))
	for i, r := range rows {
		rec := make(Record, len(fs))
		for _, f := range fs {
			rec[f] = r[f]
		}
		out[i] = rec
	}
	return &Dataset{fields: fs, rows: out}
}

// Fields returns the field names in column order.
func (d *Dataset) Fields() []string {
	out := make([]string, len(d.fields))
	copy(out, d.fields)
	return out
}

// Has reports whether the dataset exposes the field.
func (d *Dataset) Has(field string) bool {
	for _, f := range d.fields {
		if f == field {
			return true
		}
	}
	return false
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.rows) }

// Value returns the cell at row i for field.
func (d *Dataset) Value(i int, field string) Value {
	if i < 0 || i >= len(d.rows) {
		return Null()
	}
	return d.rows[i][field]
}

// Row returns a copy of row i.
func (d *Dataset) Row(i int) Record {
	src := d.rows[i]
	rec := make(Record, len(src))
	for k, v := range src {
		rec[k] = v
	}
	return rec
}

// Column returns a copy of all values of a field in row order.
func (d *Dataset) Column(field string) []Value {
	out := make([]Value, len(d.rows))
	for i, r := range d.rows {
		out[i] = r[field]
	}
	return out
}

// WithColumn returns a copy of the dataset where field holds vals. The field
// is appended when absent and replaced in place otherwise.
func (d *Dataset) WithColumn(field string, vals []Value) (*Dataset, error) {
	if len(vals) != len(d.rows) {
		return nil, fmt.Errorf("column %s: got %d values for %d rows", field, len(vals), len(d.rows))
	}
	fields := d.Fields()
	if !d.Has(field) {
		fields = append(fields, field)
	}
	rows := make([]Record, len(d.rows))
	for i := range d.rows {
		rec := d.Row(i)
		rec[field] = vals[i]
		rows[i] = rec
	}
	return &Dataset{fields: fields, rows: rows}, nil
}

// Map returns a copy of the dataset with fn applied to every value of field.
func (d *Dataset) Map(field string, fn func(i int, v Value) Value) *Dataset {
	vals := d.Column(field)
	for i, v := range vals {
		vals[i] = fn(i, v)
	}
	out, _ := d.WithColumn(field, vals)
	return out
}

// Equal reports whether two datasets hold the same fields and values.
func (d *Dataset) Equal(o *Dataset) bool {
	if d.Len() != o.Len() || len(d.fields) != len(o.fields) {
		return false
	}
	for i, f := range d.fields {
		if o.fields[i] != f {
			return false
		}
	}
	for i := range d.rows {
		for _, f := range d.fields {
			if !d.rows[i][f].Equal(o.rows[i][f]) {
				return false
			}
		}
	}
	return true
}

// Records returns copies of all rows, for encoding.
func (d *Dataset) Records() []Record {
	out := make([]Record, len(d.rows))
	for i := range d.rows {
		out[i] = d.Row(i)
	}
	return out
}

// Numbers returns the non-null numeric values of field.
func (d *Dataset) Numbers(field string) []float64 {
	var out []float64
	for _, r := range d.rows {
		if f, ok := r[field].Float(); ok {
			out = append(out, f)
		}
	}
	return out
}

// DateRange returns the earliest and latest timestamps in field.
func (d *Dataset) DateRange(field string) (lo, hi time.Time, ok bool) {
	for _, r := range d.rows {
		t, isTime := r[field].Date()
		if !isTime {
			continue
		}
		if !ok || t.Before(lo) {
			lo = t
		}
		if !ok || t.After(hi) {
			hi = t
		}
		ok = true
	}
	return lo, hi, ok
}

// Distinct returns the sorted distinct non-null texts of field.
func (d *Dataset) Distinct(field string) []string {
	seen := map[string]struct{}{}
	for _, r := range d.rows {
		v := r[field]
		if v.IsNull() {
			continue
		}
		seen[v.Text()] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Day truncates a timestamp to its calendar day in its own location.
func Day(t time.Time) time.Time {
	y, m, dd := t.Date()
	return time.Date(y, m, dd, 0, 0, 0, 0, t.Location())
}
