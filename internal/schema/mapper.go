// Package schema reconciles arbitrarily named sales and payment exports with
// the fixed internal field set.
package schema

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/KaramelBytes/ledgerloom/internal/dataset"
)

// Options controls how raw text is read.
type Options struct {
	// StrictQuotes rejects bare quotes inside unquoted fields instead of
	// reading them literally.
	StrictQuotes bool
	// Fields overrides the alias table. Nil means DefaultFields.
	Fields []FieldMapping
}

// Mapper turns raw export text into a normalized dataset.
type Mapper struct {
	fields []FieldMapping
	strict bool
	logger *zap.Logger
}

// New returns a Mapper. A nil logger discards output.
func New(logger *zap.Logger, opt Options) *Mapper {
	if logger == nil {
		logger = zap.NewNop()
	}
	fields := opt.Fields
	if fields == nil {
		fields = DefaultFields
	}
	return &Mapper{fields: fields, strict: opt.StrictQuotes, logger: logger.Named("schema")}
}

// RawTable is the literal parse of an upload.
type RawTable struct {
	Header []string
	Rows   [][]string
}

// Column returns the raw cells of the column at idx. An index outside the
// header yields empty cells.
func (t *RawTable) Column(idx int) []string {
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		if idx >= 0 && idx < len(r) {
			out[i] = r[idx]
		}
	}
	return out
}

// ReadTable parses CSV text. Short rows are padded; header cells are trimmed
// and stripped of quote characters.
func (m *Mapper) ReadTable(text string) (*RawTable, error) {
	text = strings.TrimPrefix(text, "\ufeff")
	if strings.TrimSpace(text) == "" {
		return nil, &MalformedInputError{Err: errors.New("empty input")}
	}
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = !m.strict

	header, err := r.Read()
	if err != nil {
		return nil, &MalformedInputError{Line: 1, Err: fmt.Errorf("read header: %w", err)}
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.ReplaceAll(h, `"`, ""))
	}
	t := &RawTable{Header: header}
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			line := 0
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.StartLine
			}
			return nil, &MalformedInputError{Line: line, Err: err}
		}
		if len(rec) > len(header) {
			line, _ := r.FieldPos(0)
			return nil, &MalformedInputError{Line: line, Err: fmt.Errorf("expected %d fields, saw %d", len(header), len(rec))}
		}
		if len(rec) < len(header) {
			tmp := make([]string, len(header))
			copy(tmp, rec)
			rec = tmp
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// MapHeaders maps each raw header onto the first canonical field whose alias
// set accepts it. Headers that match nothing are returned as unmapped.
func (m *Mapper) MapHeaders(headers []string) ([]HeaderMapping, []string) {
	var mapping []HeaderMapping
	var unmapped []string
	for _, h := range headers {
		if fm, ok := lookup(m.fields, h); ok {
			mapping = append(mapping, HeaderMapping{Header: h, Field: fm.Name})
			continue
		}
		unmapped = append(unmapped, h)
	}
	return mapping, unmapped
}

// IsLegacyFormat reports whether headers already carry the canonical display
// names verbatim.
func (m *Mapper) IsLegacyFormat(headers []string) bool {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	for _, name := range legacyRequired {
		if !present[name] {
			return false
		}
	}
	return true
}

// Process repairs, parses and normalizes raw export text. Only unparsable
// input is an error; missing fields and coercion problems are reported.
func (m *Mapper) Process(raw string) (*dataset.Dataset, *MappingReport, error) {
	table, err := m.ReadTable(RepairStructure(raw))
	if err != nil {
		return nil, nil, err
	}
	if m.IsLegacyFormat(table.Header) {
		m.logger.Debug("legacy format detected, using direct mapping")
		ds, rep := m.processLegacy(table)
		return ds, rep, nil
	}
	ds, rep := m.processMapped(table)
	return ds, rep, nil
}

// processLegacy handles exports that already use display names. Alias
// matching, repair of fields and synthesis are skipped; known display names
// are renamed to their canonical field so downstream tasks see one schema.
func (m *Mapper) processLegacy(t *RawTable) (*dataset.Dataset, *MappingReport) {
	rep := &MappingReport{
		SourceFormat:    SourceStan,
		OriginalHeaders: append([]string(nil), t.Header...),
		Unmapped:        []string{},
		MissingRequired: []string{},
		Legacy:          true,
		TotalColumns:    len(t.Header),
		MappedColumns:   len(t.Header),
	}
	names := make([]string, len(t.Header))
	for i, h := range t.Header {
		rep.Mapped = append(rep.Mapped, HeaderMapping{Header: h, Field: h})
		names[i] = h
		if canon, ok := legacyDisplayNames[h]; ok {
			names[i] = canon
		}
	}
	ds := m.CoerceTypes(m.build(t, names, rep))
	rep.MissingRequired = append(rep.MissingRequired, m.ValidateRequired(ds)...)
	rep.Success = len(rep.MissingRequired) == 0
	rep.Rows = ds.Len()
	return ds, rep
}

func (m *Mapper) processMapped(t *RawTable) (*dataset.Dataset, *MappingReport) {
	mapping, unmapped := m.MapHeaders(t.Header)
	rep := &MappingReport{
		OriginalHeaders: append([]string(nil), t.Header...),
		Mapped:          mapping,
		Unmapped:        unmapped,
		TotalColumns:    len(t.Header),
		MappedColumns:   len(mapping),
	}
	if rep.Unmapped == nil {
		rep.Unmapped = []string{}
	}
	names := make([]string, len(t.Header))
	for i, h := range t.Header {
		names[i] = h
		for _, hm := range mapping {
			if hm.Header == h {
				names[i] = hm.Field
				break
			}
		}
	}
	ds := m.build(t, names, rep)
	ds = m.CoerceTypes(ds)
	ds = m.DetectCombinedDateTime(ds)
	ds, rep.Synthesized = m.SynthesizeMissingFields(ds, mapping, t)
	rep.MissingRequired = m.ValidateRequired(ds)
	if rep.MissingRequired == nil {
		rep.MissingRequired = []string{}
	}
	rep.SourceFormat = DetectSourceFormat(mapping)
	rep.Success = len(rep.MissingRequired) == 0
	rep.Rows = ds.Len()
	return ds, rep
}

// build turns raw cells into a text-valued dataset. When two columns resolve
// to the same field the first one wins.
func (m *Mapper) build(t *RawTable, names []string, rep *MappingReport) *dataset.Dataset {
	var fields []string
	cols := map[string]int{}
	for i, name := range names {
		if _, dup := cols[name]; dup {
			msg := fmt.Sprintf("column %q also maps to %s; ignored", t.Header[i], name)
			rep.Warnings = append(rep.Warnings, msg)
			m.logger.Warn("duplicate column ignored", zap.String("header", t.Header[i]), zap.String("field", name))
			continue
		}
		cols[name] = i
		fields = append(fields, name)
	}
	rows := make([]dataset.Record, len(t.Rows))
	for r, raw := range t.Rows {
		rec := make(dataset.Record, len(fields))
		for _, f := range fields {
			rec[f] = dataset.String(raw[cols[f]])
		}
		rows[r] = rec
	}
	return dataset.New(fields, rows)
}

// SynthesizeMissingFields derives absent identifiers from other columns. Rules
// run in order and never overwrite an existing field:
//
//  1. customer_id from customer_email;
//  2. order_id from the date (raw text when any date failed to parse) and the
//     zero-based row index;
//  3. order_id as "ORDER_" plus the row index.
func (m *Mapper) SynthesizeMissingFields(ds *dataset.Dataset, mapping []HeaderMapping, raw *RawTable) (*dataset.Dataset, []string) {
	var made []string
	if !ds.Has(FieldCustomerID) && ds.Has(FieldCustomerEmail) {
		ds, _ = ds.WithColumn(FieldCustomerID, ds.Column(FieldCustomerEmail))
		made = append(made, FieldCustomerID)
	}
	if !ds.Has(FieldOrderID) && ds.Has(FieldDate) {
		dates := ds.Column(FieldDate)
		useRaw := false
		for _, v := range dates {
			if v.Kind != dataset.KindTime {
				useRaw = true
				break
			}
		}
		var rawDates []string
		if useRaw {
			rawDates = raw.Column(rawIndex(raw.Header, mapping, FieldDate))
		}
		ids := make([]dataset.Value, ds.Len())
		for i, v := range dates {
			prefix := v.Text()
			if useRaw && rawDates[i] != "" {
				prefix = rawDates[i]
			}
			ids[i] = dataset.String(prefix + "_" + strconv.Itoa(i))
		}
		ds, _ = ds.WithColumn(FieldOrderID, ids)
		made = append(made, FieldOrderID)
	}
	if !ds.Has(FieldOrderID) {
		ids := make([]dataset.Value, ds.Len())
		for i := range ids {
			ids[i] = dataset.String("ORDER_" + strconv.Itoa(i))
		}
		ds, _ = ds.WithColumn(FieldOrderID, ids)
		made = append(made, FieldOrderID)
	}
	if len(made) > 0 {
		m.logger.Debug("synthesized missing fields", zap.Strings("fields", made))
	}
	return ds, made
}

func rawIndex(header []string, mapping []HeaderMapping, field string) int {
	for _, hm := range mapping {
		if hm.Field != field {
			continue
		}
		for i, h := range header {
			if h == hm.Header {
				return i
			}
		}
	}
	return -1
}

// ValidateRequired lists required canonical fields absent from ds. A dataset
// that still carries the legacy display names is complete by definition.
func (m *Mapper) ValidateRequired(ds *dataset.Dataset) []string {
	if m.IsLegacyFormat(ds.Fields()) {
		return nil
	}
	var missing []string
	seen := map[string]bool{}
	for _, fm := range m.fields {
		if !fm.Required || seen[fm.Name] {
			continue
		}
		seen[fm.Name] = true
		if !ds.Has(fm.Name) {
			missing = append(missing, fm.Name)
		}
	}
	return missing
}

// MissingFromMapping lists required canonical fields that no header mapped to.
func (m *Mapper) MissingFromMapping(mapping []HeaderMapping) []string {
	mapped := map[string]bool{}
	for _, hm := range mapping {
		mapped[hm.Field] = true
	}
	var missing []string
	seen := map[string]bool{}
	for _, fm := range m.fields {
		if !fm.Required || seen[fm.Name] {
			continue
		}
		seen[fm.Name] = true
		if !mapped[fm.Name] {
			missing = append(missing, fm.Name)
		}
	}
	return missing
}

// DetectSourceFormat classifies an export by the set of canonical fields its
// headers mapped to.
func DetectSourceFormat(mapping []HeaderMapping) string {
	fields := map[string]bool{}
	for _, hm := range mapping {
		fields[hm.Field] = true
	}
	switch {
	case fields[FieldAmountRefunded] && fields[FieldFee]:
		return SourceStripe
	case fields[FieldProductName] && fields[FieldTotalAmount]:
		return SourceStan
	default:
		return SourceUnknown
	}
}
