package schema

import (
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/ledgerloom/internal/dataset"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02/01/2006",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05Z07:00",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"Jan 2, 2006",
	"2 Jan 2006",
}

var clockLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04 PM",
	"3:04:05 PM",
	"3:04PM",
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseClock(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, l := range clockLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseNumber accepts plain and locale-formatted numbers, optional currency
// symbols and percent signs. A lone comma followed by exactly three digits is
// read as a thousands separator, any other lone comma as a decimal one.
func parseNumber(s string) (float64, bool) {
	raw := strings.ReplaceAll(s, "\u00a0", " ")
	raw = strings.TrimSpace(raw)
	raw = strings.TrimLeft(raw, "$€£¥")
	raw = strings.TrimSuffix(raw, "%")
	raw = strings.ReplaceAll(raw, " ", "")
	if raw == "" {
		return 0, false
	}
	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	switch {
	case cpos >= 0 && dpos >= 0 && cpos > dpos:
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.ReplaceAll(raw, ",", ".")
	case cpos >= 0 && dpos >= 0:
		raw = strings.ReplaceAll(raw, ",", "")
	case cpos >= 0:
		if len(raw)-cpos-1 == 3 {
			raw = strings.ReplaceAll(raw, ",", "")
		} else {
			raw = strings.ReplaceAll(raw, ",", ".")
		}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// CoerceTypes applies each canonical field's expected type. Unparsable numeric
// and datetime cells become null. A datetime or time column in which no
// non-empty cell parses keeps its original text. Values that already carry
// the target type are left alone, which makes the operation idempotent.
func (m *Mapper) CoerceTypes(ds *dataset.Dataset) *dataset.Dataset {
	out := ds
	done := map[string]bool{}
	for _, fm := range m.fields {
		if done[fm.Name] || !out.Has(fm.Name) {
			continue
		}
		done[fm.Name] = true
		switch fm.Type {
		case TypeFloat:
			out = out.Map(fm.Name, func(_ int, v dataset.Value) dataset.Value { return toNumber(v, false) })
		case TypeInt:
			out = out.Map(fm.Name, func(_ int, v dataset.Value) dataset.Value { return toNumber(v, true) })
		case TypeDatetime:
			out = m.coerceTemporal(out, fm.Name, parseDate)
		case TypeTime:
			out = m.coerceTemporal(out, fm.Name, parseClock)
		}
	}
	return out
}

func toNumber(v dataset.Value, integral bool) dataset.Value {
	switch v.Kind {
	case dataset.KindNumber:
		return v
	case dataset.KindString:
		f, ok := parseNumber(v.Str)
		if !ok {
			return dataset.Null()
		}
		if integral && f != math.Trunc(f) {
			return dataset.Null()
		}
		return dataset.Number(f)
	default:
		return dataset.Null()
	}
}

func (m *Mapper) coerceTemporal(ds *dataset.Dataset, field string, parse func(string) (time.Time, bool)) *dataset.Dataset {
	col := ds.Column(field)
	vals := make([]dataset.Value, len(col))
	pending, parsed := 0, 0
	for i, v := range col {
		switch v.Kind {
		case dataset.KindString:
			pending++
			if t, ok := parse(v.Str); ok {
				vals[i] = dataset.Time(t)
				parsed++
			}
		case dataset.KindTime:
			vals[i] = v
		}
	}
	if pending > 0 && parsed == 0 {
		m.logger.Warn("could not parse field, keeping text",
			zap.String("field", field), zap.String("type", string(m.typeOf(field))))
		return ds
	}
	out, _ := ds.WithColumn(field, vals)
	return out
}

// DetectCombinedDateTime repairs a date column whose values carry trailing
// tokens, such as a time or a name glued onto the date. Only a date field
// still holding text is considered, and only its first row is sampled.
func (m *Mapper) DetectCombinedDateTime(ds *dataset.Dataset) *dataset.Dataset {
	if !ds.Has(FieldDate) || ds.Len() == 0 {
		return ds
	}
	first := ds.Value(0, FieldDate)
	if first.Kind != dataset.KindString || len(strings.Fields(first.Str)) < 2 {
		return ds
	}
	m.logger.Info("extracting date from combined field")
	return ds.Map(FieldDate, func(_ int, v dataset.Value) dataset.Value {
		if v.Kind != dataset.KindString {
			return v
		}
		tokens := strings.Fields(v.Str)
		if len(tokens) == 0 {
			return dataset.Null()
		}
		if t, ok := parseDate(tokens[0]); ok {
			return dataset.Time(t)
		}
		return dataset.Null()
	})
}

func (m *Mapper) typeOf(field string) FieldType {
	for _, fm := range m.fields {
		if fm.Name == field {
			return fm.Type
		}
	}
	return TypeString
}
