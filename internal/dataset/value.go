package dataset

import (
	"encoding/json"
	"strconv"
	"time"
)

// Kind is the runtime representation of a cell.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindTime:
		return "time"
	default:
		return "unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a single typed cell. The zero Value is null.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Time time.Time
}

// Null returns the null value.
func Null() Value { return Value{} }

// String wraps raw text. Empty text is null.
func String(s string) Value {
	if s == "" {
		return Value{}
	}
	return Value{Kind: KindString, Str: s}
}

// Number wraps a float.
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// Time wraps a timestamp.
func Time(t time.Time) Value { return Value{Kind: KindTime, Time: t} }

func (v Value) IsNull() bool { return v.Kind == KindNull }

// Float returns the numeric value and whether the cell holds a number.
func (v Value) Float() (float64, bool) {
	if v.Kind != KindNumber {
		return 0, false
	}
	return v.Num, true
}

// Date returns the timestamp and whether the cell holds one.
func (v Value) Date() (time.Time, bool) {
	if v.Kind != KindTime {
		return time.Time{}, false
	}
	return v.Time, true
}

// Text renders the value the way it should appear in identifiers and reports.
// Timestamps without a time-of-day component render as dates only.
func (v Value) Text() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindTime:
		if v.Time.Hour() == 0 && v.Time.Minute() == 0 && v.Time.Second() == 0 && v.Time.Nanosecond() == 0 {
			return v.Time.Format("2006-01-02")
		}
		return v.Time.Format("2006-01-02 15:04:05")
	default:
		return ""
	}
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindString:
		return v.Str == o.Str
	case KindNumber:
		return v.Num == o.Num
	case KindTime:
		return v.Time.Equal(o.Time)
	default:
		return true
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		return json.Marshal(v.Num)
	case KindTime:
		return json.Marshal(v.Time.Format(time.RFC3339))
	default:
		return []byte("null"), nil
	}
}
