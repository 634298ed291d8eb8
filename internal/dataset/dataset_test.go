package dataset

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewFillsMissingFieldsWithNull(t *testing.T) {
	ds := New([]string{"a", "b"}, []Record{
		{"a": String("x")},
		{"a": String("y"), "b": Number(2)},
	})
	if ds.Len() != 2 {
		t.Fatalf("len = %d, want 2", ds.Len())
	}
	if !ds.Value(0, "b").IsNull() {
		t.Fatalf("expected null for missing field, got %#v", ds.Value(0, "b"))
	}
	if f, ok := ds.Value(1, "b").Float(); !ok || f != 2 {
		t.Fatalf("b[1] = %v,%v", f, ok)
	}
}

func TestWithColumnDoesNotMutateSource(t *testing.T) {
	src := New([]string{"a"}, []Record{{"a": String("x")}})
	out, err := src.WithColumn("b", []Value{Number(1)})
	if err != nil {
		t.Fatalf("WithColumn: %v", err)
	}
	if src.Has("b") {
		t.Fatalf("source dataset gained field b")
	}
	if !out.Has("b") || !out.Has("a") {
		t.Fatalf("fields = %v", out.Fields())
	}
	if _, err := src.WithColumn("c", nil); err == nil {
		t.Fatalf("expected length mismatch error")
	}
}

func TestTextRendersDatesWithoutMidnight(t *testing.T) {
	d := Time(time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC))
	if got := d.Text(); got != "2025-01-17" {
		t.Fatalf("Text = %q", got)
	}
	dt := Time(time.Date(2025, 1, 17, 17, 28, 43, 0, time.UTC))
	if got := dt.Text(); got != "2025-01-17 17:28:43" {
		t.Fatalf("Text = %q", got)
	}
	if got := Number(25.99).Text(); got != "25.99" {
		t.Fatalf("Text = %q", got)
	}
}

func TestDistinctAndDateRange(t *testing.T) {
	ds := New([]string{"p", "d"}, []Record{
		{"p": String("Hat"), "d": Time(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))},
		{"p": String("Cap"), "d": Time(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))},
		{"p": String("Hat"), "d": Null()},
	})
	got := ds.Distinct("p")
	if len(got) != 2 || got[0] != "Cap" || got[1] != "Hat" {
		t.Fatalf("Distinct = %v", got)
	}
	lo, hi, ok := ds.DateRange("d")
	if !ok || lo.Month() != time.January || hi.Month() != time.February {
		t.Fatalf("DateRange = %v %v %v", lo, hi, ok)
	}
}

func TestValueJSON(t *testing.T) {
	b, err := json.Marshal(Record{"n": Number(1.5), "s": String("a"), "z": Null()})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"n":1.5,"s":"a","z":null}` {
		t.Fatalf("json = %s", b)
	}
}
