package ingest_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/ledgerloom/internal/ingest"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestReadCSVVerbatim(t *testing.T) {
	content := "amount,product\n10,Widget\n"
	got, err := ingest.ReadFile(write(t, "orders.csv", content), ingest.Options{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != content {
		t.Fatalf("got %q", got)
	}
}

func TestReadTSVQuotesCommas(t *testing.T) {
	p := write(t, "orders.tsv", "name\taddress\nAnn\t12 Main St, Springfield\n")
	got, err := ingest.ReadFile(p, ingest.Options{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "name,address\nAnn,\"12 Main St, Springfield\"\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestReadEmptyFile(t *testing.T) {
	_, err := ingest.ReadFile(write(t, "empty.csv", "  \n"), ingest.Options{})
	if !errors.Is(err, ingest.ErrEmpty) {
		t.Fatalf("err = %v", err)
	}
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	idx, err := f.NewSheet("Orders")
	if err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	f.SetActiveSheet(idx)
	cells := map[string]any{"A1": "Order ID", "B1": "Total", "A2": "o-1", "B2": 12.5}
	for cell, v := range cells {
		if err := f.SetCellValue("Orders", cell, v); err != nil {
			t.Fatalf("set %s: %v", cell, err)
		}
	}
	p := filepath.Join(t.TempDir(), "orders.xlsx")
	if err := f.SaveAs(p); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := ingest.ReadFile(p, ingest.Options{Sheet: "orders"})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != "Order ID,Total\no-1,12.5\n" {
		t.Fatalf("got %q", got)
	}

	_, err = ingest.ReadFile(p, ingest.Options{Sheet: "Missing"})
	if err == nil || !strings.Contains(err.Error(), "Available sheets: Sheet1, Orders") {
		t.Fatalf("err = %v", err)
	}
}
