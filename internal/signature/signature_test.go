package signature_test

import (
	"testing"
	"time"

	"github.com/KaramelBytes/ledgerloom/internal/dataset"
	"github.com/KaramelBytes/ledgerloom/internal/schema"
	"github.com/KaramelBytes/ledgerloom/internal/signature"
)

func row(day int, product, email string, total float64) dataset.Record {
	return dataset.Record{
		schema.FieldDate:          dataset.Time(time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)),
		schema.FieldProductName:   dataset.String(product),
		schema.FieldCustomerEmail: dataset.String(email),
		schema.FieldTotalAmount:   dataset.Number(total),
	}
}

var fields = []string{schema.FieldDate, schema.FieldProductName, schema.FieldCustomerEmail, schema.FieldTotalAmount}

func TestComputeIsPermutationInvariant(t *testing.T) {
	a := dataset.New(fields, []dataset.Record{
		row(1, "Widget", "a@x.com", 0.1),
		row(2, "Gadget", "b@x.com", 0.2),
		row(3, "Widget", "a@x.com", 0.3),
	})
	b := dataset.New(fields, []dataset.Record{
		row(3, "Widget", "a@x.com", 0.3),
		row(1, "Widget", "a@x.com", 0.1),
		row(2, "Gadget", "b@x.com", 0.2),
	})
	sa, sb := signature.Compute(a), signature.Compute(b)
	if sa != sb {
		t.Fatalf("signatures differ: %s vs %s", sa, sb)
	}
	if len(sa) != 32 {
		t.Fatalf("len = %d", len(sa))
	}
}

func TestComputeChangesWithShape(t *testing.T) {
	base := dataset.New(fields, []dataset.Record{row(1, "Widget", "a@x.com", 10)})
	more := dataset.New(fields, []dataset.Record{row(1, "Widget", "a@x.com", 10), row(1, "Widget", "a@x.com", 0)})
	other := dataset.New(fields, []dataset.Record{row(1, "Gadget", "a@x.com", 10)})
	s := signature.Compute(base)
	if s == signature.Compute(more) {
		t.Fatal("row count ignored")
	}
	if s == signature.Compute(other) {
		t.Fatal("products ignored")
	}
}

func TestDescribeFallsBackToCustomerID(t *testing.T) {
	ds := dataset.New([]string{schema.FieldCustomerID}, []dataset.Record{
		{schema.FieldCustomerID: dataset.String("c1")},
		{schema.FieldCustomerID: dataset.String("c2")},
		{schema.FieldCustomerID: dataset.String("c1")},
	})
	if got := signature.Describe(ds).Identities; got != 2 {
		t.Fatalf("identities = %d", got)
	}
}
