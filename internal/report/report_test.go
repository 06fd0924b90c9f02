package report

import (
	"fmt"
	"testing"

	"bookkeeper/internal/core"
	"bookkeeper/internal/ledger"
)

func txn(id string, typ core.TxType, cents int64, date core.Date, categoryID string) core.Transaction {
	return core.Transaction{
		ID:            id,
		CategoryID:    categoryID,
		SubCategoryID: "sub-1",
		AccountID:     "acc-1",
		Type:          typ,
		Amount:        core.Money{Cents: cents},
		Date:          date,
	}
}

func sampleDocument() core.Document {
	doc := core.SeedDocument()
	// Newest first.
	doc.Transactions = []core.Transaction{
		txn("t4", core.Debit, 2000, "2024-02-10", "cat-gone"),
		txn("t3", core.Credit, 5000, "2024-02-01", "cat-2"),
		txn("t2", core.Debit, 3000, "2024-01-20", "cat-1"),
		txn("t1", core.Credit, 10000, "2024-01-05", "cat-1"),
	}
	return doc
}

func TestComputeTotals(t *testing.T) {
	doc := sampleDocument()
	got := ComputeTotals(doc)
	if got.Credit.Cents != 15000 || got.Debit.Cents != 5000 || got.Net.Cents != 10000 {
		t.Fatalf("unexpected totals %+v", got)
	}

	var signed core.Money
	for _, tx := range doc.Transactions {
		signed = signed.Add(tx.Type.Signed(tx.Amount))
	}
	if got.Net != signed {
		t.Fatalf("net %v does not equal signed sum %v", got.Net, signed)
	}
}

func TestComputeTotalsEmpty(t *testing.T) {
	got := ComputeTotals(core.SeedDocument())
	if !got.Credit.IsZero() || !got.Debit.IsZero() || !got.Net.IsZero() {
		t.Fatalf("expected zero totals, got %+v", got)
	}
}

func TestMonthlyBuckets(t *testing.T) {
	got := MonthlyBuckets(sampleDocument())
	want := []MonthBucket{
		{Month: "2024-01", Credit: core.Money{Cents: 10000}, Debit: core.Money{Cents: 3000}, Net: core.Money{Cents: 7000}},
		{Month: "2024-02", Credit: core.Money{Cents: 5000}, Debit: core.Money{Cents: 2000}, Net: core.Money{Cents: 3000}},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d buckets, got %+v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bucket %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestCategoryBreakdown(t *testing.T) {
	got := CategoryBreakdown(sampleDocument())
	want := []CategoryAmount{
		{Name: core.UnknownLabel, Amount: core.Money{Cents: 2000}},
		{Name: "المنزل", Amount: core.Money{Cents: 5000}},
		{Name: "العمل", Amount: core.Money{Cents: 13000}},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d categories, got %+v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("category %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestBuild(t *testing.T) {
	r := Build(sampleDocument())
	if r.Summary.Transactions != 4 || r.Summary.Categories != 2 || r.Summary.Accounts != 2 {
		t.Fatalf("unexpected summary %+v", r.Summary)
	}
	if r.Currency != "ريال" {
		t.Fatalf("currency = %q", r.Currency)
	}
	if len(r.Monthly) != 2 || len(r.Categories) != 3 {
		t.Fatalf("report incomplete: %+v", r)
	}
}

func TestTotalsMatchLatestBalance(t *testing.T) {
	doc := core.SeedDocument()
	doc.Transactions = nil
	n := 0
	l := ledger.New(&doc,
		ledger.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("t%d", n)
		}),
		ledger.WithClock(func() core.Date { return "2024-03-01" }),
	)

	steps := []struct {
		name   string
		typ    core.TxType
		cents  int64
		remove string
		net    int64
	}{
		{name: "first credit", typ: core.Credit, cents: 1000, net: 1000},
		{name: "debit", typ: core.Debit, cents: 250, net: 750},
		{name: "overdraw", typ: core.Debit, cents: 900, net: -150},
		{name: "delete middle", remove: "t2", net: 100},
		{name: "credit", typ: core.Credit, cents: 75, net: 175},
		{name: "delete newest", remove: "t4", net: 100},
		{name: "delete oldest", remove: "t1", net: -900},
		{name: "delete last", remove: "t3", net: 0},
		{name: "append after empty", typ: core.Debit, cents: 40, net: -40},
	}
	for _, st := range steps {
		if st.remove != "" {
			if err := l.Delete(st.remove); err != nil {
				t.Fatalf("%s: delete %s: %v", st.name, st.remove, err)
			}
		} else {
			in := core.NewTransaction{
				CategoryID: "cat-1", SubCategoryID: "sub-1", AccountID: "acc-1",
				Type: st.typ, Amount: core.Money{Cents: st.cents},
			}
			if _, err := l.Append(in); err != nil {
				t.Fatalf("%s: append: %v", st.name, err)
			}
		}

		totals := ComputeTotals(doc)
		if totals.Net.Cents != st.net {
			t.Fatalf("%s: net = %d, want %d", st.name, totals.Net.Cents, st.net)
		}
		if totals.Net != totals.Credit.Sub(totals.Debit) {
			t.Fatalf("%s: net %s != credit %s - debit %s", st.name, totals.Net, totals.Credit, totals.Debit)
		}
		if len(doc.Transactions) == 0 {
			if totals.Net.Cents != 0 {
				t.Fatalf("%s: empty ledger has net %s", st.name, totals.Net)
			}
			continue
		}
		if latest := doc.Transactions[0].BalanceAfter; totals.Net != latest {
			t.Fatalf("%s: net %s != latest balance %s", st.name, totals.Net, latest)
		}
	}
}
