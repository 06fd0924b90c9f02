package hierarchy

import (
	"errors"
	"fmt"
	"testing"

	"bookkeeper/internal/core"
)

func sequence(prefix string) core.IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func TestAddAndFilter(t *testing.T) {
	doc := core.SeedDocument()
	s := New(&doc, sequence("id"))

	c, err := s.AddCategory("  Travel ")
	if err != nil {
		t.Fatalf("add category: %v", err)
	}
	if c.Name != "Travel" || c.ID != "id-1" {
		t.Fatalf("unexpected category %+v", c)
	}
	sc, err := s.AddSubCategory(c.ID, "Flights")
	if err != nil {
		t.Fatalf("add sub-category: %v", err)
	}
	if _, err := s.AddAccount(sc.ID, "Airline"); err != nil {
		t.Fatalf("add account: %v", err)
	}
	// Duplicate names are allowed.
	if _, err := s.AddAccount(sc.ID, "Airline"); err != nil {
		t.Fatalf("add duplicate account: %v", err)
	}

	if got := s.SubCategoriesOf(c.ID); len(got) != 1 || got[0].Name != "Flights" {
		t.Fatalf("sub-categories of %s = %+v", c.ID, got)
	}
	if got := s.AccountsOf(sc.ID); len(got) != 2 {
		t.Fatalf("accounts of %s = %+v", sc.ID, got)
	}
	if got := s.SubCategoriesOf("missing"); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
	if len(doc.Categories) != 3 || len(doc.Accounts) != 4 {
		t.Fatalf("document not updated in place: %d categories, %d accounts", len(doc.Categories), len(doc.Accounts))
	}
}

func TestAddRejectsEmptyName(t *testing.T) {
	doc := core.SeedDocument()
	s := New(&doc, nil)
	if _, err := s.AddCategory("   "); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if _, err := s.AddAccount("", "x"); !errors.Is(err, core.ErrMissingSubCategory) {
		t.Fatalf("expected ErrMissingSubCategory, got %v", err)
	}
	if len(doc.Categories) != 2 || len(doc.Accounts) != 2 {
		t.Fatalf("document mutated on rejected add")
	}
}

func TestRemoveDoesNotCascade(t *testing.T) {
	doc := core.SeedDocument()
	doc.Transactions = []core.Transaction{{ID: "t1", CategoryID: "cat-1", SubCategoryID: "sub-1", AccountID: "acc-1", Type: core.Credit, Amount: core.Money{Cents: 100}}}
	s := New(&doc, nil)

	deps, err := Dependents(doc, KindCategory, "cat-1")
	if err != nil {
		t.Fatalf("dependents: %v", err)
	}
	if deps.SubCategories != 1 || deps.Transactions != 1 {
		t.Fatalf("unexpected dependents %+v", deps)
	}

	if err := s.Remove(KindCategory, "cat-1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(doc.Categories) != 1 {
		t.Fatalf("category not removed")
	}
	if len(doc.SubCategories) != 2 || len(doc.Accounts) != 2 || len(doc.Transactions) != 1 {
		t.Fatalf("remove must not cascade")
	}

	names := NewNames(doc, core.UnknownLabel)
	if got := names.Category("cat-1"); got != core.UnknownLabel {
		t.Fatalf("stale reference resolved to %q", got)
	}
	if got := names.SubCategory("sub-1"); got != "المشاريع" {
		t.Fatalf("sub-category name = %q", got)
	}
}

func TestRemoveErrors(t *testing.T) {
	doc := core.SeedDocument()
	s := New(&doc, nil)
	if err := s.Remove(KindAccount, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Remove(Kind(42), "acc-1"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
	if len(doc.Accounts) != 2 {
		t.Fatalf("document mutated by failed remove")
	}
}

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{
		"categories":    KindCategory,
		"subCategories": KindSubCategory,
		"account":       KindAccount,
	}
	for in, want := range cases {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Fatalf("ParseKind(%q) = %v, %v", in, got, err)
		}
		if want.String() == "" {
			t.Fatalf("empty kind name")
		}
	}
	if _, err := ParseKind("transactions"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}
