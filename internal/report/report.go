// Package report computes read-only aggregates over a document snapshot.
// Nothing here is cached; every call recomputes from the transactions.
package report

import (
	"sort"

	"bookkeeper/internal/core"
	"bookkeeper/internal/hierarchy"
)

// Totals holds the sums over all transactions. Net is Credit minus Debit.
type Totals struct {
	Credit core.Money `json:"credit"`
	Debit  core.Money `json:"debit"`
	Net    core.Money `json:"net"`
}

// MonthBucket aggregates the transactions of one YYYY-MM month.
type MonthBucket struct {
	Month  string     `json:"month"`
	Credit core.Money `json:"credit"`
	Debit  core.Money `json:"debit"`
	Net    core.Money `json:"net"`
}

// CategoryAmount is the unsigned sum of the transactions of one category.
type CategoryAmount struct {
	Name   string     `json:"name"`
	Amount core.Money `json:"amount"`
}

type Summary struct {
	Transactions  int `json:"transactions"`
	Categories    int `json:"categories"`
	SubCategories int `json:"subCategories"`
	Accounts      int `json:"accounts"`
}

// Report bundles every aggregate shown on the reports screen.
type Report struct {
	Totals     Totals           `json:"totals"`
	Monthly    []MonthBucket    `json:"monthly"`
	Categories []CategoryAmount `json:"categories"`
	Summary    Summary          `json:"summary"`
	Currency   string           `json:"currency"`
}

func ComputeTotals(doc core.Document) Totals {
	var t Totals
	for _, tx := range doc.Transactions {
		switch tx.Type {
		case core.Credit:
			t.Credit = t.Credit.Add(tx.Amount)
		case core.Debit:
			t.Debit = t.Debit.Add(tx.Amount)
		}
	}
	t.Net = t.Credit.Sub(t.Debit)
	return t
}

// MonthlyBuckets groups transactions by the first seven characters of their
// date and returns the buckets in ascending month order.
func MonthlyBuckets(doc core.Document) []MonthBucket {
	byMonth := make(map[string]*MonthBucket)
	for _, tx := range doc.Transactions {
		key := tx.Date.MonthKey()
		b, ok := byMonth[key]
		if !ok {
			b = &MonthBucket{Month: key}
			byMonth[key] = b
		}
		switch tx.Type {
		case core.Credit:
			b.Credit = b.Credit.Add(tx.Amount)
		case core.Debit:
			b.Debit = b.Debit.Add(tx.Amount)
		}
	}

	out := make([]MonthBucket, 0, len(byMonth))
	for _, b := range byMonth {
		b.Net = b.Credit.Sub(b.Debit)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// CategoryBreakdown sums amounts per resolved category name regardless of
// type. Transactions whose category no longer exists are grouped under
// core.UnknownLabel. Buckets keep the order in which names are first seen.
func CategoryBreakdown(doc core.Document) []CategoryAmount {
	names := hierarchy.NewNames(doc, core.UnknownLabel)
	index := make(map[string]int)
	out := []CategoryAmount{}
	for _, tx := range doc.Transactions {
		name := names.Category(tx.CategoryID)
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, CategoryAmount{Name: name})
		}
		out[i].Amount = out[i].Amount.Add(tx.Amount)
	}
	return out
}

func Summarize(doc core.Document) Summary {
	return Summary{
		Transactions:  len(doc.Transactions),
		Categories:    len(doc.Categories),
		SubCategories: len(doc.SubCategories),
		Accounts:      len(doc.Accounts),
	}
}

func Build(doc core.Document) Report {
	return Report{
		Totals:     ComputeTotals(doc),
		Monthly:    MonthlyBuckets(doc),
		Categories: CategoryBreakdown(doc),
		Summary:    Summarize(doc),
		Currency:   doc.Settings.Currency,
	}
}
