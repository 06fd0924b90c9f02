package hierarchy

import "bookkeeper/internal/core"

// Names resolves hierarchy ids to display names. Lookups are linear scans;
// personal ledgers hold a handful of entries per collection.
type Names struct {
	doc      core.Document
	fallback string
}

// NewNames builds a resolver that returns fallback for ids that no longer exist.
func NewNames(doc core.Document, fallback string) Names {
	return Names{doc: doc, fallback: fallback}
}

func (n Names) Category(id string) string {
	for _, c := range n.doc.Categories {
		if c.ID == id {
			return c.Name
		}
	}
	return n.fallback
}

func (n Names) SubCategory(id string) string {
	for _, sc := range n.doc.SubCategories {
		if sc.ID == id {
			return sc.Name
		}
	}
	return n.fallback
}

func (n Names) Account(id string) string {
	for _, a := range n.doc.Accounts {
		if a.ID == id {
			return a.Name
		}
	}
	return n.fallback
}
