// Package hierarchy manages the Category -> SubCategory -> Account chain.
//
// The three collections are flat and linked by ids. Integrity is not enforced:
// removing a parent leaves its children (and any transactions) pointing at an
// id that no longer resolves, and readers fall back to core.UnknownLabel.
package hierarchy

import (
	"errors"
	"fmt"
	"strings"

	"bookkeeper/internal/core"
)

// Kind selects one of the three hierarchy collections.
type Kind int

const (
	KindCategory Kind = iota + 1
	KindSubCategory
	KindAccount
)

var ErrUnknownKind = errors.New("unknown hierarchy kind")

func (k Kind) String() string {
	switch k {
	case KindCategory:
		return "categories"
	case KindSubCategory:
		return "subCategories"
	case KindAccount:
		return "accounts"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps the collection names used by the document layout (and their
// singular forms) to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "categories", "category":
		return KindCategory, nil
	case "subcategories", "subcategory", "sub-categories", "sub-category":
		return KindSubCategory, nil
	case "accounts", "account":
		return KindAccount, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Store mutates the hierarchy collections of a document in place.
type Store struct {
	doc   *core.Document
	newID core.IDGenerator
}

func New(doc *core.Document, newID core.IDGenerator) *Store {
	if newID == nil {
		newID = core.NewID
	}
	return &Store{doc: doc, newID: newID}
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &core.ValidationError{Field: "name", Err: core.ErrEmptyName}
	}
	return name, nil
}

// AddCategory appends a new category. Names are not required to be unique.
func (s *Store) AddCategory(name string) (core.Category, error) {
	name, err := cleanName(name)
	if err != nil {
		return core.Category{}, err
	}
	c := core.Category{ID: s.newID(), Name: name}
	s.doc.Categories = append(s.doc.Categories, c)
	return c, nil
}

// AddSubCategory appends a sub-category under categoryID. The parent is not
// required to exist.
func (s *Store) AddSubCategory(categoryID, name string) (core.SubCategory, error) {
	name, err := cleanName(name)
	if err != nil {
		return core.SubCategory{}, err
	}
	if strings.TrimSpace(categoryID) == "" {
		return core.SubCategory{}, &core.ValidationError{Field: "categoryId", Err: core.ErrMissingCategory}
	}
	sc := core.SubCategory{ID: s.newID(), CategoryID: categoryID, Name: name}
	s.doc.SubCategories = append(s.doc.SubCategories, sc)
	return sc, nil
}

// AddAccount appends an account under subCategoryID.
func (s *Store) AddAccount(subCategoryID, name string) (core.Account, error) {
	name, err := cleanName(name)
	if err != nil {
		return core.Account{}, err
	}
	if strings.TrimSpace(subCategoryID) == "" {
		return core.Account{}, &core.ValidationError{Field: "subCategoryId", Err: core.ErrMissingSubCategory}
	}
	a := core.Account{ID: s.newID(), SubCategoryID: subCategoryID, Name: name}
	s.doc.Accounts = append(s.doc.Accounts, a)
	return a, nil
}

// Remove deletes one entity by id. Dependents are left in place.
func (s *Store) Remove(kind Kind, id string) error {
	var removed bool
	switch kind {
	case KindCategory:
		s.doc.Categories, removed = without(s.doc.Categories, func(c core.Category) bool { return c.ID == id })
	case KindSubCategory:
		s.doc.SubCategories, removed = without(s.doc.SubCategories, func(c core.SubCategory) bool { return c.ID == id })
	case KindAccount:
		s.doc.Accounts, removed = without(s.doc.Accounts, func(a core.Account) bool { return a.ID == id })
	default:
		return fmt.Errorf("%w: %v", ErrUnknownKind, kind)
	}
	if !removed {
		return fmt.Errorf("%s %q: %w", kind, id, core.ErrNotFound)
	}
	return nil
}

func without[T any](in []T, match func(T) bool) ([]T, bool) {
	out := make([]T, 0, len(in))
	removed := false
	for _, v := range in {
		if match(v) {
			removed = true
			continue
		}
		out = append(out, v)
	}
	return out, removed
}

// SubCategoriesOf returns the sub-categories whose parent is categoryID.
func (s *Store) SubCategoriesOf(categoryID string) []core.SubCategory {
	return SubCategoriesOf(*s.doc, categoryID)
}

// AccountsOf returns the accounts whose parent is subCategoryID.
func (s *Store) AccountsOf(subCategoryID string) []core.Account {
	return AccountsOf(*s.doc, subCategoryID)
}

func SubCategoriesOf(doc core.Document, categoryID string) []core.SubCategory {
	out := []core.SubCategory{}
	for _, sc := range doc.SubCategories {
		if sc.CategoryID == categoryID {
			out = append(out, sc)
		}
	}
	return out
}

func AccountsOf(doc core.Document, subCategoryID string) []core.Account {
	out := []core.Account{}
	for _, a := range doc.Accounts {
		if a.SubCategoryID == subCategoryID {
			out = append(out, a)
		}
	}
	return out
}

// DependentCounts reports what would be orphaned by removing an entity.
type DependentCounts struct {
	SubCategories int `json:"subCategories"`
	Accounts      int `json:"accounts"`
	Transactions  int `json:"transactions"`
}

// Dependents counts the direct children and the transactions referencing the
// entity. Nothing is removed.
func Dependents(doc core.Document, kind Kind, id string) (DependentCounts, error) {
	var d DependentCounts
	switch kind {
	case KindCategory:
		d.SubCategories = len(SubCategoriesOf(doc, id))
		for _, t := range doc.Transactions {
			if t.CategoryID == id {
				d.Transactions++
			}
		}
	case KindSubCategory:
		d.Accounts = len(AccountsOf(doc, id))
		for _, t := range doc.Transactions {
			if t.SubCategoryID == id {
				d.Transactions++
			}
		}
	case KindAccount:
		for _, t := range doc.Transactions {
			if t.AccountID == id {
				d.Transactions++
			}
		}
	default:
		return d, fmt.Errorf("%w: %v", ErrUnknownKind, kind)
	}
	return d, nil
}
