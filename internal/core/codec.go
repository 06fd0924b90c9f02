package core

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCorruptDocument is returned when persisted bytes do not have the shape of
// a Document. Callers fall back to SeedDocument.
var ErrCorruptDocument = errors.New("corrupt document")

// wireDocument mirrors Document with pointer fields so missing keys can be
// told apart from empty ones.
type wireDocument struct {
	Categories    *[]Category    `json:"categories"`
	SubCategories *[]SubCategory `json:"subCategories"`
	Accounts      *[]Account     `json:"accounts"`
	Transactions  *[]Transaction `json:"transactions"`
	Settings      *Settings      `json:"settings"`
	Profile       *Profile       `json:"profile"`
}

// MarshalDocument serializes the whole document.
func MarshalDocument(doc Document) ([]byte, error) {
	data, err := json.Marshal(doc.Clone())
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return data, nil
}

// UnmarshalDocument parses a serialized document. A missing top-level field
// or a transaction without id, with an unknown type or with an amount outside
// (0, maxCents] is treated as corruption; the format carries no version to
// migrate from.
func UnmarshalDocument(data []byte) (Document, error) {
	var w wireDocument
	if err := json.Unmarshal(data, &w); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	switch {
	case w.Categories == nil:
		return Document{}, fmt.Errorf("%w: missing categories", ErrCorruptDocument)
	case w.SubCategories == nil:
		return Document{}, fmt.Errorf("%w: missing subCategories", ErrCorruptDocument)
	case w.Accounts == nil:
		return Document{}, fmt.Errorf("%w: missing accounts", ErrCorruptDocument)
	case w.Transactions == nil:
		return Document{}, fmt.Errorf("%w: missing transactions", ErrCorruptDocument)
	case w.Settings == nil:
		return Document{}, fmt.Errorf("%w: missing settings", ErrCorruptDocument)
	case w.Profile == nil:
		return Document{}, fmt.Errorf("%w: missing profile", ErrCorruptDocument)
	}
	for i, t := range *w.Transactions {
		if t.ID == "" {
			return Document{}, fmt.Errorf("%w: transaction %d has no id", ErrCorruptDocument, i)
		}
		if !t.Type.Valid() {
			return Document{}, fmt.Errorf("%w: transaction %s has type %q", ErrCorruptDocument, t.ID, t.Type)
		}
		if err := t.Amount.Validate(); err != nil {
			return Document{}, fmt.Errorf("%w: transaction %s has amount %s", ErrCorruptDocument, t.ID, t.Amount)
		}
	}
	doc := Document{
		Categories:    *w.Categories,
		SubCategories: *w.SubCategories,
		Accounts:      *w.Accounts,
		Transactions:  *w.Transactions,
		Settings:      *w.Settings,
		Profile:       *w.Profile,
	}
	return doc.Clone(), nil
}
