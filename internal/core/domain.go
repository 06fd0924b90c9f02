package core

import (
	"errors"
	"strings"
	"time"
)

// Transaction types. The values are the labels the persisted document has
// always used, so older backups load unchanged.
const (
	Credit TxType = "له"
	Debit  TxType = "عليه"
)

// UnknownLabel is shown in place of a hierarchy name whose id no longer exists.
const UnknownLabel = "غير معروف"

type (
	TxType string

	// Date is a calendar day in YYYY-MM-DD form. No timezone is attached.
	Date string

	Category struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	SubCategory struct {
		ID         string `json:"id"`
		CategoryID string `json:"categoryId"`
		Name       string `json:"name"`
	}

	Account struct {
		ID            string `json:"id"`
		SubCategoryID string `json:"subCategoryId"`
		Name          string `json:"name"`
	}

	Transaction struct {
		ID            string `json:"id"`
		CategoryID    string `json:"categoryId"`
		SubCategoryID string `json:"subCategoryId"`
		AccountID     string `json:"accountId"`
		Type          TxType `json:"type"`
		Amount        Money  `json:"amount"`
		BalanceAfter  Money  `json:"balanceAfter"`
		Description   string `json:"description"`
		Date          Date   `json:"date"`
		ReceiptImage  string `json:"receiptImage,omitempty"` // base64 data URL, opaque
	}

	// NewTransaction carries the user supplied fields of a transaction.
	// ID and BalanceAfter are assigned by the ledger.
	NewTransaction struct {
		CategoryID    string
		SubCategoryID string
		AccountID     string
		Type          TxType
		Amount        Money
		Description   string
		Date          Date
		ReceiptImage  string
	}

	Settings struct {
		Currency     string `json:"currency"`
		PrimaryColor string `json:"primaryColor"`
		Language     string `json:"language"`
	}

	Profile struct {
		Username     string `json:"username"`
		PasswordHash string `json:"passwordHash"`
	}

	// Document is the whole application state and the unit of persistence.
	Document struct {
		Categories    []Category    `json:"categories"`
		SubCategories []SubCategory `json:"subCategories"`
		Accounts      []Account     `json:"accounts"`
		Transactions  []Transaction `json:"transactions"` // newest first
		Settings      Settings      `json:"settings"`
		Profile       Profile       `json:"profile"`
	}
)

var (
	ErrMissingCategory    = errors.New("category is required")
	ErrMissingSubCategory = errors.New("sub-category is required")
	ErrMissingAccount     = errors.New("account is required")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidDate        = errors.New("invalid date")
	ErrEmptyName          = errors.New("empty name")
	ErrEmptyUsername      = errors.New("empty username")
	ErrInvalidLanguage    = errors.New("invalid language")
	ErrNotFound           = errors.New("not found")
)

// ValidationError reports a rejected command. The document is never modified
// when one is returned.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return "validation failed on " + e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// ParseTxType accepts the persisted labels as well as the English names.
func ParseTxType(s string) (TxType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(Credit), "credit":
		return Credit, nil
	case string(Debit), "debit":
		return Debit, nil
	}
	return "", ErrInvalidType
}

func (t TxType) Valid() bool {
	return t == Credit || t == Debit
}

// Label returns the display label for the given language tag.
func (t TxType) Label(language string) string {
	if language == "en" {
		switch t {
		case Credit:
			return "Credit"
		case Debit:
			return "Debit"
		}
	}
	return string(t)
}

// Signed returns the amount as it affects the running balance.
func (t TxType) Signed(m Money) Money {
	if t == Debit {
		return m.Neg()
	}
	return m
}

// Today returns the current local day.
func Today() Date {
	return Date(time.Now().Format(time.DateOnly))
}

func (d Date) Validate() error {
	if _, err := time.Parse(time.DateOnly, string(d)); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// MonthKey returns the YYYY-MM prefix used for monthly grouping.
func (d Date) MonthKey() string {
	if len(d) < 7 {
		return string(d)
	}
	return string(d[:7])
}

func (n NewTransaction) Validate() error {
	if strings.TrimSpace(n.CategoryID) == "" {
		return invalid("categoryId", ErrMissingCategory)
	}
	if strings.TrimSpace(n.SubCategoryID) == "" {
		return invalid("subCategoryId", ErrMissingSubCategory)
	}
	if strings.TrimSpace(n.AccountID) == "" {
		return invalid("accountId", ErrMissingAccount)
	}
	if !n.Type.Valid() {
		return invalid("type", ErrInvalidType)
	}
	if err := n.Amount.Validate(); err != nil {
		return invalid("amount", err)
	}
	if n.Date != "" {
		if err := n.Date.Validate(); err != nil {
			return invalid("date", err)
		}
	}
	if len(n.Description) > 500 {
		return invalid("description", errors.New("description too long (max 500 characters)"))
	}
	return nil
}

func (s Settings) Validate() error {
	if s.Language != "ar" && s.Language != "en" {
		return invalid("language", ErrInvalidLanguage)
	}
	return nil
}

func (p Profile) Validate() error {
	if strings.TrimSpace(p.Username) == "" {
		return invalid("username", ErrEmptyUsername)
	}
	return nil
}

// Clone returns a deep copy safe to hand out as a read snapshot.
func (d Document) Clone() Document {
	return Document{
		Categories:    cloneOf(d.Categories),
		SubCategories: cloneOf(d.SubCategories),
		Accounts:      cloneOf(d.Accounts),
		Transactions:  cloneOf(d.Transactions),
		Settings:      d.Settings,
		Profile:       d.Profile,
	}
}

// cloneOf always returns a non-nil slice so empty collections encode as [].
func cloneOf[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
