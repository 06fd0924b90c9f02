// Package export renders the document for download: a CSV of the
// transactions and a full JSON backup that can be loaded back.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"bookkeeper/internal/core"
	"bookkeeper/internal/hierarchy"
)

var (
	headerEN = []string{"Date", "Category", "SubCategory", "Account", "Type", "Amount", "Balance", "Description"}
	headerAR = []string{"التاريخ", "التصنيف", "الفئة", "الحساب", "النوع", "المبلغ", "الرصيد", "الوصف"}
)

// Header returns the column titles for the document language.
func Header(language string) []string {
	src := headerEN
	if language == "ar" {
		src = headerAR
	}
	return append([]string(nil), src...)
}

// Table returns the header followed by one row per transaction in storage
// order (newest first). Names that no longer resolve are left empty.
func Table(doc core.Document) [][]string {
	lang := doc.Settings.Language
	names := hierarchy.NewNames(doc, "")
	rows := make([][]string, 0, len(doc.Transactions)+1)
	rows = append(rows, Header(lang))
	for _, t := range doc.Transactions {
		rows = append(rows, []string{
			string(t.Date),
			names.Category(t.CategoryID),
			names.SubCategory(t.SubCategoryID),
			names.Account(t.AccountID),
			t.Type.Label(lang),
			t.Amount.Fixed(),
			t.BalanceAfter.Fixed(),
			t.Description,
		})
	}
	return rows
}

// WriteCSV writes Table(doc) as CSV.
func WriteCSV(w io.Writer, doc core.Document) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(Table(doc)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteBackup writes the exact serialized document.
func WriteBackup(w io.Writer, doc core.Document) error {
	data, err := core.MarshalDocument(doc)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// MaxBackupSize bounds ReadBackup. Receipt images make documents large.
const MaxBackupSize = 32 << 20

// ReadBackup parses a backup produced by WriteBackup. Malformed input yields
// an error wrapping core.ErrCorruptDocument.
func ReadBackup(r io.Reader) (core.Document, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxBackupSize+1))
	if err != nil {
		return core.Document{}, fmt.Errorf("read backup: %w", err)
	}
	if len(data) > MaxBackupSize {
		return core.Document{}, fmt.Errorf("%w: backup exceeds %d bytes", core.ErrCorruptDocument, MaxBackupSize)
	}
	return core.UnmarshalDocument(data)
}
