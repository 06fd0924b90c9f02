package sheets

import "context"

// Ports for the spreadsheet mirror.
type (
	// TableWriter replaces the whole content of the mirror sheet.
	TableWriter interface {
		WriteTable(ctx context.Context, rows [][]string) error
	}

	// TableReader returns the current content of the mirror sheet.
	TableReader interface {
		ReadTable(ctx context.Context) ([][]string, error)
	}
)
