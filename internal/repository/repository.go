// Package repository implements the destination tables submissions are
// appended to.
package repository

import (
	"context"
	"fmt"

	"github.com/Mur0dDev/Classification-Bot/internal/submission"
)

// Sheet is an append-only destination table store.
type Sheet interface {
	submission.RowStore
	// EnsureHeader writes header as the first row of an empty table.
	EnsureHeader(ctx context.Context, table string, header []string) error
}

// ensureHeader appends header when table has no rows yet.
func ensureHeader(ctx context.Context, s submission.RowStore, table string, header []string) error {
	n, err := s.RowCount(ctx, table)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	row := make([]any, len(header))
	for i, h := range header {
		row[i] = h
	}
	if err := s.AppendRow(ctx, table, row); err != nil {
		return fmt.Errorf("write header of %s: %w", table, err)
	}
	return nil
}
