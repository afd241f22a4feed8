package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SQLiteRepo keeps every table as rows of JSON encoded cells in one
// SQLite table.
type SQLiteRepo struct {
	db *sql.DB
}

func NewSQLiteRepo(db *sql.DB) *SQLiteRepo {
	return &SQLiteRepo{db: db}
}

func (r *SQLiteRepo) RowCount(ctx context.Context, table string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sheet_rows WHERE sheet = ?`, table).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func (r *SQLiteRepo) AppendRow(ctx context.Context, table string, row []any) error {
	cells, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode row: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO sheet_rows (sheet, cells, created_at) VALUES (?, ?, ?)`,
		table, string(cells), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("append to %s: %w", table, err)
	}
	return nil
}

func (r *SQLiteRepo) EnsureHeader(ctx context.Context, table string, header []string) error {
	return ensureHeader(ctx, r, table, header)
}

// Rows returns the rows of table in append order. Numbers decode as
// json.Number.
func (r *SQLiteRepo) Rows(ctx context.Context, table string) ([][]any, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT cells FROM sheet_rows WHERE sheet = ? ORDER BY id`, table)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		dec := json.NewDecoder(strings.NewReader(raw))
		dec.UseNumber()
		var cells []any
		if err := dec.Decode(&cells); err != nil {
			return nil, fmt.Errorf("decode row of %s: %w", table, err)
		}
		out = append(out, cells)
	}
	return out, rows.Err()
}
