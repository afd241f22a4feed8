package repository

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Cells are written as given so submitter text is never parsed as a formula.
const (
	valueInputOption = "RAW"
	insertDataOption = "INSERT_ROWS"
)

// SheetsRepo stores every table as a worksheet of one Google spreadsheet.
type SheetsRepo struct {
	svc           *sheets.Service
	spreadsheetID string
}

// NewSheetsRepo authenticates with a service account key file.
func NewSheetsRepo(ctx context.Context, credentialsFile, spreadsheetID string) (*SheetsRepo, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("sheets: read credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("sheets: parse credentials: %w", err)
	}
	svc, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("sheets: new service: %w", err)
	}
	return NewSheetsRepoWithService(svc, spreadsheetID), nil
}

func NewSheetsRepoWithService(svc *sheets.Service, spreadsheetID string) *SheetsRepo {
	return &SheetsRepo{svc: svc, spreadsheetID: spreadsheetID}
}

// RowCount counts the non-empty rows of column A, header included.
func (r *SheetsRepo) RowCount(ctx context.Context, table string) (int, error) {
	resp, err := r.svc.Spreadsheets.Values.Get(r.spreadsheetID, table+"!A:A").
		MajorDimension("ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("sheets: count %s: %w", table, err)
	}
	return len(resp.Values), nil
}

func (r *SheetsRepo) AppendRow(ctx context.Context, table string, row []any) error {
	vr := &sheets.ValueRange{Values: [][]any{row}}
	_, err := r.svc.Spreadsheets.Values.Append(r.spreadsheetID, table+"!A1", vr).
		ValueInputOption(valueInputOption).
		InsertDataOption(insertDataOption).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets: append to %s: %w", table, err)
	}
	return nil
}

func (r *SheetsRepo) EnsureHeader(ctx context.Context, table string, header []string) error {
	return ensureHeader(ctx, r, table, header)
}
