package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

type fakeSheetsAPI struct {
	mu       sync.Mutex
	values   [][]any
	appended []*sheets.ValueRange
	query    []string
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/values/"):
		json.NewEncoder(w).Encode(map[string]any{"range": "Humans!A:A", "values": f.values})
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
		var vr sheets.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.appended = append(f.appended, &vr)
		f.values = append(f.values, vr.Values...)
		f.query = append(f.query, r.URL.RawQuery)
		json.NewEncoder(w).Encode(map[string]any{})
	default:
		http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
	}
}

func newSheetsRepo(t *testing.T, api http.Handler) *SheetsRepo {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	svc, err := sheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
		option.WithoutAuthentication())
	require.NoError(t, err)
	return NewSheetsRepoWithService(svc, "sheet-id")
}

func TestSheetsRowCountIncludesHeader(t *testing.T) {
	api := &fakeSheetsAPI{values: [][]any{{"No."}, {"1"}, {"2"}}}
	repo := newSheetsRepo(t, api)

	n, err := repo.RowCount(context.Background(), "Humans")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSheetsAppendWritesRawRows(t *testing.T) {
	api := &fakeSheetsAPI{}
	repo := newSheetsRepo(t, api)

	require.NoError(t, repo.AppendRow(context.Background(), "Aliens", []any{3, "1733054400", "Zed", "No"}))

	require.Len(t, api.appended, 1)
	assert.Equal(t, []any{float64(3), "1733054400", "Zed", "No"}, api.appended[0].Values[0])
	assert.Contains(t, api.query[0], "valueInputOption=RAW")
	assert.Contains(t, api.query[0], "insertDataOption=INSERT_ROWS")
}

func TestSheetsEnsureHeaderOnEmptySheet(t *testing.T) {
	api := &fakeSheetsAPI{}
	repo := newSheetsRepo(t, api)
	ctx := context.Background()

	require.NoError(t, repo.EnsureHeader(ctx, "Animals", []string{"No.", "Date"}))
	require.NoError(t, repo.EnsureHeader(ctx, "Animals", []string{"No.", "Date"}))
	assert.Len(t, api.appended, 1)
}

func TestSheetsErrorsAreWrapped(t *testing.T) {
	repo := newSheetsRepo(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":400,"message":"bad range"}}`, http.StatusBadRequest)
	}))

	_, err := repo.RowCount(context.Background(), "Humans")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sheets: count Humans")
}

func TestSheetsAppendKeepsFormulaTextLiteral(t *testing.T) {
	api := &fakeSheetsAPI{}
	repo := newSheetsRepo(t, api)

	name := `=IMPORTXML("http://example.com","//a")`
	require.NoError(t, repo.AppendRow(context.Background(), "Humans", []any{1, "1733054400", name, 45}))

	require.Len(t, api.query, 1)
	assert.Contains(t, api.query[0], "valueInputOption=RAW")
	assert.NotContains(t, api.query[0], "USER_ENTERED")
	assert.Equal(t, name, api.appended[0].Values[0][2])
	assert.Equal(t, float64(45), api.appended[0].Values[0][3])
}
