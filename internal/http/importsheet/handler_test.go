package importsheet_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/grantledger/internal/budget"
	"github.com/MrJamesThe3rd/grantledger/internal/budget/memstore"
	"github.com/MrJamesThe3rd/grantledger/internal/http/importsheet"
	"github.com/MrJamesThe3rd/grantledger/internal/importer"
	"github.com/MrJamesThe3rd/grantledger/internal/matching"
)

const budgetCSV = `Budget Template,,,,,
Description,Qty,Unit cost,,,Total
1. Personnel,,,,,
Research assistant,,,,,"300,000.00"
2. Equipment,,,,,
Laptop,,,,,"150,000"
Sub-total,,,,,"450,000"
`

type row struct {
	Description string `json:"description"`
	Category    string `json:"category"`
	Total       int64  `json:"total"`
	SourceRow   int    `json:"source_row"`
}

func newRouter(t *testing.T, store budget.Repository, mappings func(*matching.MockRepository)) http.Handler {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := matching.NewMockRepository(ctrl)
	mappings(repo)

	h := importsheet.NewHandler(
		importer.NewService(),
		budget.NewService(store, nil, nil),
		matching.NewService(repo),
		1<<20,
		1,
	)

	r := chi.NewRouter()
	r.Route("/grants/{grantID}/import", h.Routes)

	return r
}

func noMappings(repo *matching.MockRepository) {
	repo.EXPECT().FindMatch(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
}

func upload(t *testing.T, h http.Handler, grant, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)

	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/grants/"+grant+"/import/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestHandler_Preview(t *testing.T) {
	h := newRouter(t, memstore.New(), noMappings)

	rec := upload(t, h, uuid.NewString(), "budget.csv", []byte(budgetCSV))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Format    string `json:"format"`
		Rows      []row  `json:"rows"`
		Suggested int    `json:"suggested"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	assert.Equal(t, "csv", resp.Format)
	assert.Equal(t, []row{
		{Description: "Research assistant", Category: "1. Personnel", Total: 300_000_00, SourceRow: 4},
		{Description: "Laptop", Category: "2. Equipment", Total: 150_000_00, SourceRow: 6},
	}, resp.Rows)
	assert.Zero(t, resp.Suggested)
}

func TestHandler_Preview_AppliesSuggestions(t *testing.T) {
	h := newRouter(t, memstore.New(), func(repo *matching.MockRepository) {
		repo.EXPECT().FindMatch(gomock.Any(), "Research assistant").
			Return(&matching.Mapping{Pattern: "assistant", Description: "Research assistant stipend"}, nil)
		repo.EXPECT().FindMatch(gomock.Any(), "Laptop").Return(nil, nil)
	})

	rec := upload(t, h, uuid.NewString(), "budget.csv", []byte(budgetCSV))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Rows      []row `json:"rows"`
		Suggested int   `json:"suggested"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	require.Len(t, resp.Rows, 2)
	assert.Equal(t, "Research assistant stipend", resp.Rows[0].Description)
	assert.Equal(t, "1. Personnel", resp.Rows[0].Category)
	assert.Equal(t, 1, resp.Suggested)
}

func TestHandler_Preview_Errors(t *testing.T) {
	type args struct {
		grant    string
		filename string
		data     []byte
	}

	type testCase struct {
		name       string
		args       args
		wantStatus int
	}

	tests := []testCase{
		{
			name:       "NoItems",
			args:       args{grant: uuid.NewString(), filename: "budget.csv", data: []byte("Budget Template,,,\nTotal,,,100\n")},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "UnknownFormat",
			args:       args{grant: uuid.NewString(), filename: "budget.pdf", data: []byte("%PDF")},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "CorruptWorkbook",
			args:       args{grant: uuid.NewString(), filename: "budget.xlsx", data: []byte("not a zip")},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "InvalidGrant",
			args:       args{grant: "nope", filename: "budget.csv", data: []byte(budgetCSV)},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRouter(t, memstore.New(), noMappings)

			rec := upload(t, h, tt.args.grant, tt.args.filename, tt.args.data)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

var errRejected = errors.New("rejected")

type rejectingStore struct {
	*memstore.Store
	reject string
}

func (r *rejectingStore) CreateItem(ctx context.Context, item *budget.Item) error {
	if item.Description == r.reject {
		return errRejected
	}

	return r.Store.CreateItem(ctx, item)
}

type confirmResult struct {
	Outcome   string `json:"outcome"`
	Message   string `json:"message"`
	Attempted int    `json:"attempted"`
	Succeeded int    `json:"succeeded"`
	Items     []struct {
		Category string `json:"category"`
	} `json:"items"`
	Failures []struct {
		Index     int    `json:"index"`
		SourceRow int    `json:"source_row"`
		Error     string `json:"error"`
	} `json:"failures"`
}

func confirm(t *testing.T, h http.Handler, grant string, rows []row) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(map[string]any{"rows": rows})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/grants/"+grant+"/import/confirm", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestHandler_Confirm(t *testing.T) {
	type testCase struct {
		name          string
		reject        string
		rows          []row
		wantStatus    int
		wantOutcome   string
		wantMessage   string
		wantFailedRow int
	}

	rows := []row{
		{Description: "Research assistant", Category: "1. Personnel", Total: 300_000_00, SourceRow: 4},
		{Description: "Laptop", Category: "2. Equipment", Total: 150_000_00, SourceRow: 6},
	}

	tests := []testCase{
		{
			name:        "Complete",
			rows:        rows,
			wantStatus:  http.StatusCreated,
			wantOutcome: "complete",
			wantMessage: "all 2 items imported",
		},
		{
			name:          "Partial",
			reject:        "Laptop",
			rows:          rows,
			wantStatus:    http.StatusCreated,
			wantOutcome:   "partial",
			wantMessage:   "1 of 2 items imported",
			wantFailedRow: 6,
		},
		{
			name:          "NothingImported",
			reject:        "Laptop",
			rows:          rows[1:],
			wantStatus:    http.StatusUnprocessableEntity,
			wantOutcome:   "failed",
			wantMessage:   "no items imported (1 failed)",
			wantFailedRow: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRouter(t, &rejectingStore{Store: memstore.New(), reject: tt.reject}, noMappings)

			rec := confirm(t, h, uuid.NewString(), tt.rows)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			var got confirmResult
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))

			assert.Equal(t, tt.wantOutcome, got.Outcome)
			assert.Equal(t, tt.wantMessage, got.Message)
			assert.Equal(t, len(tt.rows), got.Attempted)

			if tt.wantFailedRow != 0 {
				require.Len(t, got.Failures, 1)
				assert.Equal(t, tt.wantFailedRow, got.Failures[0].SourceRow)
				assert.Contains(t, got.Failures[0].Error, "rejected")
			}

			if tt.wantOutcome == "complete" {
				require.Len(t, got.Items, 2)
				assert.Equal(t, "Personnel", got.Items[0].Category)
				assert.Equal(t, "Equipment", got.Items[1].Category)
			}
		})
	}
}

func TestHandler_Confirm_Empty(t *testing.T) {
	h := newRouter(t, memstore.New(), noMappings)

	rec := confirm(t, h, uuid.NewString(), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
