package attachment_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/grantledger/internal/attachment/boltstore"
	attachmentHandler "github.com/MrJamesThe3rd/grantledger/internal/http/attachment"
)

func TestHandler_Get(t *testing.T) {
	store, err := boltstore.New(filepath.Join(t.TempDir(), "proofs.db"), "http://localhost")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	pdf, err := store.Store(context.Background(), "receipt.pdf", "application/pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)

	raw, err := store.Store(context.Background(), "scan", "", []byte{0x01, 0x02})
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Route("/attachments", attachmentHandler.NewHandler(store).Routes)

	type testCase struct {
		name            string
		ref             string
		wantStatus      int
		wantType        string
		wantDisposition string
		wantBody        string
	}

	tests := []testCase{
		{
			name:            "Stored",
			ref:             pdf,
			wantStatus:      http.StatusOK,
			wantType:        "application/pdf",
			wantDisposition: `attachment; filename="receipt.pdf"`,
			wantBody:        "%PDF-1.4",
		},
		{
			name:            "NoContentType",
			ref:             raw,
			wantStatus:      http.StatusOK,
			wantType:        "application/octet-stream",
			wantDisposition: `attachment; filename="scan"`,
			wantBody:        "\x01\x02",
		},
		{
			name:       "Unknown",
			ref:        "missing",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/attachments/"+tt.ref, nil))

			require.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantStatus != http.StatusOK {
				return
			}

			assert.Equal(t, tt.wantType, rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantDisposition, rec.Header().Get("Content-Disposition"))
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}
