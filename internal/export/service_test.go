package export_test

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/grantledger/internal/budget"
	"github.com/MrJamesThe3rd/grantledger/internal/budget/memstore"
	"github.com/MrJamesThe3rd/grantledger/internal/export"
)

// urlAttachments hands out URLs on a test server keyed by the stored name.
type urlAttachments struct {
	baseURL string
}

func (u *urlAttachments) Store(_ context.Context, name, _ string, _ []byte) (string, error) {
	return name, nil
}

func (u *urlAttachments) ViewURL(_ context.Context, ref string) (string, error) {
	return u.baseURL + "/" + ref, nil
}

func TestService_Export(t *testing.T) {
	var gotAuth string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		switch r.URL.Path {
		case "/receipt":
			w.Header().Set("Content-Type", "application/pdf")
			w.Header().Set("Content-Disposition", `attachment; filename="hotel receipt.pdf"`)
			_, _ = w.Write([]byte("fake pdf content"))
		case "/scan":
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte("fake scan"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	ctx := context.Background()
	ledger := budget.NewService(memstore.New(), nil, &urlAttachments{baseURL: ts.URL})
	grantID := uuid.New()

	hotel, err := ledger.CreateItem(ctx, budget.CreateItemParams{GrantID: grantID, Description: "Hotel", Category: "Travel", Price: 100_000})
	require.NoError(t, err)

	record := func(desc string, amount int64, proof string) *budget.Transaction {
		params := budget.RecordParams{ItemID: hotel.ID, Amount: amount, Description: desc}
		if proof != "" {
			params.Proof = &budget.Proof{Name: proof, ContentType: "application/pdf"}
		}

		res, err := ledger.RecordTransaction(ctx, params)
		require.NoError(t, err)

		return res.Transaction
	}

	tx1 := record("Night one", 40_000, "receipt")
	tx2 := record("Night two", 40_000, "scan")
	tx3 := record("Taxi", 5_000, "")

	dir := t.TempDir()

	items, err := export.NewService(ledger, "test-token").Export(ctx, grantID, dir)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "Bearer test-token", gotAuth)

	assert.Equal(t, tx1.ID, items[0].Transaction.ID)
	assert.Equal(t, hotel.ID, items[0].BudgetItem.ID)
	assert.Equal(t, tx1.ID.String()[:8]+"_hotel_receipt.pdf", filepath.Base(items[0].FilePath))

	content, err := os.ReadFile(items[0].FilePath)
	require.NoError(t, err)
	assert.Equal(t, "fake pdf content", string(content))

	assert.Equal(t, tx2.ID, items[1].Transaction.ID)
	assert.True(t, strings.HasPrefix(filepath.Base(items[1].FilePath), tx2.ID.String()[:8]+"_"))
	assert.True(t, strings.HasSuffix(items[1].FilePath, "_Night_two.pdf"))

	assert.Equal(t, tx3.ID, items[2].Transaction.ID)
	assert.Empty(t, items[2].FilePath)

	summary, err := ledger.Summary(ctx, grantID)
	require.NoError(t, err)

	report := export.GenerateReport(summary, items)
	assert.Contains(t, report, "Planned 1000.00 | Spent 850.00 | Remaining 150.00")
	assert.Contains(t, report, "| Hotel | Taxi | 50.00 | No proof")
	assert.Contains(t, report, "| Hotel | Night one | 400.00 | "+filepath.Base(items[0].FilePath))

	var buf bytes.Buffer
	require.NoError(t, export.WriteArchive(&buf, report, items))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}

	assert.Equal(t, []string{
		"report.txt",
		"proofs/" + filepath.Base(items[0].FilePath),
		"proofs/" + filepath.Base(items[1].FilePath),
	}, names)

	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, report, string(got))
}

func TestService_ExportProofMissing(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	ctx := context.Background()
	ledger := budget.NewService(memstore.New(), nil, &urlAttachments{baseURL: ts.URL})
	grantID := uuid.New()

	item, err := ledger.CreateItem(ctx, budget.CreateItemParams{GrantID: grantID, Description: "Laptop", Price: 10})
	require.NoError(t, err)

	_, err = ledger.RecordTransaction(ctx, budget.RecordParams{
		ItemID: item.ID,
		Amount: 10,
		Proof:  &budget.Proof{Name: "gone"},
	})
	require.NoError(t, err)

	_, err = export.NewService(ledger, "").Export(ctx, grantID, t.TempDir())
	assert.ErrorContains(t, err, "unexpected status code 404")
}
