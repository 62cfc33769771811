package budget_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/grantledger/internal/budget"
	"github.com/MrJamesThe3rd/grantledger/internal/budget/memstore"
	"github.com/MrJamesThe3rd/grantledger/internal/category"
)

var errStoreRejected = errors.New("store rejected record")

// rejectingStore fails CreateItem for the listed descriptions.
type rejectingStore struct {
	*memstore.Store
	reject map[string]bool
}

func (r *rejectingStore) CreateItem(ctx context.Context, item *budget.Item) error {
	if r.reject[item.Description] {
		return errStoreRejected
	}

	return r.Store.CreateItem(ctx, item)
}

func newRejectingService(reject ...string) (*budget.Service, *memstore.Store) {
	store := memstore.New()
	set := make(map[string]bool, len(reject))

	for _, d := range reject {
		set[d] = true
	}

	return budget.NewService(&rejectingStore{Store: store, reject: set}, nil, nil), store
}

func fiveRows() []budget.ParsedRow {
	return []budget.ParsedRow{
		{Description: "Research assistant", Category: "Personnel", Total: 300_000_00, SourceRow: 3},
		{Description: "Laptop", Category: "Equipment", Total: 150_000_00, SourceRow: 5},
		{Description: "Printer toner", Category: "Supplies", Total: 20_000_00, SourceRow: 7},
		{Description: "Survey licence", Category: "Data", Total: 45_000_00, SourceRow: 9},
		{Description: "Field trip", Category: "Travels", Total: 80_000_00, SourceRow: 11},
	}
}

func TestImportBatch_AllSucceed(t *testing.T) {
	svc, store := newRejectingService()
	grantID := uuid.New()

	res, err := svc.ImportBatch(context.Background(), grantID, fiveRows())
	require.NoError(t, err)

	assert.Equal(t, budget.ImportComplete, res.Outcome())
	assert.Equal(t, "all 5 items imported", res.Message())
	assert.Empty(t, res.Failures)

	items, err := store.ListItems(context.Background(), budget.ItemFilter{GrantID: &grantID})
	require.NoError(t, err)
	require.Len(t, items, 5)

	for _, item := range items {
		assert.Equal(t, budget.StatusPlanned, item.Status)
		assert.Equal(t, grantID, item.GrantID)
	}

	assert.Equal(t, category.Personnel, items[0].Category)
	assert.Equal(t, category.Travels, items[4].Category)
}

func TestImportBatch_PartialFailure(t *testing.T) {
	svc, store := newRejectingService("Printer toner")
	grantID := uuid.New()

	progress := make(chan budget.Progress, 5)

	res, err := svc.ImportBatch(context.Background(), grantID, fiveRows(), budget.WithProgress(progress))
	require.NoError(t, err)
	close(progress)

	assert.Equal(t, 5, res.Attempted)
	assert.Equal(t, 4, res.Succeeded)
	assert.Equal(t, 1, res.Failed())
	assert.Equal(t, budget.ImportPartial, res.Outcome())
	assert.Equal(t, "4 of 5 items imported", res.Message())

	require.Len(t, res.Failures, 1)
	assert.Equal(t, 2, res.Failures[0].Index)
	assert.Equal(t, 7, res.Failures[0].Row.SourceRow)
	assert.ErrorIs(t, res.Failures[0].Err, errStoreRejected)

	items, err := store.ListItems(context.Background(), budget.ItemFilter{GrantID: &grantID})
	require.NoError(t, err)
	require.Len(t, items, 4)

	for _, item := range items {
		assert.NotEqual(t, "Printer toner", item.Description)
	}

	var seen []budget.Progress
	for p := range progress {
		seen = append(seen, p)
	}

	require.Len(t, seen, 5)

	for i, p := range seen {
		assert.Equal(t, i+1, p.Done)
		assert.Equal(t, 5, p.Total)
	}

	assert.Equal(t, 4, seen[4].Succeeded)
}

func TestImportBatch_AllFail(t *testing.T) {
	rows := fiveRows()
	reject := make([]string, 0, len(rows))

	for _, r := range rows {
		reject = append(reject, r.Description)
	}

	svc, _ := newRejectingService(reject...)

	res, err := svc.ImportBatch(context.Background(), uuid.New(), rows)
	assert.ErrorIs(t, err, budget.ErrNothingImported)
	require.NotNil(t, res)
	assert.Equal(t, budget.ImportFailed, res.Outcome())
	assert.Equal(t, "no items imported (5 failed)", res.Message())
	assert.Len(t, res.Failures, 5)
}

func TestImportBatch_InvalidRowIsReported(t *testing.T) {
	svc, _ := newRejectingService()

	rows := []budget.ParsedRow{
		{Description: "Laptop", Category: "Equipment", Total: 100},
		{Description: "   ", Category: "Equipment", Total: 100},
	}

	res, err := svc.ImportBatch(context.Background(), uuid.New(), rows)
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	assert.ErrorIs(t, res.Failures[0].Err, budget.ErrEmptyDescription)
}

func TestImportBatch_Empty(t *testing.T) {
	svc, _ := newRejectingService()

	res, err := svc.ImportBatch(context.Background(), uuid.New(), nil)
	assert.ErrorIs(t, err, budget.ErrNothingToImport)
	assert.Nil(t, res)
}

func TestImportBatch_Workers(t *testing.T) {
	svc, store := newRejectingService("Laptop")
	grantID := uuid.New()

	var rows []budget.ParsedRow
	for range 10 {
		rows = append(rows, fiveRows()...)
	}

	progress := make(chan budget.Progress, len(rows))

	res, err := svc.ImportBatch(context.Background(), grantID, rows, budget.WithWorkers(4), budget.WithProgress(progress))
	require.NoError(t, err)
	close(progress)

	assert.Equal(t, 50, res.Attempted)
	assert.Equal(t, 40, res.Succeeded)
	assert.Equal(t, "40 of 50 items imported", res.Message())

	last := 0
	for p := range progress {
		assert.Equal(t, last+1, p.Done)
		last = p.Done
	}

	assert.Equal(t, 50, last)

	items, err := store.ListItems(context.Background(), budget.ItemFilter{GrantID: &grantID})
	require.NoError(t, err)
	assert.Len(t, items, 40)

	for i, f := range res.Failures {
		if i > 0 {
			assert.Greater(t, f.Index, res.Failures[i-1].Index)
		}
	}
}

func TestImportBatch_Cancelled(t *testing.T) {
	svc, store := newRejectingService()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := svc.ImportBatch(ctx, uuid.New(), fiveRows())
	assert.ErrorIs(t, err, budget.ErrNothingImported)
	require.NotNil(t, res)

	for _, f := range res.Failures {
		assert.ErrorIs(t, f.Err, context.Canceled)
	}

	items, err := store.ListItems(context.Background(), budget.ItemFilter{})
	require.NoError(t, err)
	assert.Empty(t, items)
}
