package boltstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/grantledger/internal/attachment"
	"github.com/MrJamesThe3rd/grantledger/internal/attachment/boltstore"
)

func newStore(t *testing.T) *boltstore.Store {
	t.Helper()

	s, err := boltstore.New(filepath.Join(t.TempDir(), "proofs.db"), "http://localhost:8080/")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	ref, err := s.Store(ctx, "../hotel receipt.pdf", "application/pdf", []byte("%PDF-1.7"))
	require.NoError(t, err)
	require.NotEmpty(t, ref)

	obj, err := s.Open(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "hotel_receipt.pdf", obj.Name)
	assert.Equal(t, "application/pdf", obj.ContentType)
	assert.Equal(t, []byte("%PDF-1.7"), obj.Data)

	url, err := s.ViewURL(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/api/v1/attachments/"+ref, url)
}

func TestStore_Missing(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.Open(ctx, "nope")
	assert.ErrorIs(t, err, attachment.ErrNotFound)

	_, err = s.ViewURL(ctx, "nope")
	assert.ErrorIs(t, err, attachment.ErrNotFound)
}

func TestStore_DistinctRefs(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	a, err := s.Store(ctx, "a.png", "image/png", []byte{1})
	require.NoError(t, err)

	b, err := s.Store(ctx, "a.png", "image/png", []byte{2})
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}
