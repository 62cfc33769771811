// Package boltstore keeps proof documents in a local bbolt file and serves them
// back through the API.
package boltstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/MrJamesThe3rd/grantledger/internal/attachment"
)

const bucketProofs = "proofs"

// ViewPath is the API route that serves stored proofs; the reference is appended.
const ViewPath = "/api/v1/attachments/"

type Store struct {
	db      *bolt.DB
	baseURL string
}

// New opens (or creates) the database at dbPath. baseURL is the public address
// of the API and prefixes every view URL.
func New(dbPath, baseURL string) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening attachment db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketProofs))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating bucket %s: %w", bucketProofs, err)
	}

	return &Store{db: db, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Store(_ context.Context, name, contentType string, data []byte) (string, error) {
	ref := uuid.NewString()

	value, err := json.Marshal(attachment.Object{
		Name:        attachment.SafeName(name),
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		return "", fmt.Errorf("encoding proof: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketProofs)).Put([]byte(ref), value)
	})
	if err != nil {
		return "", fmt.Errorf("storing proof: %w", err)
	}

	return ref, nil
}

func (s *Store) ViewURL(ctx context.Context, ref string) (string, error) {
	if _, err := s.Open(ctx, ref); err != nil {
		return "", err
	}

	return s.baseURL + ViewPath + url.PathEscape(ref), nil
}

// Open returns the stored proof for ref.
func (s *Store) Open(_ context.Context, ref string) (*attachment.Object, error) {
	var obj attachment.Object

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucketProofs)).Get([]byte(ref))
		if data == nil {
			return attachment.ErrNotFound
		}

		return json.Unmarshal(data, &obj)
	})
	if err != nil {
		return nil, err
	}

	return &obj, nil
}
