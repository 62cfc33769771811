// Package gcs keeps proof documents in a Google Cloud Storage bucket and hands
// out short-lived signed URLs to view them.
package gcs

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/grantledger/internal/attachment"
)

const objectPrefix = "proofs/"

type Store struct {
	client *storage.Client
	bucket string
	ttl    time.Duration
}

// New creates a storage client with Application Default Credentials.
func New(ctx context.Context, bucket string, ttl time.Duration) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &Store{client: client, bucket: bucket, ttl: ttl}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ObjectName is where a proof called name is written.
func ObjectName(id uuid.UUID, name string) string {
	return objectPrefix + id.String() + "/" + attachment.SafeName(name)
}

// Store uploads the proof and returns its gs:// URI as the reference.
func (s *Store) Store(ctx context.Context, name, contentType string, data []byte) (string, error) {
	object := ObjectName(uuid.New(), name)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write proof to GCS: %w", err)
	}

	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload: %w", err)
	}

	return "gs://" + s.bucket + "/" + object, nil
}

// ViewURL signs a GET URL for the referenced object, valid for the store's TTL.
func (s *Store) ViewURL(_ context.Context, ref string) (string, error) {
	bucket, object, err := ParseRef(ref)
	if err != nil {
		return "", err
	}

	u, err := s.client.Bucket(bucket).SignedURL(object, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(s.ttl),
	})
	if err != nil {
		return "", fmt.Errorf("sign URL for %s: %w", ref, err)
	}

	return u, nil
}

// ParseRef splits a gs://bucket/object reference.
func ParseRef(ref string) (bucket, object string, err error) {
	if !strings.HasPrefix(ref, "gs://") {
		return "", "", fmt.Errorf("invalid GCS reference: %s", ref)
	}

	parts := strings.SplitN(strings.TrimPrefix(ref, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS reference (no object path): %s", ref)
	}

	return parts[0], parts[1], nil
}
