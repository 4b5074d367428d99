package media

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore keeps media in a Google Cloud Storage bucket with public-read objects
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSClient creates a Google Cloud Storage client. If credsPath is empty, ADC is used.
func NewGCSClient(ctx context.Context, credsPath string) (*storage.Client, error) {
	if credsPath == "" {
		return storage.NewClient(ctx)
	}
	return storage.NewClient(ctx, option.WithCredentialsFile(credsPath))
}

// NewGCSStore wraps an existing client
func NewGCSStore(client *storage.Client, bucket string) *GCSStore {
	return &GCSStore{client: client, bucket: bucket}
}

func (s *GCSStore) Save(ctx context.Context, folder, ext, contentType string, r io.Reader) (string, error) {
	ref := NewRef(folder, ext)
	wc := s.client.Bucket(s.bucket).Object(ref).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("upload to gcs: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("finalize gcs upload: %w", err)
	}
	return ref, nil
}

func (s *GCSStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	cleaned, err := CleanRef(ref)
	if err != nil {
		return nil, err
	}
	rc, err := s.client.Bucket(s.bucket).Object(cleaned).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rc, nil
}

func (s *GCSStore) Delete(ctx context.Context, ref string) error {
	cleaned, err := CleanRef(ref)
	if err != nil {
		return err
	}
	if err := s.client.Bucket(s.bucket).Object(cleaned).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete gcs object: %w", err)
	}
	return nil
}

// URL builds a public URL for an object (assuming public read access)
func (s *GCSStore) URL(ref string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, ref)
}
