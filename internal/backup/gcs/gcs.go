// Package gcs implements backup.ObjectStore on a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	goption "google.golang.org/api/option"

	"bookkeeper/internal/backup"
)

type Bucket struct {
	client *storage.Client
	name   string
}

var _ backup.ObjectStore = (*Bucket)(nil)

// New opens a client for bucketName. Without options it uses Application
// Default Credentials.
func New(ctx context.Context, bucketName string, opts ...goption.ClientOption) (*Bucket, error) {
	if bucketName == "" {
		return nil, errors.New("missing bucket name")
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Bucket{client: client, name: bucketName}, nil
}

func (b *Bucket) Put(ctx context.Context, name string, r io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := b.client.Bucket(b.name).Object(name).NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("copy to GCS writer: %w", err)
	}
	// Close finalizes the upload
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}
	return nil
}

func (b *Bucket) Get(ctx context.Context, name string) (io.ReadCloser, error) {
	r, err := b.client.Bucket(b.name).Object(name).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open GCS object reader %s/%s: %w", b.name, name, err)
	}
	return r, nil
}

func (b *Bucket) List(ctx context.Context, prefix string) ([]string, error) {
	it := b.client.Bucket(b.name).Objects(ctx, &storage.Query{Prefix: prefix})
	var names []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list gs://%s/%s: %w", b.name, prefix, err)
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}

// URI returns the gs:// address of an object in this bucket.
func (b *Bucket) URI(name string) string {
	return "gs://" + b.name + "/" + name
}

func (b *Bucket) Close() error {
	return b.client.Close()
}
