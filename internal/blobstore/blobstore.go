// Package blobstore reads and writes statement documents in Google Cloud
// Storage. Documents are referenced by gs:// URI throughout the engine.
package blobstore

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// Fetch downloads the bytes behind a gs:// URI.
func Fetch(ctx context.Context, gcsURI string) ([]byte, error) {
	bucket, object, err := splitURI(gcsURI)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("blobstore.Fetch: create client: %w", err)
	}
	defer client.Close()

	rc, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("blobstore.Fetch: open %s: %w", gcsURI, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("blobstore.Fetch: read %s: %w", gcsURI, err)
	}
	return data, nil
}

// Upload streams r into the bucket under objectName and returns the gs:// URI.
func Upload(ctx context.Context, bucket, objectName string, contentType string, r io.Reader) (string, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("blobstore.Upload: create client: %w", err)
	}
	defer client.Close()

	w := client.Bucket(bucket).Object(objectName).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("blobstore.Upload: copy: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("blobstore.Upload: finalize: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", bucket, objectName), nil
}

// List returns the object names under prefix.
func List(ctx context.Context, bucket, prefix string) ([]string, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("blobstore.List: create client: %w", err)
	}
	defer client.Close()

	var names []string
	it := client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("blobstore.List: %w", err)
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}

// Filename extracts the base filename from a gs:// URI.
func Filename(gcsURI string) string {
	_, object, err := splitURI(gcsURI)
	if err != nil {
		return gcsURI
	}
	return path.Base(object)
}

func splitURI(gcsURI string) (bucket, object string, err error) {
	if !strings.HasPrefix(gcsURI, "gs://") {
		return "", "", fmt.Errorf("blobstore: invalid GCS URI %q", gcsURI)
	}
	parts := strings.SplitN(strings.TrimPrefix(gcsURI, "gs://"), "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", fmt.Errorf("blobstore: GCS URI %q has no object path", gcsURI)
	}
	return parts[0], parts[1], nil
}
