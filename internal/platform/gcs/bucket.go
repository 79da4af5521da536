package gcs

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/evarahealth/clinic-backend/internal/platform/logger"
)

// UploadOptions mirrors the object-store operation shape the services depend
// on: content type, cache control, and a collision-avoidance flag. With
// Overwrite false the write carries a DoesNotExist precondition and fails if
// an object with the same key already exists.
type UploadOptions struct {
	ContentType  string
	CacheControl string
	Overwrite    bool
}

type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, opts UploadOptions) error
	Compose(ctx context.Context, dstKey string, srcKeys []string, opts UploadOptions) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	PublicURL(key string) string
}

type bucketStore struct {
	log           *logger.Logger
	storageClient *storage.Client
	bucketName    string
	cdnDomain     string
}

func NewObjectStore(log *logger.Logger) (ObjectStore, error) {
	storeLog := log.With("service", "ObjectStore")

	bucketName := os.Getenv("GCS_BUCKET_NAME")
	if bucketName == "" {
		return nil, fmt.Errorf("missing env var GCS_BUCKET_NAME")
	}
	cdnDomain := os.Getenv("CDN_DOMAIN")

	ctx := context.Background()
	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if saPath := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON")); saPath != "" {
		opts = append(opts, option.WithCredentialsFile(saPath))
	}
	stClient, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &bucketStore{
		log:           storeLog,
		storageClient: stClient,
		bucketName:    bucketName,
		cdnDomain:     cdnDomain,
	}, nil
}

func (bs *bucketStore) object(key string) *storage.ObjectHandle {
	return bs.storageClient.Bucket(bs.bucketName).Object(key)
}

func (bs *bucketStore) Upload(ctx context.Context, key string, r io.Reader, opts UploadOptions) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	o := bs.object(key)
	if !opts.Overwrite {
		o = o.If(storage.Conditions{DoesNotExist: true})
	}
	w := o.NewWriter(ctx)
	if opts.ContentType != "" {
		w.ContentType = opts.ContentType
	}
	if opts.CacheControl != "" {
		w.CacheControl = opts.CacheControl
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

// Compose concatenates srcKeys into dstKey in order. GCS caps a single
// compose at 32 components, so longer lists fold through an intermediate
// object.
func (bs *bucketStore) Compose(ctx context.Context, dstKey string, srcKeys []string, opts UploadOptions) error {
	if len(srcKeys) == 0 {
		return fmt.Errorf("compose %q: no source objects", dstKey)
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	const maxComponents = 32
	remaining := srcKeys
	intermediate := dstKey + ".composing"
	accumulated := ""
	for len(remaining) > 0 {
		batch := remaining
		if len(batch) > maxComponents {
			batch = batch[:maxComponents]
		}
		remaining = remaining[len(batch):]

		srcs := make([]*storage.ObjectHandle, 0, len(batch)+1)
		if accumulated != "" {
			srcs = append(srcs, bs.object(accumulated))
		}
		for _, k := range batch {
			srcs = append(srcs, bs.object(k))
		}

		target := intermediate
		if len(remaining) == 0 {
			target = dstKey
		}
		composer := bs.object(target).ComposerFrom(srcs...)
		if target == dstKey {
			if opts.ContentType != "" {
				composer.ContentType = opts.ContentType
			}
			if opts.CacheControl != "" {
				composer.CacheControl = opts.CacheControl
			}
		}
		if _, err := composer.Run(ctx); err != nil {
			return fmt.Errorf("compose %q: %w", target, err)
		}
		accumulated = target
	}
	if accumulated != dstKey {
		return fmt.Errorf("compose %q: did not converge", dstKey)
	}
	_ = bs.object(intermediate).Delete(ctx)
	return nil
}

// Keep the cancel alive until the caller closes the reader; cancelling before
// return would abort every read at 0 bytes.
type readCloserWithCancel struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *readCloserWithCancel) Close() error {
	err := r.ReadCloser.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}

func (bs *bucketStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Minute)
	r, err := bs.object(key).NewReader(ctx2)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open GCS reader: %w", err)
	}
	return &readCloserWithCancel{ReadCloser: r, cancel: cancel}, nil
}

func (bs *bucketStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := bs.object(key).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", key, bs.bucketName, err)
	}
	return nil
}

func (bs *bucketStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	it := bs.storageClient.Bucket(bs.bucketName).Objects(ctx, &storage.Query{Prefix: prefix})
	out := []string{}
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, attrs.Name)
	}
	return out, nil
}

func (bs *bucketStore) DeletePrefix(ctx context.Context, prefix string) error {
	keys, err := bs.ListKeys(ctx, prefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		_ = bs.Delete(ctx, k)
	}
	return nil
}

func (bs *bucketStore) PublicURL(key string) string {
	if bs.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", bs.cdnDomain, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bs.bucketName, key)
}
