package ingestion

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSHandler downloads resumes stored under a bucket prefix into the uploads directory
type GCSHandler struct {
	client     *storage.Client
	bucket     string
	prefix     string
	uploadsDir string
	progress   ProgressCallback
	logger     *slog.Logger
}

// NewGCSHandler creates a handler using application default credentials
func NewGCSHandler(ctx context.Context, bucket, prefix, uploadsDir string, cb ProgressCallback) (*GCSHandler, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSHandler{
		client:     client,
		bucket:     bucket,
		prefix:     prefix,
		uploadsDir: uploadsDir,
		progress:   cb,
		logger:     slog.Default(),
	}, nil
}

// Close releases the storage client
func (h *GCSHandler) Close() error {
	return h.client.Close()
}

// FetchToUploads copies every supported object under the prefix into the
// uploads directory and returns the local paths
func (h *GCSHandler) FetchToUploads(ctx context.Context) ([]string, error) {
	if err := os.MkdirAll(h.uploadsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}

	bkt := h.client.Bucket(h.bucket)
	it := bkt.Objects(ctx, &storage.Query{Prefix: h.prefix})

	var saved []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return saved, fmt.Errorf("failed to list gs://%s/%s: %w", h.bucket, h.prefix, err)
		}

		local, ok := objectLocalName(attrs.Name)
		if !ok {
			h.logger.Debug("skipping object", "object", attrs.Name)
			continue
		}

		dst := filepath.Join(h.uploadsDir, local)
		if err := h.download(ctx, bkt, attrs.Name, dst); err != nil {
			h.logger.Warn("failed to download object", "object", attrs.Name, "error", err)
			continue
		}

		saved = append(saved, dst)
		if h.progress != nil {
			h.progress(fmt.Sprintf("Downloaded: %s", local))
		}
	}

	h.logger.Info("fetched resumes from bucket", "bucket", h.bucket, "prefix", h.prefix, "count", len(saved))
	return saved, nil
}

func (h *GCSHandler) download(ctx context.Context, bkt *storage.BucketHandle, object, dst string) error {
	r, err := bkt.Object(object).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("failed to open object: %w", err)
	}
	defer r.Close()

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dst)
		return fmt.Errorf("failed to copy object: %w", err)
	}
	return f.Close()
}

// objectLocalName flattens an object name into a single filename.
// Folder placeholders and unsupported formats report false.
func objectLocalName(object string) (string, bool) {
	if object == "" || strings.HasSuffix(object, "/") {
		return "", false
	}
	if _, err := DetectFormat(path.Base(object)); err != nil {
		return "", false
	}
	name := strings.ReplaceAll(strings.Trim(object, "/"), "/", "_")
	return unsafeFilenameChars.ReplaceAllString(name, "_"), true
}
