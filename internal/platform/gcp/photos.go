package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/civicpulse-backend/internal/platform/dbctx"
	"github.com/yungbote/civicpulse-backend/internal/platform/logger"
)

const uploadTimeout = 2 * time.Minute

// ErrStorageDisabled is returned when a bucket is requested in disabled mode.
var ErrStorageDisabled = errors.New("photo storage disabled")

// PhotoBucket stores complaint photos in a single bucket.
type PhotoBucket interface {
	UploadFile(dbc dbctx.Context, key string, file io.Reader, contentType string) error
	GetPublicURL(key string) string
	Close() error
}

type photoBucket struct {
	log    *logger.Logger
	client *storage.Client
	cfg    StorageConfig
}

func NewPhotoBucket(log *logger.Logger, cfg StorageConfig) (PhotoBucket, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate photo storage config: %w", err)
	}
	if cfg.Disabled() {
		return nil, ErrStorageDisabled
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	client, err := newStorageClient(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	pb := &photoBucket{log: log.With("service", "PhotoBucket"), client: client, cfg: cfg}
	pb.log.Info("Photo storage initialized",
		"mode", cfg.Mode,
		"mode_source", cfg.ModeSource(),
		"bucket", cfg.Bucket,
		"public_url_example", pb.GetPublicURL("complaints/example.jpg"),
	)
	return pb, nil
}

func newStorageClient(ctx context.Context, cfg StorageConfig) (*storage.Client, error) {
	if cfg.Emulated() {
		// The storage client only honours the emulator through the environment.
		if err := os.Setenv("STORAGE_EMULATOR_HOST", cfg.EmulatorHost); err != nil {
			return nil, err
		}
		return storage.NewClient(ctx, option.WithoutAuthentication())
	}
	opts := append(clientOptions(cfg.Credentials), option.WithScopes(storage.ScopeReadWrite))
	return storage.NewClient(ctx, opts...)
}

func (pb *photoBucket) UploadFile(dbc dbctx.Context, key string, file io.Reader, contentType string) error {
	ctx, cancel := context.WithTimeout(dbc.Context(), uploadTimeout)
	defer cancel()

	w := pb.client.Bucket(pb.cfg.Bucket).Object(key).NewWriter(ctx)
	if contentType == "" {
		contentType = contentTypeForKey(key)
	}
	w.ContentType = contentType
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("write %q to bucket %q: %w", key, pb.cfg.Bucket, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize %q in bucket %q: %w", key, pb.cfg.Bucket, err)
	}
	return nil
}

// GetPublicURL prefers the CDN domain, then the emulator media endpoint,
// then the configured public base URL, then the public GCS host.
func (pb *photoBucket) GetPublicURL(key string) string {
	return publicURL(pb.cfg, key)
}

func publicURL(cfg StorageConfig, key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	switch {
	case cfg.CDNDomain != "":
		return fmt.Sprintf("https://%s/%s", cfg.CDNDomain, key)
	case cfg.Emulated():
		base := cfg.PublicBaseURL
		if base == "" {
			base = cfg.EmulatorHost
		}
		return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", base, url.PathEscape(cfg.Bucket), url.PathEscape(key))
	case cfg.PublicBaseURL != "":
		return fmt.Sprintf("%s/%s/%s", cfg.PublicBaseURL, cfg.Bucket, key)
	default:
		return fmt.Sprintf("https://storage.googleapis.com/%s/%s", cfg.Bucket, key)
	}
}

func contentTypeForKey(key string) string {
	if i := strings.IndexByte(key, '?'); i >= 0 {
		key = key[:i]
	}
	ct := mime.TypeByExtension(strings.ToLower(path.Ext(key)))
	if !strings.HasPrefix(ct, "image/") {
		return ""
	}
	return ct
}

func (pb *photoBucket) Close() error {
	if pb == nil || pb.client == nil {
		return nil
	}
	return pb.client.Close()
}
