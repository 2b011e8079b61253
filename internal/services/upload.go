package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/civicpulse-backend/internal/observability"
	"github.com/yungbote/civicpulse-backend/internal/platform/apierr"
	"github.com/yungbote/civicpulse-backend/internal/platform/ctxutil"
	"github.com/yungbote/civicpulse-backend/internal/platform/dbctx"
	"github.com/yungbote/civicpulse-backend/internal/platform/logger"
)

const DefaultUploadMaxBytes int64 = 10 << 20

const (
	uploadModeStorage     = "storage"
	uploadModePlaceholder = "placeholder"
)

// PhotoStore is the subset of the bucket service used for complaint photos.
type PhotoStore interface {
	UploadFile(dbc dbctx.Context, key string, file io.Reader, contentType string) error
	GetPublicURL(key string) string
}

type UploadInput struct {
	Filename string
	Size     int64
	Body     io.Reader
}

type UploadResult struct {
	URL         string `json:"url"`
	Key         string `json:"key,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

type UploadService interface {
	UploadPhoto(ctx context.Context, in UploadInput) (*UploadResult, error)
	MaxBytes() int64
}

type uploadService struct {
	log      *logger.Logger
	store    PhotoStore
	maxBytes int64
	now      func() time.Time
}

// NewUploadService returns a service that writes to store, or hands out
// placeholder URLs when store is nil.
func NewUploadService(log *logger.Logger, store PhotoStore, maxBytes int64) UploadService {
	if maxBytes <= 0 {
		maxBytes = DefaultUploadMaxBytes
	}
	return &uploadService{
		log:      log.With("service", "UploadService"),
		store:    store,
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

func (us *uploadService) MaxBytes() int64 { return us.maxBytes }

func (us *uploadService) UploadPhoto(ctx context.Context, in UploadInput) (*UploadResult, error) {
	userID, err := requestUserID(ctxutil.GetRequestData(ctx))
	if err != nil {
		return nil, err
	}
	if in.Body == nil {
		return nil, apierr.BadRequest("missing_file", "no file uploaded")
	}
	if in.Size > us.maxBytes {
		return nil, errFileTooLarge(us.maxBytes)
	}

	data, err := io.ReadAll(io.LimitReader(in.Body, us.maxBytes+1))
	if err != nil {
		return nil, apierr.BadRequest("invalid_file", "failed to read upload")
	}
	if len(data) == 0 {
		return nil, apierr.BadRequest("missing_file", "uploaded file is empty")
	}
	if int64(len(data)) > us.maxBytes {
		return nil, errFileTooLarge(us.maxBytes)
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		observability.Current().IncUpload(us.mode(), "rejected")
		return nil, apierr.BadRequest("invalid_file_type", "only image uploads are allowed")
	}

	if us.store == nil {
		observability.Current().IncUpload(us.mode(), "ok")
		return &UploadResult{URL: PlaceholderPhotoURL(us.now())}, nil
	}

	key := photoKey(userID, in.Filename, contentType)
	if err := us.store.UploadFile(dbctx.Context{Ctx: ctx}, key, bytes.NewReader(data), contentType); err != nil {
		observability.Current().IncUpload(us.mode(), "error")
		us.log.Error("Photo upload failed", "user_id", userID, "key", key, "error", err)
		return nil, internalError(fmt.Errorf("upload photo: %w", err))
	}
	observability.Current().IncUpload(us.mode(), "ok")
	us.log.Info("Photo uploaded", "user_id", userID, "key", key, "size", len(data))

	return &UploadResult{
		URL:         us.store.GetPublicURL(key),
		Key:         key,
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

func (us *uploadService) mode() string {
	if us.store == nil {
		return uploadModePlaceholder
	}
	return uploadModeStorage
}

func errFileTooLarge(max int64) error {
	return apierr.New(http.StatusRequestEntityTooLarge, "file_too_large",
		fmt.Errorf("file exceeds %d bytes", max))
}

// PlaceholderPhotoURL is returned when object storage is disabled.
func PlaceholderPhotoURL(now time.Time) string {
	return fmt.Sprintf("/placeholder.svg?height=400&width=600&query=civic-issue-photo-%d", now.UnixMilli())
}

func photoKey(userID uuid.UUID, filename, contentType string) string {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(filename)))
	if ext == "" || len(ext) > 6 {
		ext = ""
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	return fmt.Sprintf("complaints/%s/%s%s", userID, uuid.NewString(), ext)
}
