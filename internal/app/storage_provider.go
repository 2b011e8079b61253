package app

import (
	"errors"
	"fmt"

	"github.com/yungbote/civicpulse-backend/internal/platform/gcp"
	"github.com/yungbote/civicpulse-backend/internal/platform/logger"
)

var newPhotoBucket = gcp.NewPhotoBucket

type PhotoStorageErrorCode string

const (
	PhotoStorageInvalidMode   PhotoStorageErrorCode = "invalid_mode"
	PhotoStorageInvalidConfig PhotoStorageErrorCode = "invalid_config"
	PhotoStorageConnectFailed PhotoStorageErrorCode = "connect_failed"
)

// PhotoStorageError is returned when the photo bucket cannot be opened at startup.
type PhotoStorageError struct {
	Code   PhotoStorageErrorCode
	Reason gcp.ConfigErrorCode
	Mode   gcp.Mode
	Cause  error
}

func (e *PhotoStorageError) Error() string {
	if e == nil {
		return "photo storage unavailable"
	}
	return fmt.Sprintf("photo storage unavailable (code=%s mode=%q): %v", e.Code, e.Mode, e.Cause)
}

func (e *PhotoStorageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolvePhotoBucket returns the photo bucket for the configured storage
// mode, or nil when storage is disabled and uploads fall back to placeholders.
func resolvePhotoBucket(log *logger.Logger, cfg Config) (gcp.PhotoBucket, error) {
	storageCfg := cfg.Storage
	log = log.With("mode", storageCfg.Mode, "mode_source", storageCfg.ModeSource())

	if err := storageCfg.Validate(); err != nil {
		classified := classifyPhotoStorageError(storageCfg, err)
		log.Error("Photo storage config rejected", "error_code", classified.Code, "reason", classified.Reason, "error", err)
		return nil, classified
	}
	if storageCfg.Disabled() {
		log.Warn("Photo storage disabled; uploads return placeholder URLs")
		return nil, nil
	}

	bucket, err := newPhotoBucket(log, storageCfg)
	if err != nil {
		classified := classifyPhotoStorageError(storageCfg, err)
		log.Error("Photo storage bootstrap failed", "error_code", classified.Code, "error", err)
		return nil, classified
	}
	return bucket, nil
}

func classifyPhotoStorageError(storageCfg gcp.StorageConfig, err error) *PhotoStorageError {
	out := &PhotoStorageError{Code: PhotoStorageConnectFailed, Mode: storageCfg.Mode, Cause: err}
	var cfgErr *gcp.ConfigError
	if errors.As(err, &cfgErr) {
		out.Reason = cfgErr.Code
		out.Code = PhotoStorageInvalidConfig
		if cfgErr.Code == gcp.ErrCodeInvalidMode {
			out.Code = PhotoStorageInvalidMode
		}
	}
	return out
}
