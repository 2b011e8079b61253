package gcp

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/yungbote/civicpulse-backend/internal/platform/envutil"
)

type Mode string

const (
	ModeGCS      Mode = "gcs"
	ModeEmulator Mode = "gcs_emulator"
	// ModeDisabled stores nothing; uploads resolve to a placeholder image.
	ModeDisabled Mode = "disabled"
)

func (m Mode) Supported() bool {
	switch m {
	case ModeGCS, ModeEmulator, ModeDisabled:
		return true
	}
	return false
}

// StorageConfig selects where complaint photos are written and how their
// public URLs are built.
type StorageConfig struct {
	Mode          Mode
	EmulatorHost  string
	Bucket        string
	CDNDomain     string
	PublicBaseURL string
	Credentials   string
	// Inferred is set when the mode came from STORAGE_EMULATOR_HOST alone.
	Inferred bool
}

func (c StorageConfig) Disabled() bool { return c.Mode == ModeDisabled }
func (c StorageConfig) Emulated() bool { return c.Mode == ModeEmulator }

func (c StorageConfig) ModeSource() string {
	if c.Inferred {
		return "inferred_from_emulator_host"
	}
	return "explicit_or_default"
}

type ConfigErrorCode string

const (
	ErrCodeInvalidMode         ConfigErrorCode = "invalid_mode"
	ErrCodeMissingEmulatorHost ConfigErrorCode = "missing_emulator_host"
	ErrCodeInvalidEmulatorHost ConfigErrorCode = "invalid_emulator_host"
	ErrCodeMissingBucket       ConfigErrorCode = "missing_bucket"
	ErrCodeInvalidPublicURL    ConfigErrorCode = "invalid_public_url"
)

type ConfigError struct {
	Code  ConfigErrorCode
	Value string
	Cause error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid photo storage config"
	}
	switch e.Code {
	case ErrCodeInvalidMode:
		return fmt.Sprintf("invalid OBJECT_STORAGE_MODE=%q (allowed: %q, %q, %q)", e.Value, ModeGCS, ModeEmulator, ModeDisabled)
	case ErrCodeMissingEmulatorHost:
		return fmt.Sprintf("OBJECT_STORAGE_MODE=%q requires STORAGE_EMULATOR_HOST", ModeEmulator)
	case ErrCodeInvalidEmulatorHost:
		return fmt.Sprintf("invalid STORAGE_EMULATOR_HOST=%q; expected absolute URL like http://fake-gcs:4443", e.Value)
	case ErrCodeMissingBucket:
		return "PHOTO_GCS_BUCKET_NAME is required unless OBJECT_STORAGE_MODE=disabled"
	case ErrCodeInvalidPublicURL:
		return fmt.Sprintf("invalid OBJECT_STORAGE_PUBLIC_BASE_URL=%q; expected absolute URL", e.Value)
	}
	return "invalid photo storage config"
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// StorageConfigFromEnv reads the photo storage settings. With no explicit
// mode, an emulator host selects the emulator, a bucket name selects GCS, and
// anything else disables storage. The returned config carries the raw mode
// even when it fails validation.
func StorageConfigFromEnv() (StorageConfig, error) {
	cfg := StorageConfig{
		Mode:          Mode(strings.ToLower(envutil.String("OBJECT_STORAGE_MODE", ""))),
		EmulatorHost:  strings.TrimRight(envutil.String("STORAGE_EMULATOR_HOST", ""), "/"),
		Bucket:        envutil.String("PHOTO_GCS_BUCKET_NAME", ""),
		CDNDomain:     envutil.String("PHOTO_CDN_DOMAIN", ""),
		PublicBaseURL: strings.TrimRight(envutil.String("OBJECT_STORAGE_PUBLIC_BASE_URL", ""), "/"),
		Credentials:   envutil.String("GOOGLE_APPLICATION_CREDENTIALS_JSON", envutil.String("GOOGLE_APPLICATION_CREDENTIALS", "")),
	}
	if cfg.Mode == "" {
		switch {
		case cfg.EmulatorHost != "":
			cfg.Mode, cfg.Inferred = ModeEmulator, true
		case cfg.Bucket != "":
			cfg.Mode = ModeGCS
		default:
			cfg.Mode = ModeDisabled
		}
	}
	return cfg, cfg.Validate()
}

func (c StorageConfig) Validate() error {
	if !c.Mode.Supported() {
		return &ConfigError{Code: ErrCodeInvalidMode, Value: string(c.Mode)}
	}
	if c.Disabled() {
		return nil
	}
	if c.Emulated() {
		if c.EmulatorHost == "" {
			return &ConfigError{Code: ErrCodeMissingEmulatorHost}
		}
		if err := requireAbsoluteURL(c.EmulatorHost); err != nil {
			return &ConfigError{Code: ErrCodeInvalidEmulatorHost, Value: c.EmulatorHost, Cause: err}
		}
	}
	if c.Bucket == "" {
		return &ConfigError{Code: ErrCodeMissingBucket}
	}
	if c.PublicBaseURL != "" {
		if err := requireAbsoluteURL(c.PublicBaseURL); err != nil {
			return &ConfigError{Code: ErrCodeInvalidPublicURL, Value: c.PublicBaseURL, Cause: err}
		}
	}
	return nil
}

func requireAbsoluteURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%q is not an absolute URL", raw)
	}
	return nil
}
