package app

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/civicpulse-backend/internal/platform/dbctx"
	"github.com/yungbote/civicpulse-backend/internal/platform/gcp"
	"github.com/yungbote/civicpulse-backend/internal/platform/logger"
)

func TestClassifyPhotoStorageError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantCode   PhotoStorageErrorCode
		wantReason gcp.ConfigErrorCode
	}{
		{"invalid mode", &gcp.ConfigError{Code: gcp.ErrCodeInvalidMode}, PhotoStorageInvalidMode, gcp.ErrCodeInvalidMode},
		{"missing host", &gcp.ConfigError{Code: gcp.ErrCodeMissingEmulatorHost}, PhotoStorageInvalidConfig, gcp.ErrCodeMissingEmulatorHost},
		{"wrapped config error", errors.Join(errors.New("validate"), &gcp.ConfigError{Code: gcp.ErrCodeMissingBucket}), PhotoStorageInvalidConfig, gcp.ErrCodeMissingBucket},
		{"dial failure", errors.New("dial tcp: connection refused"), PhotoStorageConnectFailed, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyPhotoStorageError(gcp.StorageConfig{Mode: gcp.ModeGCS}, tc.err)
			assert.Equal(t, tc.wantCode, got.Code)
			assert.Equal(t, tc.wantReason, got.Reason)
			assert.ErrorIs(t, got, tc.err)
		})
	}
}

func TestResolvePhotoBucket(t *testing.T) {
	stub := &stubBucket{}
	cases := []struct {
		name     string
		storage  gcp.StorageConfig
		openErr  error
		wantCode PhotoStorageErrorCode
		wantNil  bool
	}{
		{name: "unknown mode", storage: gcp.StorageConfig{Mode: "s3"}, wantCode: PhotoStorageInvalidMode},
		{name: "disabled", storage: gcp.StorageConfig{Mode: gcp.ModeDisabled}, wantNil: true},
		{name: "gcs", storage: gcp.StorageConfig{Mode: gcp.ModeGCS, Bucket: "photos"}},
		{name: "emulator", storage: gcp.StorageConfig{Mode: gcp.ModeEmulator, Bucket: "photos", EmulatorHost: "http://fake-gcs:4443"}},
		{name: "emulator without host", storage: gcp.StorageConfig{Mode: gcp.ModeEmulator, Bucket: "photos"}, wantCode: PhotoStorageInvalidConfig},
		{name: "gcs without bucket", storage: gcp.StorageConfig{Mode: gcp.ModeGCS}, wantCode: PhotoStorageInvalidConfig},
		{
			name:     "client failure",
			storage:  gcp.StorageConfig{Mode: gcp.ModeGCS, Bucket: "photos"},
			openErr:  errors.New("credentials: not found"),
			wantCode: PhotoStorageConnectFailed,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			orig := newPhotoBucket
			t.Cleanup(func() { newPhotoBucket = orig })

			var opened *gcp.StorageConfig
			newPhotoBucket = func(_ *logger.Logger, cfg gcp.StorageConfig) (gcp.PhotoBucket, error) {
				opened = &cfg
				if tc.openErr != nil {
					return nil, tc.openErr
				}
				return stub, nil
			}

			got, err := resolvePhotoBucket(logger.Nop(), Config{Storage: tc.storage})
			if tc.wantCode != "" {
				var storageErr *PhotoStorageError
				require.ErrorAs(t, err, &storageErr)
				assert.Equal(t, tc.wantCode, storageErr.Code)
				return
			}
			require.NoError(t, err)
			if tc.wantNil {
				assert.Nil(t, got)
				assert.Nil(t, opened, "bucket opened in disabled mode")
				return
			}
			assert.Same(t, stub, got)
			require.NotNil(t, opened)
			assert.Equal(t, tc.storage, *opened)
		})
	}
}

type stubBucket struct{ uploads int }

func (s *stubBucket) UploadFile(dbctx.Context, string, io.Reader, string) error {
	s.uploads++
	return nil
}
func (*stubBucket) GetPublicURL(key string) string { return "https://storage.test/" + key }
func (*stubBucket) Close() error                   { return nil }
