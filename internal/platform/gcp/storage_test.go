package gcp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setStorageEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for _, k := range []string{
		"OBJECT_STORAGE_MODE", "STORAGE_EMULATOR_HOST", "PHOTO_GCS_BUCKET_NAME", "PHOTO_CDN_DOMAIN",
		"OBJECT_STORAGE_PUBLIC_BASE_URL", "GOOGLE_APPLICATION_CREDENTIALS_JSON", "GOOGLE_APPLICATION_CREDENTIALS",
	} {
		t.Setenv(k, env[k])
	}
}

func TestStorageConfigFromEnv(t *testing.T) {
	cases := []struct {
		name         string
		env          map[string]string
		wantMode     Mode
		wantInferred bool
		wantCode     ConfigErrorCode
	}{
		{name: "nothing set", env: nil, wantMode: ModeDisabled},
		{name: "bucket implies gcs", env: map[string]string{"PHOTO_GCS_BUCKET_NAME": "civic-photos"}, wantMode: ModeGCS},
		{
			name:         "emulator host implies emulator",
			env:          map[string]string{"STORAGE_EMULATOR_HOST": "http://fake-gcs:4443/", "PHOTO_GCS_BUCKET_NAME": "civic-photos"},
			wantMode:     ModeEmulator,
			wantInferred: true,
		},
		{
			name:     "explicit disabled wins over bucket",
			env:      map[string]string{"OBJECT_STORAGE_MODE": "DISABLED", "PHOTO_GCS_BUCKET_NAME": "civic-photos"},
			wantMode: ModeDisabled,
		},
		{name: "unknown mode", env: map[string]string{"OBJECT_STORAGE_MODE": "s3"}, wantMode: "s3", wantCode: ErrCodeInvalidMode},
		{
			name:     "emulator without host",
			env:      map[string]string{"OBJECT_STORAGE_MODE": "gcs_emulator", "PHOTO_GCS_BUCKET_NAME": "b"},
			wantMode: ModeEmulator,
			wantCode: ErrCodeMissingEmulatorHost,
		},
		{
			name:     "emulator with relative host",
			env:      map[string]string{"OBJECT_STORAGE_MODE": "gcs_emulator", "STORAGE_EMULATOR_HOST": "fake-gcs:4443", "PHOTO_GCS_BUCKET_NAME": "b"},
			wantMode: ModeEmulator,
			wantCode: ErrCodeInvalidEmulatorHost,
		},
		{name: "gcs without bucket", env: map[string]string{"OBJECT_STORAGE_MODE": "gcs"}, wantMode: ModeGCS, wantCode: ErrCodeMissingBucket},
		{
			name:     "bad public base url",
			env:      map[string]string{"PHOTO_GCS_BUCKET_NAME": "b", "OBJECT_STORAGE_PUBLIC_BASE_URL": "localhost:4443"},
			wantMode: ModeGCS,
			wantCode: ErrCodeInvalidPublicURL,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setStorageEnv(t, tc.env)

			cfg, err := StorageConfigFromEnv()
			assert.Equal(t, tc.wantMode, cfg.Mode)
			assert.Equal(t, tc.wantInferred, cfg.Inferred)
			if tc.wantCode == "" {
				require.NoError(t, err)
				return
			}
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, tc.wantCode, cfgErr.Code)
			assert.NotEmpty(t, cfgErr.Error())
		})
	}
}

func TestStorageConfigFromEnvTrimsURLs(t *testing.T) {
	setStorageEnv(t, map[string]string{
		"STORAGE_EMULATOR_HOST":          "http://fake-gcs:4443/",
		"OBJECT_STORAGE_PUBLIC_BASE_URL": "http://localhost:4443/",
		"PHOTO_GCS_BUCKET_NAME":          "civic-photos",
	})
	cfg, err := StorageConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://fake-gcs:4443", cfg.EmulatorHost)
	assert.Equal(t, "http://localhost:4443", cfg.PublicBaseURL)
	assert.Equal(t, "inferred_from_emulator_host", cfg.ModeSource())
}

func TestModeSupported(t *testing.T) {
	for _, m := range []Mode{ModeGCS, ModeEmulator, ModeDisabled} {
		assert.True(t, m.Supported(), m)
	}
	assert.False(t, Mode("").Supported())
	assert.False(t, Mode("s3").Supported())
}
