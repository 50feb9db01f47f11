package objectstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/dpp-pk/constructor-backend/internal/platform/apierr"
	"github.com/dpp-pk/constructor-backend/internal/platform/logger"
)

func TestConfigFromEnvDefaultsToLocal(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "")
	t.Setenv("DOCUMENTS_GCS_BUCKET_NAME", "")
	t.Setenv("LOCAL_STORAGE_DIR", "")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if cfg.Mode != ModeLocal || cfg.LocalDir == "" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestConfigFromEnvRejectsInvalidMode(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "s3")
	_, err := ConfigFromEnv()
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Code != ConfigErrorInvalidMode {
		t.Fatalf("expected invalid mode error, got %v", err)
	}
}

func TestValidateEmulatorRequiresAbsoluteHost(t *testing.T) {
	err := Validate(Config{Mode: ModeGCSEmulator, Bucket: "docs", EmulatorHost: "fake-gcs:4443"})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Code != ConfigErrorInvalidEmulatorHost {
		t.Fatalf("expected invalid emulator host, got %v", err)
	}
	if err := Validate(Config{Mode: ModeGCSEmulator, Bucket: "docs", EmulatorHost: "http://fake-gcs:4443"}); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateGCSRequiresBucket(t *testing.T) {
	err := Validate(Config{Mode: ModeGCS})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Code != ConfigErrorMissingBucket {
		t.Fatalf("expected missing bucket, got %v", err)
	}
}

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := New(ctx, logger.Nop(), Config{Mode: ModeLocal, LocalDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := store.Put(ctx, "programs/p1/v1.pdf", strings.NewReader("%PDF-1.3")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	rc, err := store.Open(ctx, "programs/p1/v1.pdf")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	raw, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(raw) != "%PDF-1.3" {
		t.Fatalf("unexpected content %q", raw)
	}

	if err := store.Delete(ctx, "programs/p1/v1.pdf"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Open(ctx, "programs/p1/v1.pdf"); !errors.Is(err, apierr.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	store, err := New(ctx, logger.Nop(), Config{Mode: ModeLocal, LocalDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := store.Put(ctx, "../escape.pdf", strings.NewReader("x")); err == nil {
		t.Fatalf("expected traversal key to be rejected")
	}
}
