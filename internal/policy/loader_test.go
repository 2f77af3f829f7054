package policy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writePolicy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "posture-policy.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPolicy_Success(t *testing.T) {
	path := writePolicy(t, `
version: 1
domains:
  posture:
    min_severity: medium
rules:
  S3_ENCRYPTION_MISSING:
    enabled: false
  S3_PUBLIC_BUCKET:
    severity: critical
`)

	cfg, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Version != 1 {
		t.Fatalf("expected version 1")
	}
	if d := cfg.Domains["posture"]; d.Enabled != nil || d.MinSeverity != "medium" {
		t.Fatalf("unexpected domain config %+v", d)
	}
	if rc := cfg.Rules["S3_ENCRYPTION_MISSING"]; rc.Enabled == nil || *rc.Enabled {
		t.Fatalf("expected S3_ENCRYPTION_MISSING enabled=false")
	}
	if cfg.Rules["S3_PUBLIC_BUCKET"].Severity != "critical" {
		t.Fatalf("expected severity override")
	}
}

func TestLoadPolicy_InvalidVersion(t *testing.T) {
	_, err := LoadPolicy(writePolicy(t, "version: 2\n"))
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion; got %v", err)
	}
}

func TestLoadPolicy_EmptySectionsInitialised(t *testing.T) {
	cfg, err := LoadPolicy(writePolicy(t, "version: 1\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Domains == nil || cfg.Rules == nil {
		t.Fatal("expected non-nil Domains and Rules maps")
	}
}

func TestLoadPolicy_MissingFile(t *testing.T) {
	if _, err := LoadPolicy(filepath.Join(t.TempDir(), "absent.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error; got %v", err)
	}
}

func TestLoadPolicy_BadYAML(t *testing.T) {
	if _, err := LoadPolicy(writePolicy(t, "version: [1\n")); err == nil {
		t.Fatal("expected parse error")
	}
}
