package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScratch_AcquireRelease(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scratch")
	ws := New(dir)

	if err := ws.Acquire(); err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("workspace directory missing after acquire: %v", err)
	}

	if err := ws.Release(); err != nil {
		t.Fatalf("Release() failed: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("workspace directory still exists after release: %s", dir)
	}
}

func TestScratch_AcquireClearsStaleState(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scratch")
	ws := New(dir)

	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(dir, "stale-artifact.mjs")
	if err := os.WriteFile(stale, []byte("leftover"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := ws.Acquire(); err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("stale file survived acquire: %s", stale)
	}
}

func TestScratch_ReleaseWithoutAcquire(t *testing.T) {
	ws := New(filepath.Join(t.TempDir(), "never-created"))
	if err := ws.Release(); err != nil {
		t.Fatalf("Release() on absent directory should be a no-op, got: %v", err)
	}
}

func TestScratch_AcquireIsIdempotent(t *testing.T) {
	ws := New(filepath.Join(t.TempDir(), "scratch"))
	for range 3 {
		if err := ws.Acquire(); err != nil {
			t.Fatalf("Acquire() failed: %v", err)
		}
	}
	t.Cleanup(func() { _ = ws.Release() })
}
