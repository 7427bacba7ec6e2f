package fileutils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBackupFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "store.json")
	dst := filepath.Join(dir, "store.json.bak")

	// Missing src: no-op.
	copied, err := BackupFile(src, dst)
	if err != nil {
		t.Fatalf("backup missing src: %v", err)
	}
	if copied {
		t.Fatalf("expected copied=false for missing src")
	}

	if err := os.WriteFile(src, []byte(`{"a":1}`), 0o644); err != nil {
		t.Fatalf("write src: %v", err)
	}
	copied, err = BackupFile(src, dst)
	if err != nil {
		t.Fatalf("backup: %v", err)
	}
	if !copied {
		t.Fatalf("expected copied=true")
	}
	b, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read dst: %v", err)
	}
	if string(b) != `{"a":1}` {
		t.Fatalf("dst=%q", string(b))
	}
}

func TestWriteJSONAtomic_ReadJSON_RoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.json")

	in := map[string]int{"x": 3}
	if err := WriteJSONAtomic(path, in, true); err != nil {
		t.Fatalf("write: %v", err)
	}

	var out map[string]int
	if err := ReadJSON(path, &out); err != nil {
		t.Fatalf("read: %v", err)
	}
	if out["x"] != 3 {
		t.Fatalf("x=%d, want 3", out["x"])
	}

	// No temp files should be left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp_write_") {
			t.Fatalf("leftover temp file: %s", e.Name())
		}
	}
}

func TestWriteJSONAtomic_KeepsPreviousFileOnMarshalError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.json")
	if err := WriteJSONAtomic(path, map[string]int{"x": 1}, false); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := WriteJSONAtomic(path, make(chan int), false); err == nil {
		t.Fatalf("expected marshal error")
	}
	var out map[string]int
	if err := ReadJSON(path, &out); err != nil {
		t.Fatalf("previous file unreadable: %v", err)
	}
	if out["x"] != 1 {
		t.Fatalf("x=%d, want 1", out["x"])
	}
}

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	if got := TruncateForLog("  hello  ", 10); got != "hello" {
		t.Fatalf("got %q", got)
	}
	if got := TruncateForLog("hello world", 5); got != "hello…" {
		t.Fatalf("got %q", got)
	}
	if got := TruncateForLog("hello", 0); got != "hello" {
		t.Fatalf("got %q", got)
	}
}

func TestFlattenNewlines(t *testing.T) {
	t.Parallel()

	if got := FlattenNewlines("a\r\nb\rc\nd"); got != `a\nb\nc\nd` {
		t.Fatalf("got %q", got)
	}
}
