package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

// ---------------------------------------------------------------------------
// readCursor
// ---------------------------------------------------------------------------

func TestReadCursor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mail.cursor")

	if got := readCursor(path); got != 0 {
		t.Errorf("missing cursor file should read as 0, got %d", got)
	}

	if err := os.WriteFile(path, []byte("1234"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := readCursor(path); got != 1234 {
		t.Errorf("readCursor = %d, want 1234", got)
	}

	// Corrupt or negative cursors reset rather than error.
	for _, bad := range []string{"garbage", "-5", ""} {
		if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
			t.Fatal(err)
		}
		if got := readCursor(path); got != 0 {
			t.Errorf("readCursor(%q) = %d, want 0", bad, got)
		}
	}
}
