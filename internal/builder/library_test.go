package builder

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLibraryPath(t *testing.T) {
	dir := t.TempDir()
	gameDir := filepath.Join(dir, "railroad")
	if err := os.MkdirAll(gameDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range []string{"en_usd_preview.html", "en_usd_final.html"} {
		if err := os.WriteFile(filepath.Join(gameDir, name), []byte("<html></html>"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	library := NewLibrary(dir)

	if got := library.Path("railroad", "en_usd", true); got != filepath.Join(gameDir, "en_usd_preview.html") {
		t.Errorf("preview path = %q", got)
	}
	if got := library.Path("railroad", "en_usd", false); got != filepath.Join(gameDir, "en_usd_final.html") {
		t.Errorf("final path = %q", got)
	}
	if got := library.Path("railroad", "pt_brl", false); got != "" {
		t.Errorf("missing geo path = %q, want empty", got)
	}
	if got := library.Path("olympus", "en_usd", false); got != "" {
		t.Errorf("missing game path = %q, want empty", got)
	}
}
