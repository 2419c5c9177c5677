package syntax

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOptionsFromTOMLMissingFileUsesDefaults(t *testing.T) {
	opts, err := OptionsFromTOML(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.TabLength != defaultTabLength {
		t.Errorf("expected default tab length %d, got %d", defaultTabLength, opts.TabLength)
	}
	if opts.ChunkSize != defaultChunkSize {
		t.Errorf("expected default chunk size %d, got %d", defaultChunkSize, opts.ChunkSize)
	}
	if opts.LargeFileMode {
		t.Error("expected large file mode to default to false")
	}
}

func TestOptionsFromTOMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "syntax.toml")
	contents := `
[syntax]
tabLength = 4
chunkSize = 50
largeFileMode = true
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	opts, err := OptionsFromTOML(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.TabLength != 4 {
		t.Errorf("expected tab length 4, got %d", opts.TabLength)
	}
	if opts.ChunkSize != 50 {
		t.Errorf("expected chunk size 50, got %d", opts.ChunkSize)
	}
	if !opts.LargeFileMode {
		t.Error("expected large file mode to be true")
	}
}

func TestNewSettingsRegistryRegistersTunables(t *testing.T) {
	r := NewSettingsRegistry()
	for _, path := range []string{"syntax.tabLength", "syntax.chunkSize", "syntax.largeFileMode"} {
		if !r.Has(path) {
			t.Errorf("expected %s to be registered", path)
		}
	}
}
