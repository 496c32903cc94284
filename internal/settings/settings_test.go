package settings

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestFileStoreRoundTrip tests saving and reloading settings
func TestFileStoreRoundTrip(t *testing.T) {
	tmp := t.TempDir()
	store, err := NewFileStore(filepath.Join(tmp, "nested", "settings.toml"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	dataRoot := filepath.Join(tmp, "trials")
	timelineDir := filepath.Join(tmp, "timelines")
	for _, dir := range []string{dataRoot, timelineDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("Failed to create fixture dir: %v", err)
		}
	}

	saved := Settings{DataRoot: dataRoot, TimelineDir: timelineDir}
	if err := store.Save(saved); err != nil {
		t.Fatalf("Failed to save settings: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}
	if loaded != saved {
		t.Errorf("Expected %+v, got %+v", saved, loaded)
	}

	// The file is TOML with the expected keys.
	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("Failed to read settings file: %v", err)
	}
	if !strings.Contains(string(data), "data_root_dir") || !strings.Contains(string(data), "timeline_dir") {
		t.Errorf("Unexpected file contents:\n%s", data)
	}
}

// TestFileStoreLoadMissingFile tests that an absent file yields zero settings
func TestFileStoreLoadMissingFile(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "settings.toml"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if loaded != (Settings{}) {
		t.Errorf("Expected zero settings, got %+v", loaded)
	}
}

// TestFileStoreDropsVanishedDirectories tests that stored directories which no
// longer exist are not offered back
func TestFileStoreDropsVanishedDirectories(t *testing.T) {
	tmp := t.TempDir()
	store, err := NewFileStore(filepath.Join(tmp, "settings.toml"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	kept := filepath.Join(tmp, "still-here")
	if err := os.MkdirAll(kept, 0o755); err != nil {
		t.Fatalf("Failed to create fixture dir: %v", err)
	}
	gone := filepath.Join(tmp, "removed")

	if err := store.Save(Settings{DataRoot: kept, TimelineDir: gone}); err != nil {
		t.Fatalf("Failed to save settings: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}
	if loaded.DataRoot != kept {
		t.Errorf("Expected DataRoot %q to survive, got %q", kept, loaded.DataRoot)
	}
	if loaded.TimelineDir != "" {
		t.Errorf("Expected vanished TimelineDir to be dropped, got %q", loaded.TimelineDir)
	}
}

// TestFileStoreLoadPartialFile tests decoding a file with only one key
func TestFileStoreLoadPartialFile(t *testing.T) {
	tmp := t.TempDir()
	dataRoot := filepath.Join(tmp, "trials")
	if err := os.MkdirAll(dataRoot, 0o755); err != nil {
		t.Fatalf("Failed to create fixture dir: %v", err)
	}

	path := filepath.Join(tmp, "settings.toml")
	content := "data_root_dir = " + tomlString(dataRoot) + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write settings file: %v", err)
	}

	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}
	if loaded.DataRoot != dataRoot || loaded.TimelineDir != "" {
		t.Errorf("Unexpected settings: %+v", loaded)
	}
}

// TestDefaultPath tests the home directory fallback
func TestDefaultPath(t *testing.T) {
	store, err := NewFileStore("")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if filepath.Base(store.Path()) != ".ttlearn.toml" {
		t.Errorf("Expected default file name .ttlearn.toml, got %s", store.Path())
	}
}

// tomlString quotes a path as a TOML string literal.
func tomlString(path string) string {
	return `'` + path + `'`
}
