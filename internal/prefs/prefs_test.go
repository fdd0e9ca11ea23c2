package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	s, err := NewFileStore("")
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	want := filepath.Join(home, ".config", "shelf", "prefs.toml")
	if s.Path() != want {
		t.Fatalf("Path = %q, want %q", s.Path(), want)
	}

	_, ok, err := s.Get("bookLibrary-theme")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if ok {
		t.Fatal("Get reported a value for a missing file")
	}
}

func TestFileStore_ReadsExistingFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	prefsDir := filepath.Join(home, ".config", "shelf")
	if err := os.MkdirAll(prefsDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	content := "bookLibrary-theme = '{\"isDark\":true,\"source\":\"user-preference\"}'\n"
	if err := os.WriteFile(filepath.Join(prefsDir, "prefs.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s, err := NewFileStore("")
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	got, ok, err := s.Get("bookLibrary-theme")
	if err != nil || !ok {
		t.Fatalf("Get = (%q, %v, %v)", got, ok, err)
	}
	if got != `{"isDark":true,"source":"user-preference"}` {
		t.Fatalf("value = %q", got)
	}
}

func TestFileStore_SetCreatesFileAndDirs(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "subdir", "prefs.toml")

	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	if err := s.Set("a", "1"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := s.Set("b", "2"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	for key, want := range map[string]string{"a": "1", "b": "2"} {
		got, ok, err := reopened.Get(key)
		if err != nil || !ok || got != want {
			t.Fatalf("Get(%q) = (%q, %v, %v), want %q", key, got, ok, err, want)
		}
	}
}

func TestFileStore_InvalidTOMLReportsErrorAndIsReplacedOnSet(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "prefs.toml")
	if err := os.WriteFile(path, []byte("not valid toml {{{\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	if _, _, err := s.Get("a"); err == nil {
		t.Fatal("expected parse error")
	}
	if err := s.Set("a", "1"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	got, ok, err := s.Get("a")
	if err != nil || !ok || got != "1" {
		t.Fatalf("Get = (%q, %v, %v)", got, ok, err)
	}
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	s := NewMemoryStore()
	if _, ok, _ := s.Get("k"); ok {
		t.Fatal("empty store reported a value")
	}
	if err := s.Set("k", "v"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if got, ok, _ := s.Get("k"); !ok || got != "v" {
		t.Fatalf("Get = (%q, %v)", got, ok)
	}
}
