package store

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/idilsaglam/tada/internal/store/jsonstore"
	"github.com/idilsaglam/tada/internal/store/sqlitestore"
)

// Every backend must behave the same through the Slot interface.
func TestSlotConformance(t *testing.T) {
	for _, backend := range []string{BackendJSON, BackendSQLite, BackendMemory} {
		t.Run(backend, func(t *testing.T) {
			dir := t.TempDir()
			slot, err := Open(backend, dir)
			if err != nil {
				t.Fatalf("Open(%q): %v", backend, err)
			}
			defer slot.Close()

			if _, ok, err := slot.Get("todos"); err != nil || ok {
				t.Fatalf("Get on empty slot: ok=%v err=%v", ok, err)
			}

			first := []byte(`[{"id":1,"text":"a","completed":false}]`)
			if err := slot.Put("todos", first); err != nil {
				t.Fatalf("Put: %v", err)
			}
			got, ok, err := slot.Get("todos")
			if err != nil || !ok || !bytes.Equal(got, first) {
				t.Fatalf("Get after Put: %q ok=%v err=%v", got, ok, err)
			}

			second := []byte(`[]`)
			if err := slot.Put("todos", second); err != nil {
				t.Fatalf("second Put: %v", err)
			}
			got, _, _ = slot.Get("todos")
			if !bytes.Equal(got, second) {
				t.Errorf("Put should replace the value, got %q", got)
			}

			if _, ok, _ := slot.Get("other"); ok {
				t.Error("keys are not independent")
			}
		})
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open("redis", t.TempDir()); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestDurableBackendsSurviveReopen(t *testing.T) {
	for _, backend := range []string{BackendJSON, BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			dir := t.TempDir()
			slot, err := Open(backend, dir)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if err := slot.Put("todos", []byte(`[1]`)); err != nil {
				t.Fatalf("Put: %v", err)
			}
			slot.Close()

			again, err := Open(backend, dir)
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			defer again.Close()
			got, ok, err := again.Get("todos")
			if err != nil || !ok || string(got) != `[1]` {
				t.Errorf("after reopen: %q ok=%v err=%v", got, ok, err)
			}
		})
	}
}

func TestJSONStoreLayout(t *testing.T) {
	dir := t.TempDir()
	s := jsonstore.New(dir)

	if got, want := s.Path("todos"), filepath.Join(dir, "todos.json"); got != want {
		t.Errorf("Path: got %q, want %q", got, want)
	}
	if got := s.Path("../../etc/passwd"); filepath.Dir(got) != dir {
		t.Errorf("key escaped the data dir: %q", got)
	}

	if err := s.Put("todos", []byte("[]")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "todos.json" {
		t.Errorf("temp files left behind: %v", entries)
	}

	t.Run("creates missing data dir", func(t *testing.T) {
		nested := filepath.Join(dir, "a", "b")
		if err := jsonstore.New(nested).Put("todos", []byte("[]")); err != nil {
			t.Fatalf("Put: %v", err)
		}
		if _, err := os.Stat(filepath.Join(nested, "todos.json")); err != nil {
			t.Errorf("file not created: %v", err)
		}
	})

	t.Run("unreadable file is an error", func(t *testing.T) {
		bad := jsonstore.New(dir)
		if err := os.Mkdir(bad.Path("dir"), 0o755); err != nil {
			t.Fatal(err)
		}
		if _, _, err := bad.Get("dir"); err == nil {
			t.Error("expected error reading a directory")
		}
	})
}

func TestSQLiteInMemory(t *testing.T) {
	s, err := sqlitestore.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if err := s.Put("k", []byte("v")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if got, ok, _ := s.Get("k"); !ok || string(got) != "v" {
		t.Errorf("Get: %q ok=%v", got, ok)
	}
	if got := sqlitestore.DefaultPath(""); got != filepath.Join(".", "tada.db") {
		t.Errorf("DefaultPath: %q", got)
	}
}
