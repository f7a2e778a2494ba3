package jsonstore

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestStore(t *testing.T) {
	t.Run("empty path is rejected", func(t *testing.T) {
		if _, err := Open(""); err == nil {
			t.Fatal("expected error for empty path")
		}
	})

	t.Run("missing file reads as empty", func(t *testing.T) {
		s, err := Open(filepath.Join(t.TempDir(), "nope", "storage.json"))
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		v, ok, err := s.Get("token")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if ok || v != "" {
			t.Errorf("Get = %q, %v; want empty, false", v, ok)
		}
	})

	t.Run("set get remove", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "storage.json")
		s, _ := Open(path)
		if err := s.Set("token", "abc"); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if err := s.Set("other", "x"); err != nil {
			t.Fatalf("Set: %v", err)
		}

		// A second handle on the same file sees the write.
		s2, _ := Open(path)
		v, ok, err := s2.Get("token")
		if err != nil || !ok || v != "abc" {
			t.Fatalf("Get = %q, %v, %v", v, ok, err)
		}

		if err := s.Remove("token"); err != nil {
			t.Fatalf("Remove: %v", err)
		}
		if _, ok, _ := s2.Get("token"); ok {
			t.Error("token still present after Remove")
		}
		if v, _, _ := s2.Get("other"); v != "x" {
			t.Errorf("other = %q, want x", v)
		}
		if err := s.Remove("token"); err != nil {
			t.Errorf("second Remove: %v", err)
		}
	})

	t.Run("file is owner only", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("permission bits not meaningful on windows")
		}
		path := filepath.Join(t.TempDir(), "storage.json")
		s, _ := Open(path)
		if err := s.Set("token", "abc"); err != nil {
			t.Fatalf("Set: %v", err)
		}
		fi, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if perm := fi.Mode().Perm(); perm != 0o600 {
			t.Errorf("perm = %o, want 600", perm)
		}
	})

	t.Run("corrupt file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "storage.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
			t.Fatal(err)
		}
		s, _ := Open(path)
		if _, _, err := s.Get("token"); err == nil {
			t.Error("expected error for corrupt file")
		}
	})

	t.Run("null file reads as empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "storage.json")
		if err := os.WriteFile(path, []byte("null"), 0o600); err != nil {
			t.Fatal(err)
		}
		s, _ := Open(path)
		if _, ok, err := s.Get("token"); err != nil || ok {
			t.Fatalf("Get = %v, %v; want missing, nil", ok, err)
		}
		if err := s.Set("token", "abc"); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if v, _, _ := s.Get("token"); v != "abc" {
			t.Errorf("token = %q, want abc", v)
		}
		if err := s.Remove("token"); err != nil {
			t.Errorf("Remove: %v", err)
		}
	})
}
