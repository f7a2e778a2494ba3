package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNew(t *testing.T) {
	t.Run("writes to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "tada.log")
		l, err := New(Options{Level: "debug", File: path})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		l.Debug("request", "path", "/todos")
		if err := l.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
		b, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		out := string(b)
		if !strings.Contains(out, "tada") || !strings.Contains(out, "path=/todos") {
			t.Errorf("log output = %q", out)
		}
	})

	t.Run("empty file discards", func(t *testing.T) {
		l, err := New(Options{Level: "info"})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		l.Info("nothing to see")
		if err := l.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})

	t.Run("bad level", func(t *testing.T) {
		if _, err := New(Options{Level: "loud"}); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestNewWithWriterLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, log.WarnLevel, "tada")
	l.Info("hidden")
	l.Warn("shown", "op", "delete")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info leaked at warn level: %q", out)
	}
	if !strings.Contains(out, "WARN") || !strings.Contains(out, "op=delete") {
		t.Errorf("output = %q", out)
	}
}
