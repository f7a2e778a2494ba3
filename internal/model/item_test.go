package model

import (
	"encoding/json"
	"testing"
)

func TestIDUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want ID
	}{
		{"number", `{"id": 12, "body": "a"}`, "12"},
		{"string", `{"id": "abc-1", "body": "a"}`, "abc-1"},
		{"null", `{"id": null, "body": "a"}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var td Todo
			if err := json.Unmarshal([]byte(tt.in), &td); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if td.ID != tt.want {
				t.Errorf("ID = %q, want %q", td.ID, tt.want)
			}
		})
	}

	t.Run("rejects objects", func(t *testing.T) {
		var td Todo
		if err := json.Unmarshal([]byte(`{"id": {"x": 1}}`), &td); err == nil {
			t.Fatal("expected error for object id")
		}
	})
}

func TestStats(t *testing.T) {
	items := []Todo{
		{ID: "1", Body: "a", Complete: true},
		{ID: "2", Body: "b"},
		{ID: "3", Body: "c"},
	}
	done, pending := Stats(items)
	if done != 1 || pending != 2 {
		t.Fatalf("Stats = %d/%d, want 1/2", done, pending)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := Truncate("abcdefghij", 8); got != "abcde..." {
		t.Errorf("got %q", got)
	}
	if got := Truncate("héllo wörld", 8); got != "héllo..." {
		t.Errorf("got %q", got)
	}
}
