package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Todo is a to-do entry as the remote service returns it.
// The client never mutates one locally; every change is a round-trip.
type Todo struct {
	ID       ID     `json:"id"`
	Body     string `json:"body"`
	Complete bool   `json:"complete"`
}

// ID identifies a Todo on the server. Backends hand out either numbers or
// strings, so both decode; it is always used as text in URL paths.
type ID string

func (id ID) String() string { return string(id) }

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Credentials are posted to the login endpoint.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is the login endpoint's response.
type LoginResult struct {
	Token string `json:"token"`
}

// Stats counts done and pending items.
func Stats(items []Todo) (done, pending int) {
	for _, it := range items {
		if it.Complete {
			done++
		} else {
			pending++
		}
	}
	return
}

// Truncate shortens s to max runes, ending with "..." when cut.
func Truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if max <= 3 || len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
