package apitest

import (
	"net/http"
	"strings"
	"testing"
)

func post(t *testing.T, url, auth, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	return resp
}

func TestServer(t *testing.T) {
	s := New(t)
	s.AddUser("ann", "secret")
	tok := "Bearer " + s.IssueToken("ann")

	tests := []struct {
		name   string
		path   string
		auth   string
		body   string
		status int
	}{
		{"login ok", "/users/login", "", `{"username":"ann","password":"secret"}`, http.StatusOK},
		{"login wrong password", "/users/login", "", `{"username":"ann","password":"nope"}`, http.StatusUnauthorized},
		{"login missing field", "/users/login", "", `{"username":"ann"}`, http.StatusBadRequest},
		{"create without token", "/todos", "", `{"body":"x","complete":false}`, http.StatusUnauthorized},
		{"create with forged token", "/todos", "Bearer abc.def.ghi", `{"body":"x","complete":false}`, http.StatusUnauthorized},
		{"create wrong type", "/todos", tok, `{"body":1,"complete":false}`, http.StatusBadRequest},
		{"create ok", "/todos", tok, `{"body":"x","complete":false}`, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, s.URL+tt.path, tt.auth, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}

	if got := s.Todos("ann"); len(got) != 1 || got[0].Body != "x" {
		t.Errorf("Todos = %+v", got)
	}
	if n := len(s.Requests()); n != len(tests) {
		t.Errorf("recorded %d requests, want %d", n, len(tests))
	}
}

func TestServerFail(t *testing.T) {
	s := New(t)
	s.AddUser("ann", "secret")
	s.Fail(http.MethodPost, "/users/login", http.StatusServiceUnavailable)
	if resp := post(t, s.URL+"/users/login", "", `{"username":"ann","password":"secret"}`); resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	s.Recover()
	if resp := post(t, s.URL+"/users/login", "", `{"username":"ann","password":"secret"}`); resp.StatusCode != http.StatusOK {
		t.Fatalf("status after Recover = %d", resp.StatusCode)
	}
}
