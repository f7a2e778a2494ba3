// Package session keeps the bearer token in persistent key-value storage.
package session

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Key is the storage key the token lives under.
const Key = "token"

// EnvVar overrides the stored token when set.
const EnvVar = "TADA_TOKEN"

// KV is the persistent storage the session reads and writes.
// jsonstore.Store satisfies it.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// Source tells where a token came from.
type Source string

const (
	SourceEnv     Source = "env"
	SourceStorage Source = "storage"
)

// Info describes the current token.
type Info struct {
	Token  string
	Source Source
}

// ErrEnvToken is returned by Clear when the token comes from the environment.
var ErrEnvToken = errors.New("token is provided by " + EnvVar + " (nothing to delete)")

// Session is the get/set/clear view over the token.
type Session struct {
	kv     KV
	getenv func(string) string
}

// New returns a Session backed by kv that honours TADA_TOKEN.
func New(kv KV) *Session {
	return &Session{kv: kv, getenv: os.Getenv}
}

// WithoutEnv returns a Session that ignores TADA_TOKEN.
func WithoutEnv(kv KV) *Session {
	return &Session{kv: kv, getenv: func(string) string { return "" }}
}

// Info returns the current token, or nil when logged out.
func (s *Session) Info() (*Info, error) {
	if env := strings.TrimSpace(s.getenv(EnvVar)); env != "" {
		return &Info{Token: stripBearer(env), Source: SourceEnv}, nil
	}
	v, ok, err := s.kv.Get(Key)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	v = stripBearer(strings.TrimSpace(v))
	if !ok || v == "" {
		return nil, nil
	}
	return &Info{Token: v, Source: SourceStorage}, nil
}

// Token returns the current token or "" when there is none.
func (s *Session) Token() (string, error) {
	info, err := s.Info()
	if err != nil || info == nil {
		return "", err
	}
	return info.Token, nil
}

// LoggedIn reports whether a token is present. Validity is not checked.
func (s *Session) LoggedIn() bool {
	tok, err := s.Token()
	return err == nil && tok != ""
}

// Set stores token.
func (s *Session) Set(token string) error {
	token = stripBearer(strings.TrimSpace(token))
	if token == "" {
		return fmt.Errorf("empty token")
	}
	if err := s.kv.Set(Key, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// EnvOverride reports whether TADA_TOKEN is set. While it is, a token saved
// with Set is stored but not used.
func (s *Session) EnvOverride() bool {
	return strings.TrimSpace(s.getenv(EnvVar)) != ""
}

// Clear deletes the stored token. It returns ErrEnvToken, after clearing
// storage, when the environment still provides one.
func (s *Session) Clear() error {
	if err := s.kv.Remove(Key); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	if s.EnvOverride() {
		return ErrEnvToken
	}
	return nil
}

func stripBearer(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}

// Memory is an in-process KV, handy where nothing should touch disk.
type Memory struct {
	mu sync.Mutex
	m  map[string]string
}

func NewMemory() *Memory { return &Memory{m: map[string]string{}} }

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.m[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.m[key] = value
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.m, key)
	return nil
}
