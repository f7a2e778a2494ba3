// Package apitest runs an in-process to-do backend for tests.
package apitest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/Makepad-fr/tada/internal/model"
)

// Request is one request the server has seen.
type Request struct {
	Method        string
	Path          string
	Authorization string
}

// Server implements the to-do HTTP API with one list per user.
type Server struct {
	*httptest.Server

	secret []byte

	mu       sync.Mutex
	users    map[string][]byte
	todos    map[string][]model.Todo
	requests []Request
	fail     map[string]int
}

type ctxKey struct{}

// New starts a server and closes it when the test ends.
func New(tb testing.TB) *Server {
	tb.Helper()
	s := &Server{
		secret: []byte(uuid.NewString()),
		users:  map[string][]byte{},
		todos:  map[string][]model.Todo{},
		fail:   map[string]int{},
	}
	s.Server = httptest.NewServer(s.router())
	tb.Cleanup(s.Close)
	return s
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.record, s.injectFailure)
	r.HandleFunc("/users/login", s.handleLogin).Methods(http.MethodPost)

	todos := r.PathPrefix("/todos").Subrouter()
	todos.Use(s.authenticate)
	todos.HandleFunc("", s.handleList).Methods(http.MethodGet)
	todos.HandleFunc("", s.handleCreate).Methods(http.MethodPost)
	todos.HandleFunc("/{id}", s.handlePatch).Methods(http.MethodPatch)
	todos.HandleFunc("/{id}", s.handleDelete).Methods(http.MethodDelete)
	return r
}

// AddUser registers a user; the password is kept as a bcrypt hash.
func (s *Server) AddUser(username, password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = hash
}

// IssueToken signs a token for username without a login round-trip.
func (s *Server) IssueToken(username string) string {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:  username,
		ID:       uuid.NewString(),
		IssuedAt: jwt.NewNumericDate(now),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return tok
}

// Seed appends items to username's list and returns them with ids.
func (s *Server) Seed(username string, bodies ...string) []model.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Todo, 0, len(bodies))
	for _, b := range bodies {
		td := model.Todo{ID: model.ID(uuid.NewString()), Body: b}
		s.todos[username] = append(s.todos[username], td)
		out = append(out, td)
	}
	return out
}

// Todos returns a copy of username's list.
func (s *Server) Todos(username string) []model.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Todo{}, s.todos[username]...)
}

// Requests returns every request seen so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request{}, s.requests...)
}

// Fail makes requests with the given method and path prefix answer status
// until Recover is called.
func (s *Server) Fail(method, pathPrefix string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[method+" "+pathPrefix] = status
}

// Recover clears every injected failure.
func (s *Server) Recover() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = map[string]int{}
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		status := 0
		for k, v := range s.fail {
			method, prefix, _ := strings.Cut(k, " ")
			if method == r.Method && strings.HasPrefix(r.URL.Path, prefix) {
				status = v
				break
			}
		}
		s.mu.Unlock()
		if status != 0 {
			writeError(w, status, "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		var claims jwt.RegisteredClaims
		_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || claims.Subject == "" {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		ctx := context.WithValue(r.Context(), ctxKey{}, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFrom(r *http.Request) string {
	u, _ := r.Context().Value(ctxKey{}).(string)
	return u
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := decode(r, loginSchema, &creds); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	hash, ok := s.users[creds.Username]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(hash, []byte(creds.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "bad credentials")
		return
	}
	writeJSON(w, http.StatusOK, model.LoginResult{Token: s.IssueToken(creds.Username)})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Todos(userFrom(r)))
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Body     string `json:"body"`
		Complete bool   `json:"complete"`
	}
	if err := decode(r, createSchema, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	td := model.Todo{ID: model.ID(uuid.NewString()), Body: in.Body, Complete: in.Complete}
	user := userFrom(r)
	s.mu.Lock()
	s.todos[user] = append(s.todos[user], td)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, td)
}

func (s *Server) handlePatch(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Complete bool `json:"complete"`
	}
	if err := decode(r, patchSchema, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := model.ID(mux.Vars(r)["id"])
	user := userFrom(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.todos[user] {
		if s.todos[user][i].ID == id {
			s.todos[user][i].Complete = in.Complete
			writeJSON(w, http.StatusOK, s.todos[user][i])
			return
		}
	}
	writeError(w, http.StatusNotFound, "no such todo")
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := model.ID(mux.Vars(r)["id"])
	user := userFrom(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.todos[user]
	for i := range list {
		if list[i].ID == id {
			s.todos[user] = append(list[:i:i], list[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, "no such todo")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

var errEmptyBody = errors.New("empty body")
