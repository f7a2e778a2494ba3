// Package app is the interactive client: a root mount point that shows
// either the login form or the to-do list, rebuilt from templates after
// every change.
package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/templates"
	"github.com/Makepad-fr/tada/internal/ui"
)

// ViewState is which top-level view the client is in.
type ViewState int

const (
	LoggedOut ViewState = iota
	LoggedIn
)

func (v ViewState) String() string {
	switch v {
	case LoggedIn:
		return "logged-in"
	default:
		return "logged-out"
	}
}

// Backend is the remote service. *api.Client implements it.
type Backend interface {
	Login(ctx context.Context, creds model.Credentials) (model.LoginResult, error)
	ListTodos(ctx context.Context) ([]model.Todo, error)
	CreateTodo(ctx context.Context, body string) (model.Todo, error)
	SetComplete(ctx context.Context, id model.ID, complete bool) (model.Todo, error)
	DeleteTodo(ctx context.Context, id model.ID) error
}

// TokenStore is where the session token lives. *session.Session implements it.
type TokenStore interface {
	Token() (string, error)
	Set(token string) error
	Clear() error
	// EnvOverride reports whether an environment token shadows stored ones.
	EnvOverride() bool
}

// State is everything the views need; nothing else is global.
type State struct {
	Client    Backend
	Session   TokenStore
	Templates *templates.Store
	Theme     ui.Theme
	Logger    *log.Logger

	// ShowErrors renders the last failure in a status line. Off by default:
	// a failed action leaves the screen as it was.
	ShowErrors bool

	// Context bounds every request. Defaults to context.Background().
	Context context.Context
}

// Initial picks the starting view from the presence of a stored token.
// The token is not checked against the server.
func (s *State) Initial() ViewState {
	tok, err := s.Session.Token()
	if err != nil || tok == "" {
		return LoggedOut
	}
	return LoggedIn
}

func (s *State) ctx() context.Context {
	if s.Context != nil {
		return s.Context
	}
	return context.Background()
}

type op string

const (
	opLogin  op = "login"
	opList   op = "list"
	opCreate op = "create"
	opToggle op = "toggle"
	opDelete op = "delete"
)

// loggedInMsg carries a freshly issued token.
type loggedInMsg struct {
	gen   int
	token string
}

// todosMsg is a successful fetch; it always rebuilds the list view.
type todosMsg struct {
	gen   int
	after op
	items []model.Todo
}

// errMsg is a failed request.
type errMsg struct {
	gen int
	op  op
	err error
}

func (s *State) login(gen int, creds model.Credentials) tea.Cmd {
	ctx := s.ctx()
	return func() tea.Msg {
		res, err := s.Client.Login(ctx, creds)
		if err != nil {
			return errMsg{gen: gen, op: opLogin, err: err}
		}
		return loggedInMsg{gen: gen, token: res.Token}
	}
}

func (s *State) fetch(gen int) tea.Cmd {
	return s.mutate(gen, opList, func(context.Context) error { return nil })
}

func (s *State) create(gen int, body string) tea.Cmd {
	return s.mutate(gen, opCreate, func(ctx context.Context) error {
		_, err := s.Client.CreateTodo(ctx, body)
		return err
	})
}

func (s *State) toggle(gen int, td model.Todo) tea.Cmd {
	return s.mutate(gen, opToggle, func(ctx context.Context) error {
		_, err := s.Client.SetComplete(ctx, td.ID, !td.Complete)
		return err
	})
}

func (s *State) remove(gen int, td model.Todo) tea.Cmd {
	return s.mutate(gen, opDelete, func(ctx context.Context) error {
		return s.Client.DeleteTodo(ctx, td.ID)
	})
}

// mutate runs change and, if it succeeds, refetches the whole list.
func (s *State) mutate(gen int, o op, change func(context.Context) error) tea.Cmd {
	ctx := s.ctx()
	return func() tea.Msg {
		if err := change(ctx); err != nil {
			return errMsg{gen: gen, op: o, err: err}
		}
		items, err := s.Client.ListTodos(ctx)
		if err != nil {
			return errMsg{gen: gen, op: o, err: err}
		}
		return todosMsg{gen: gen, after: o, items: items}
	}
}
