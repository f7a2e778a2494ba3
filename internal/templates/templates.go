// Package templates holds the named view fragments the UI renders from.
//
// Fragments are text/template definitions. The parsed set is never executed
// directly; every render works on a fresh clone, so a fragment is an inert
// blueprint that can be stamped out any number of times.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"text/template"

	"github.com/Makepad-fr/tada/internal/ui"
)

//go:embed *.tmpl
var embedded embed.FS

// Fragment names.
const (
	LoginForm = "login-form"
	TodoList  = "todo-list"
	TodoForm  = "todo-form"
	Logout    = "logout"
	TodoItem  = "todo-item"
	Body      = "body"
	Delete    = "delete"
	Complete  = "complete"
)

// Required lists the fragments the views depend on.
var Required = []string{LoginForm, TodoList, TodoForm, Logout, TodoItem, Body, Delete, Complete}

// LoginData feeds the login-form fragment.
type LoginData struct {
	Username string
	Password string
	Focus    string
	Error    string
}

// TodoListData feeds the todo-list fragment.
type TodoListData struct {
	List    string
	Form    string
	Loading bool
	Spinner string
	Error   string

	Done, Pending, Total int
}

// TodoItemData feeds the todo-item fragment and its parts.
type TodoItemData struct {
	Body     string
	Complete bool
	Selected bool
}

// MissingFragmentError reports required fragments absent after parsing.
type MissingFragmentError struct {
	Names []string
}

func (e *MissingFragmentError) Error() string {
	return "templates: missing fragments: " + strings.Join(e.Names, ", ")
}

// Store is the parsed fragment set.
type Store struct {
	root *template.Template
}

// New parses every *.tmpl file in fsys.
func New(fsys fs.FS, funcs template.FuncMap) (*Store, error) {
	root, err := template.New("tada").Funcs(funcs).ParseFS(fsys, "*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}
	s := &Store{root: root}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Default parses the built-in fragments styled with theme.
func Default(theme ui.Theme) (*Store, error) {
	return New(embedded, Funcs(theme))
}

// Load parses the built-in fragments, then lets *.tmpl files in dir
// redefine any of them. An empty dir is the same as Default.
func Load(dir string, theme ui.Theme) (*Store, error) {
	if dir == "" {
		return Default(theme)
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}
	root, err := template.New("tada").Funcs(Funcs(theme)).ParseFS(embedded, "*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}
	matches, err := fs.Glob(os.DirFS(dir), "*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}
	if len(matches) > 0 {
		if root, err = root.ParseFS(os.DirFS(dir), "*.tmpl"); err != nil {
			return nil, fmt.Errorf("templates: %s: %w", dir, err)
		}
	}
	s := &Store{root: root}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) validate() error {
	var missing []string
	for _, name := range Required {
		if s.root.Lookup(name) == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &MissingFragmentError{Names: missing}
	}
	return nil
}

// Render clones the set and executes fragment name with data.
func (s *Store) Render(name string, data any) (string, error) {
	t, err := s.root.Clone()
	if err != nil {
		return "", fmt.Errorf("templates: clone: %w", err)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("templates: render %s: %w", name, err)
	}
	return buf.String(), nil
}

// Funcs binds theme styles to template functions.
func Funcs(t ui.Theme) template.FuncMap {
	style := func(st interface{ Render(...string) string }) func(string) string {
		return func(s string) string { return st.Render(s) }
	}
	return template.FuncMap{
		"title":      style(t.Title),
		"muted":      style(t.Muted),
		"accent":     style(t.Accent),
		"success":    style(t.Success),
		"pending":    style(t.Pending),
		"errorText":  style(t.Error),
		"help":       style(t.Help),
		"done":       style(t.Done),
		"selected":   style(t.Selected),
		"box":        t.Box,
		"symDone":    func() string { return t.SymDone },
		"symPending": func() string { return t.SymPending },
		"progress":   ui.ProgressBar,
	}
}
