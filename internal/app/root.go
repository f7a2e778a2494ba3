package app

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/tada/internal/logging"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/session"
)

// view is a mounted top-level screen.
type view interface {
	update(msg tea.Msg) tea.Cmd
	render() string
}

// Root is the single mount point. Mounting a view drops the previous one
// entirely; at most one view is mounted at a time.
type Root struct {
	state   *State
	current ViewState
	view    view

	// gen changes on logout so answers to requests issued before it are
	// dropped instead of remounting the list.
	gen int

	loading bool
	spinner spinner.Model
	lastErr error

	width, height int
}

// NewRoot returns an unmounted root; Init mounts the first view.
func NewRoot(state *State) *Root {
	if state.Logger == nil {
		state.Logger = logging.Discard()
	}
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = state.Theme.Accent
	return &Root{
		state:   state,
		current: state.Initial(),
		spinner: sp,
	}
}

// Run starts the full-screen program and blocks until it quits.
func Run(ctx context.Context, state *State, opts ...tea.ProgramOption) error {
	if state.Context == nil {
		state.Context = ctx
	}
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	_, err := tea.NewProgram(NewRoot(state), opts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// ViewState is the current state of the view state machine.
func (r *Root) ViewState() ViewState { return r.current }

// HasView reports whether anything is mounted. With a stored but invalid
// token nothing is, because the first fetch fails.
func (r *Root) HasView() bool { return r.view != nil }

// Loading reports whether a create is in flight.
func (r *Root) Loading() bool { return r.loading }

// Items returns what the mounted list shows, or nil when it is not mounted.
func (r *Root) Items() []model.Todo {
	if v, ok := r.view.(*todoView); ok {
		return append([]model.Todo{}, v.items...)
	}
	return nil
}

// LastError is the last swallowed failure.
func (r *Root) LastError() error { return r.lastErr }

func (r *Root) Init() tea.Cmd {
	if r.current == LoggedIn {
		return r.renderTodos()
	}
	r.renderLogin()
	return nil
}

func (r *Root) mount(v view, s ViewState) {
	r.view = v
	r.current = s
}

func (r *Root) renderLogin() {
	r.mount(newLoginView(r), LoggedOut)
}

// renderTodos fetches the list; the view is mounted when it arrives.
func (r *Root) renderTodos() tea.Cmd {
	return r.state.fetch(r.gen)
}

func (r *Root) logout() {
	if err := r.state.Session.Clear(); err != nil {
		if errors.Is(err, session.ErrEnvToken) {
			r.state.Logger.Warn("logout", "err", err)
		} else {
			r.fail(errMsg{gen: r.gen, op: "logout", err: err})
		}
	}
	r.gen++
	r.loading = false
	r.renderLogin()
}

func (r *Root) startLoading() tea.Cmd {
	r.loading = true
	return r.spinner.Tick
}

// fail swallows a failed request. The screen is left as it was.
func (r *Root) fail(m errMsg) {
	r.state.Logger.Warn("request failed", "op", string(m.op), "err", m.err)
	if m.op == opCreate {
		r.loading = false
	}
	if r.state.ShowErrors {
		r.lastErr = m.err
	}
}

func (r *Root) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.width, r.height = msg.Width, msg.Height
		if v, ok := r.view.(*todoView); ok {
			v.resize()
		}
		return r, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return r, tea.Quit
		}
		if r.view == nil {
			if msg.String() == "q" {
				return r, tea.Quit
			}
			return r, nil
		}

	case loggedInMsg:
		if msg.gen != r.gen {
			return r, nil
		}
		if err := r.state.Session.Set(msg.token); err != nil {
			r.fail(errMsg{gen: msg.gen, op: opLogin, err: err})
			return r, nil
		}
		r.state.Logger.Info("logged in")
		if r.state.Session.EnvOverride() {
			r.state.Logger.Warn("stored token shadowed by environment", "env", session.EnvVar)
		}
		r.lastErr = nil
		return r, r.renderTodos()

	case todosMsg:
		if msg.gen != r.gen {
			return r, nil
		}
		if msg.after == opCreate {
			r.loading = false
		}
		r.lastErr = nil
		var keep model.ID
		cursor := 0
		if v, ok := r.view.(*todoView); ok {
			keep, cursor = v.cursor()
		}
		r.mount(newTodoView(r, msg.items, keep, cursor), LoggedIn)
		return r, nil

	case errMsg:
		if msg.gen != r.gen {
			return r, nil
		}
		r.fail(msg)
		return r, nil

	case spinner.TickMsg:
		if !r.loading {
			return r, nil
		}
		var cmd tea.Cmd
		r.spinner, cmd = r.spinner.Update(msg)
		return r, cmd
	}

	if r.view == nil {
		return r, nil
	}
	return r, r.view.update(msg)
}

func (r *Root) View() string {
	if r.view == nil {
		return ""
	}
	return r.state.Theme.Panel(r.view.render())
}

func (r *Root) errorText() string {
	if r.lastErr == nil {
		return ""
	}
	return r.lastErr.Error()
}
