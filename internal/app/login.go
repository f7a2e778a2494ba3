package app

import (
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/templates"
)

const (
	focusUsername = iota
	focusPassword
)

// loginView is the credential form. Nothing is validated client-side; a
// rejected login leaves the form as it is.
type loginView struct {
	root     *Root
	username textinput.Model
	password textinput.Model
	focus    int
}

func newInput(prompt, placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.Placeholder = placeholder
	ti.CharLimit = 200
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

func newLoginView(r *Root) *loginView {
	v := &loginView{
		root:     r,
		username: newInput("> ", "username"),
		password: newInput("> ", "password"),
	}
	v.password.EchoMode = textinput.EchoPassword
	v.password.EchoCharacter = '•'
	v.username.Focus()
	return v
}

func (v *loginView) setFocus(f int) {
	v.focus = f
	if f == focusUsername {
		v.password.Blur()
		v.username.Focus()
		return
	}
	v.username.Blur()
	v.password.Focus()
}

func (v *loginView) update(msg tea.Msg) tea.Cmd {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "tab", "shift+tab", "up", "down":
			v.setFocus(1 - v.focus)
			return nil
		case "enter":
			creds := model.Credentials{
				Username: v.username.Value(),
				Password: v.password.Value(),
			}
			return v.root.state.login(v.root.gen, creds)
		}
	}

	var cmd tea.Cmd
	if v.focus == focusUsername {
		v.username, cmd = v.username.Update(msg)
	} else {
		v.password, cmd = v.password.Update(msg)
	}
	return cmd
}

func (v *loginView) render() string {
	focus := "username"
	if v.focus == focusPassword {
		focus = "password"
	}
	out, err := v.root.state.Templates.Render(templates.LoginForm, templates.LoginData{
		Username: v.username.View(),
		Password: v.password.View(),
		Focus:    focus,
		Error:    v.root.errorText(),
	})
	if err != nil {
		return err.Error()
	}
	return out
}
