package app

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/templates"
)

// listItem adapts model.Todo to bubbles/list.Item
type listItem struct {
	todo model.Todo
}

func (i listItem) FilterValue() string { return i.todo.Body }

// itemDelegate renders each row from the todo-item fragment.
type itemDelegate struct {
	store *templates.Store
}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	out, err := d.store.Render(templates.TodoItem, templates.TodoItemData{
		Body:     model.Truncate(it.todo.Body, 80),
		Complete: it.todo.Complete,
		Selected: index == m.Index(),
	})
	if err != nil {
		out = err.Error()
	}
	fmt.Fprint(w, out)
}

// todoView shows one fetched list. It is never patched in place: every
// successful change mounts a new todoView built from a fresh fetch.
type todoView struct {
	root  *Root
	items []model.Todo
	list  list.Model

	adding bool
	input  textinput.Model
}

// newTodoView builds the list with keep selected when it is still there,
// otherwise with the cursor at pos.
func newTodoView(r *Root, items []model.Todo, keep model.ID, pos int) *todoView {
	li := make([]list.Item, 0, len(items))
	for _, it := range items {
		li = append(li, listItem{todo: it})
	}

	l := list.New(li, itemDelegate{store: r.state.Templates}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(true)
	l.SetFilteringEnabled(true)
	l.FilterInput.Prompt = "/ "
	l.FilterInput.Cursor.SetMode(cursor.CursorStatic)
	l.SetStatusBarItemName("item", "items")
	l.Styles.PaginationStyle = r.state.Theme.Help
	l.Styles.NoItems = r.state.Theme.Muted

	v := &todoView{
		root:  r,
		items: items,
		list:  l,
		input: newInput("> ", "What needs doing?"),
	}
	v.resize()
	if keep != "" {
		for i, it := range items {
			if it.ID == keep {
				pos = i
				break
			}
		}
	}
	if pos >= len(items) {
		pos = len(items) - 1
	}
	if pos > 0 {
		v.list.Select(pos)
	}
	return v
}

func (v *todoView) resize() {
	w, h := v.root.width, v.root.height
	if w <= 0 {
		w = 80
	}
	if h <= 0 {
		h = 24
	}
	// header, progress, blank, form, help and the frame
	listHeight := h - 10
	if v.adding {
		listHeight -= 3
	}
	if listHeight < 3 {
		listHeight = 3
	}
	v.list.SetSize(w-4, listHeight)
}

func (v *todoView) selected() (model.Todo, bool) {
	it, ok := v.list.SelectedItem().(listItem)
	if !ok {
		return model.Todo{}, false
	}
	return it.todo, true
}

// cursor reports the selected todo and, when no filter is applied, its
// position. A filtered position means nothing in the rebuilt list.
func (v *todoView) cursor() (model.ID, int) {
	var id model.ID
	if td, ok := v.selected(); ok {
		id = td.ID
	}
	if v.list.FilterState() != list.Unfiltered {
		return id, 0
	}
	return id, v.list.Index()
}

func (v *todoView) update(msg tea.Msg) tea.Cmd {
	r := v.root

	// creation form
	if v.adding {
		if k, ok := msg.(tea.KeyMsg); ok {
			switch k.String() {
			case "enter":
				return tea.Batch(r.startLoading(), r.state.create(r.gen, v.input.Value()))
			case "esc":
				v.adding = false
				v.input.Blur()
				v.input.SetValue("")
				v.resize()
				return nil
			}
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return cmd
	}

	if k, ok := msg.(tea.KeyMsg); ok && !v.list.SettingFilter() {
		switch k.String() {
		case "q":
			return tea.Quit
		case "L":
			r.logout()
			return nil
		case "a":
			v.adding = true
			v.input.SetValue("")
			v.input.Focus()
			v.resize()
			return nil
		case "r":
			return r.renderTodos()
		case " ", "x":
			if td, ok := v.selected(); ok {
				return r.state.toggle(r.gen, td)
			}
			return nil
		case "d":
			if td, ok := v.selected(); ok {
				return r.state.remove(r.gen, td)
			}
			return nil
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return cmd
}

func (v *todoView) render() string {
	done, pending := model.Stats(v.items)
	data := templates.TodoListData{
		List:    v.list.View(),
		Loading: v.root.loading,
		Spinner: v.root.spinner.View(),
		Error:   v.root.errorText(),
		Done:    done,
		Pending: pending,
		Total:   len(v.items),
	}
	if v.adding {
		data.Form = v.input.View()
	}
	out, err := v.root.state.Templates.Render(templates.TodoList, data)
	if err != nil {
		return err.Error()
	}
	return out
}
