// Package tui is the interactive list. It never keeps its own copy of the
// todos: every store notification re-reads the store snapshot.
package tui

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/todo"
	"github.com/idilsaglam/tada/internal/ui"
)

// eventBuffer bounds the observer channel. Dropped events are harmless:
// one notification is enough to re-read the full snapshot.
const eventBuffer = 64

// changedMsg carries a store event into the Bubble Tea loop.
type changedMsg todo.Event

// listItem adapts model.Item to bubbles/list.Item
type listItem struct {
	ID        int64
	Text      string
	Completed bool
}

func (i listItem) Title() string       { return i.Text }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.Text }

// Custom delegate to control how items render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	t := ui.Current()
	box := t.Muted.Render(t.BoxUnchecked)
	text := it.Text
	if it.Completed {
		box = t.Success.Render(t.BoxChecked)
		text = t.Done.Render(text)
	}
	prefix := "  "
	if index == m.Index() {
		prefix = t.Selected.Render(">") + " "
	}
	fmt.Fprintln(w, prefix+box+" "+text)
}

type Model struct {
	store  *todo.Store
	events chan todo.Event
	done   chan struct{} // closed on unsubscribe

	list list.Model
	ti   textinput.Model // shared by add and edit

	adding bool
	warn   string // last persistence failure

	width, height int
}

// New builds the model and subscribes it to st. Call the returned function
// to unsubscribe once the program has exited; it also releases any pending
// wait for store events.
func New(st *todo.Store) (Model, func()) {
	events := make(chan todo.Event, eventBuffer)
	done := make(chan struct{})
	unsubscribe := st.Subscribe(todo.ObserverFunc(func(ev todo.Event) {
		select {
		case events <- ev:
		default:
		}
	}))
	var once sync.Once
	stop := func() {
		once.Do(func() {
			unsubscribe()
			close(done)
		})
	}

	t := ui.Current()
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = t.Title
	l.Styles.HelpStyle = t.Muted
	l.Styles.PaginationStyle = t.Muted
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("item", "items")

	addBind := key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	editBind := key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit"))
	toggleBind := key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle"))
	deleteBind := key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
	extra := func() []key.Binding { return []key.Binding{addBind, editBind, toggleBind, deleteBind} }
	l.AdditionalShortHelpKeys = extra
	l.AdditionalFullHelpKeys = extra

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200

	m := Model{store: st, events: events, done: done, list: l, ti: ti, width: 80, height: 24}
	m.refresh()
	return m, stop
}

// Run starts the program on the terminal and blocks until the user quits.
func Run(st *todo.Store, opts ...tea.ProgramOption) error {
	m, stop := New(st)
	defer stop()
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	_, err := tea.NewProgram(m, opts...).Run()
	return err
}

func waitForEvent(ch <-chan todo.Event, done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-ch:
			return changedMsg(ev)
		case <-done:
			return nil
		}
	}
}

// refresh re-reads the store into the list and header.
func (m *Model) refresh() tea.Cmd {
	items := m.store.Items()
	li := make([]list.Item, 0, len(items))
	for _, it := range items {
		li = append(li, toListItem(it))
	}
	m.list.Title = header(items)
	return m.list.SetItems(li)
}

func toListItem(it model.Item) listItem {
	return listItem{ID: it.ID, Text: it.Text, Completed: it.Completed}
}

func header(items []model.Item) string {
	t := ui.Current()
	var done int
	for _, it := range items {
		if it.Completed {
			done++
		}
	}
	return fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		t.Title.Render("Todos"),
		t.Success.Render(t.SymDone), done,
		t.Pending.Render(t.SymPending), len(items)-done,
		t.Accent.Render("Total"), len(items),
	)
}

func (m Model) selected() (listItem, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	return it, ok
}

// Update and View implement Bubble Tea's Model on Model
func (m Model) Init() tea.Cmd { return waitForEvent(m.events, m.done) }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case changedMsg:
		if msg.Err != nil && !errors.Is(msg.Err, todo.ErrEmptyText) {
			m.warn = msg.Err.Error()
		} else if msg.Changed {
			m.warn = ""
		}
		cmd := m.refresh()
		m.resize()
		return m, tea.Batch(cmd, waitForEvent(m.events, m.done))
	}

	if m.adding {
		return m.updateAdding(msg)
	}
	if m.store.Cursor().Editing {
		return m.updateEditing(msg)
	}

	if km, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch km.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.list.FilterState() == list.Unfiltered {
				return m, tea.Quit
			}
		case " ":
			if it, ok := m.selected(); ok {
				m.store.Toggle(it.ID)
			}
			return m, nil
		case "d":
			if it, ok := m.selected(); ok {
				m.store.Delete(it.ID)
			}
			return m, nil
		case "a":
			m.adding = true
			m.ti.SetValue("")
			m.ti.Placeholder = "New item..."
			m.resize()
			focus := m.ti.Focus()
			return m, focus
		case "e":
			it, ok := m.selected()
			if !ok {
				return m, nil
			}
			m.store.StartEdit(it.ID, it.Text)
			m.ti.SetValue(it.Text)
			m.ti.CursorEnd()
			m.ti.Placeholder = "Edit item..."
			m.resize()
			focus := m.ti.Focus()
			return m, focus
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateAdding(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "enter":
			if err := m.store.Create(m.ti.Value()); err != nil {
				return m, nil
			}
			m.closeInput()
			return m, nil
		case "esc":
			m.closeInput()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m Model) updateEditing(msg tea.Msg) (tea.Model, tea.Cmd) {
	cur := m.store.Cursor()
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "enter":
			if err := m.store.SaveEdit(cur.EditID); err != nil {
				return m, nil
			}
			m.closeInput()
			return m, nil
		case "esc":
			committed, _ := m.store.Find(cur.EditID)
			m.store.CancelEdit(committed.Text)
			m.closeInput()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	if m.ti.Value() != cur.Text {
		m.store.SetEditText(m.ti.Value())
	}
	return m, cmd
}

func (m *Model) closeInput() {
	m.adding = false
	m.ti.SetValue("")
	m.ti.Blur()
	m.resize()
}

func (m *Model) resize() {
	h := m.height - 4
	if m.adding || m.store.Cursor().Editing {
		h -= 4
	}
	if m.warn != "" {
		h--
	}
	if h < 1 {
		h = 1
	}
	m.list.SetSize(m.width-4, h)
}

func (m Model) View() string {
	t := ui.Current()
	content := m.list.View()

	if m.adding || m.store.Cursor().Editing {
		title := "Add new item"
		err := m.store.CreateError()
		if !m.adding {
			title = "Edit item"
			err = m.store.EditError()
		}
		if err != nil {
			title += " - " + t.Error.Render("Text cannot be empty")
		}
		content += "\n" + ui.PanelString(title+"\n"+m.ti.View())
	}
	if m.warn != "" {
		content += "\n" + t.Error.Render(t.SymFail+" not saved: "+m.warn)
	}
	return ui.PanelString(strings.TrimRight(content, "\n"))
}
