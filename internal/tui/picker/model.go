// Package picker is a multi-select list for choosing which mail children
// become business accounts.
package picker

import (
	"errors"
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/config"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/styles"
)

// ErrCancelled is returned when the operator leaves the picker without confirming.
var ErrCancelled = errors.New("selection cancelled")

// Item is one selectable child account.
type Item struct {
	Index    int
	Account  config.ChildAccount
	Selected bool
}

func (i Item) Title() string {
	mark := "[ ]"
	if i.Selected {
		mark = styles.ActiveStyle.Render("[x]")
	}
	return fmt.Sprintf("%s %d. %s", mark, i.Index+1, i.Account.Email)
}

func (i Item) Description() string {
	desc := fmt.Sprintf("id %d", i.Account.AccountID)
	if i.Account.CreateTime != "" {
		desc += " • created " + i.Account.CreateTime
	}
	return desc
}

func (i Item) FilterValue() string {
	return i.Account.Email
}

// Model is the Bubble Tea model for the account picker.
type Model struct {
	list      list.Model
	keys      KeyMap
	confirmed bool
	cancelled bool
}

// NewModel creates a picker over the given children, nothing selected.
func NewModel(children []config.ChildAccount) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.NormalTitle = delegate.Styles.NormalTitle.
		Foreground(styles.White).
		BorderForeground(styles.DarkGray)
	delegate.Styles.NormalDesc = delegate.Styles.NormalDesc.
		Foreground(styles.Gray).
		BorderForeground(styles.DarkGray)
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(styles.Primary).
		BorderForeground(styles.Primary)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(styles.Gray).
		BorderForeground(styles.Primary)

	items := make([]list.Item, len(children))
	for i, c := range children {
		items[i] = Item{Index: i, Account: c}
	}

	l := list.New(items, delegate, 0, 0)
	l.Title = "Select business accounts"
	l.Styles.Title = styles.HeaderStyle
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	return Model{list: l, keys: DefaultKeyMap}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.cancelled = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Confirm):
			m.confirmed = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Toggle):
			m.toggle(m.list.Index())
			return m, nil
		case key.Matches(msg, m.keys.All):
			m.toggleAll()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) toggle(idx int) {
	items := m.list.Items()
	if idx < 0 || idx >= len(items) {
		return
	}
	it := items[idx].(Item)
	it.Selected = !it.Selected
	m.list.SetItem(idx, it)
}

// toggleAll selects everything unless everything is already selected.
func (m *Model) toggleAll() {
	items := m.list.Items()
	all := len(items) > 0
	for _, li := range items {
		if !li.(Item).Selected {
			all = false
			break
		}
	}
	for i, li := range items {
		it := li.(Item)
		it.Selected = !all
		m.list.SetItem(i, it)
	}
}

func (m Model) View() string {
	help := styles.HelpStyle.Render(fmt.Sprintf("space: toggle • a: all • enter: confirm (%d selected) • q: cancel", len(m.Selected())))
	content := lipgloss.JoinVertical(lipgloss.Left,
		m.list.View(),
		help,
	)
	return styles.AppStyle.Render(content)
}

// Selected returns the zero-based indices of the chosen children in order.
func (m Model) Selected() []int {
	var out []int
	for _, li := range m.list.Items() {
		if it := li.(Item); it.Selected {
			out = append(out, it.Index)
		}
	}
	sort.Ints(out)
	return out
}

// Confirmed reports whether the operator pressed enter.
func (m Model) Confirmed() bool { return m.confirmed }

// Cancelled reports whether the operator quit without confirming.
func (m Model) Cancelled() bool { return m.cancelled }

// Run shows the picker and returns the chosen zero-based indices.
func Run(children []config.ChildAccount) ([]int, error) {
	p := tea.NewProgram(NewModel(children), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("TUI error: %w", err)
	}
	m, ok := final.(Model)
	if !ok || !m.confirmed {
		return nil, ErrCancelled
	}
	return m.Selected(), nil
}
