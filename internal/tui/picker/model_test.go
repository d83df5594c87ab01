package picker

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/config"
)

func testModel(t *testing.T, n int) Model {
	t.Helper()
	children := make([]config.ChildAccount, n)
	for i := range children {
		children[i] = config.ChildAccount{
			Email:     string(rune('a'+i)) + "@x.com",
			AccountID: int64(i + 10),
		}
	}
	m := NewModel(children)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	return updated.(Model)
}

func send(t *testing.T, m Model, msgs ...tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

var (
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestToggle(t *testing.T) {
	t.Run("space selects the item under the cursor", func(t *testing.T) {
		m, _ := send(t, testModel(t, 3), keySpace)
		assert.Equal(t, []int{0}, m.Selected())
	})

	t.Run("x toggles off again", func(t *testing.T) {
		m, _ := send(t, testModel(t, 3), keySpace, runeKey('x'))
		assert.Empty(t, m.Selected())
	})

	t.Run("selection follows the cursor", func(t *testing.T) {
		m, _ := send(t, testModel(t, 3), keyDown, keyDown, keySpace, keyDown, keySpace)
		assert.Equal(t, []int{2}, m.Selected())
	})

	t.Run("selected indices are sorted", func(t *testing.T) {
		m, _ := send(t, testModel(t, 3), keyDown, keyDown, keySpace, runeKey('k'), runeKey('k'), keySpace)
		assert.Equal(t, []int{0, 2}, m.Selected())
	})
}

func TestToggleAll(t *testing.T) {
	m, _ := send(t, testModel(t, 3), runeKey('a'))
	assert.Equal(t, []int{0, 1, 2}, m.Selected())

	m, _ = send(t, m, runeKey('a'))
	assert.Empty(t, m.Selected())

	m, _ = send(t, m, keySpace, runeKey('a'))
	assert.Equal(t, []int{0, 1, 2}, m.Selected())
}

func TestConfirmAndCancel(t *testing.T) {
	t.Run("enter confirms and quits", func(t *testing.T) {
		m, cmd := send(t, testModel(t, 2), keySpace, keyEnter)
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
		assert.True(t, m.Confirmed())
		assert.False(t, m.Cancelled())
		assert.Equal(t, []int{0}, m.Selected())
	})

	t.Run("q cancels", func(t *testing.T) {
		m, cmd := send(t, testModel(t, 2), runeKey('q'))
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
		assert.True(t, m.Cancelled())
		assert.False(t, m.Confirmed())
	})

	t.Run("esc cancels", func(t *testing.T) {
		m, _ := send(t, testModel(t, 2), keyEsc)
		assert.True(t, m.Cancelled())
	})
}

func TestItem(t *testing.T) {
	it := Item{Index: 1, Account: config.ChildAccount{Email: "b@x.com", AccountID: 7, CreateTime: "2024-01-01"}}
	assert.Contains(t, it.Title(), "[ ] 2. b@x.com")
	assert.Contains(t, it.Description(), "id 7")
	assert.Contains(t, it.Description(), "created 2024-01-01")
	assert.Equal(t, "b@x.com", it.FilterValue())

	it.Selected = true
	assert.Contains(t, it.Title(), "[x]")
}

func TestView(t *testing.T) {
	m, _ := send(t, testModel(t, 2), keySpace)
	view := m.View()
	assert.Contains(t, view, "a@x.com")
	assert.Contains(t, view, "1 selected")
}

func TestToggleOnEmptyList(t *testing.T) {
	m, _ := send(t, testModel(t, 0), keySpace, runeKey('a'))
	assert.Empty(t, m.Selected())
}
