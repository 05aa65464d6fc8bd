package tui

import (
	"testing"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func browseModel() Model {
	m := Model{view: viewBrowse, filter: textinput.New()}
	m.lists[tabBooks].setRows([]row{
		{id: 1, title: "To Kill a Mockingbird"},
		{id: 2, title: "1984"},
		{id: 3, title: "The Great Gatsby"},
	})
	return m
}

func TestFilterNarrowsList(t *testing.T) {
	m := browseModel()

	m.lists[tabBooks].applyFilter("gatsby")
	require.Len(t, m.lists[tabBooks].visible, 1)
	sel, ok := m.lists[tabBooks].selected()
	require.True(t, ok)
	assert.Equal(t, 3, sel.id)
}

func TestTabSwitchResetsFilter(t *testing.T) {
	m := browseModel()
	m.filter.SetValue("gatsby")
	m.lists[tabBooks].applyFilter("gatsby")
	require.Len(t, m.lists[tabBooks].visible, 1)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)

	assert.Equal(t, tabAuthors, m.active)
	assert.Empty(t, m.filter.Value())
	assert.Len(t, m.lists[tabBooks].visible, 3, "the tab left behind shows every row again")
}

func TestTabSwitchWrapsBackwards(t *testing.T) {
	m := browseModel()

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	m = next.(Model)
	assert.Equal(t, tabReviews, m.active)
}
