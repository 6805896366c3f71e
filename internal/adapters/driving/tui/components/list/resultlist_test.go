package list

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/margin/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/margin/internal/core/domain"
)

func sampleResults() []domain.SearchResult {
	return []domain.SearchResult{
		{ChunkRecord: domain.ChunkRecord{File: "garden.md", Title: "Garden", Content: "tomatoes need sun"}, Similarity: 0.95},
		{ChunkRecord: domain.ChunkRecord{File: "daily/2024-03-01.md", ChunkIndex: 2, Content: "watered\nthe   beds"}, Similarity: 0.85},
		{ChunkRecord: domain.ChunkRecord{File: "compost.txt", Title: "Compost"}, Similarity: 0.75},
	}
}

func TestNewResultList(t *testing.T) {
	list := NewResultList(styles.DefaultStyles())

	require.NotNil(t, list)
	assert.Equal(t, 0, list.Selected())
	assert.True(t, list.IsEmpty())
	assert.Nil(t, list.Init())
}

func TestNewResultList_NilStyles(t *testing.T) {
	list := NewResultList(nil)

	require.NotNil(t, list)
	assert.NotNil(t, list.styles)
}

func TestResultList_SetResults(t *testing.T) {
	list := NewResultList(nil)
	list.SetResults(sampleResults())
	list.SetSelected(2)

	list.SetResults(sampleResults())

	assert.Equal(t, 3, list.Count())
	assert.False(t, list.IsEmpty())
	assert.Equal(t, 0, list.Selected(), "new results reset the selection")
	assert.Len(t, list.Results(), 3)
}

func TestResultList_SetSelected(t *testing.T) {
	list := NewResultList(nil)
	list.SetResults(sampleResults())

	list.SetSelected(1)
	assert.Equal(t, 1, list.Selected())

	list.SetSelected(10)
	assert.Equal(t, 1, list.Selected())

	list.SetSelected(-1)
	assert.Equal(t, 1, list.Selected())
}

func TestResultList_SelectedResult(t *testing.T) {
	list := NewResultList(nil)
	assert.Nil(t, list.SelectedResult())

	list.SetResults(sampleResults())
	list.MoveDown()

	selected := list.SelectedResult()
	require.NotNil(t, selected)
	assert.Equal(t, "daily/2024-03-01.md", selected.File)
}

func TestResultList_MoveBounds(t *testing.T) {
	list := NewResultList(nil)
	list.SetResults(sampleResults())

	list.MoveUp()
	assert.Equal(t, 0, list.Selected())

	list.MoveDown()
	list.MoveDown()
	list.MoveDown()
	assert.Equal(t, 2, list.Selected())
}

func TestResultList_Update_Keys(t *testing.T) {
	tests := []struct {
		name     string
		msg      tea.KeyMsg
		start    int
		expected int
	}{
		{"down arrow", tea.KeyMsg{Type: tea.KeyDown}, 0, 1},
		{"up arrow", tea.KeyMsg{Type: tea.KeyUp}, 1, 0},
		{"j", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}, 0, 1},
		{"k", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}}, 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := NewResultList(nil)
			list.SetResults(sampleResults())
			list.SetSelected(tt.start)

			updated, cmd := list.Update(tt.msg)

			assert.Nil(t, cmd)
			assert.Equal(t, tt.expected, updated.Selected())
		})
	}
}

func TestResultList_View_Empty(t *testing.T) {
	list := NewResultList(nil)

	assert.Contains(t, list.View(), "No results")
}

func TestResultList_View_WithResults(t *testing.T) {
	list := NewResultList(nil)
	list.SetDimensions(100, 40)
	list.SetResults(sampleResults())

	view := list.View()

	assert.Contains(t, view, "Results (3)")
	assert.Contains(t, view, "Garden")
	assert.Contains(t, view, "0.950")
	assert.Contains(t, view, "daily/2024-03-01.md#2")
	assert.Contains(t, view, "watered the beds", "whitespace is collapsed in previews")
	assert.Contains(t, view, "> ")
}

func TestResultList_View_UntitledUsesStem(t *testing.T) {
	list := NewResultList(nil)
	list.SetDimensions(100, 40)
	list.SetResults(sampleResults())

	assert.Contains(t, list.View(), "2024-03-01")
}

func TestResultList_View_Scrolls(t *testing.T) {
	list := NewResultList(nil)
	list.SetDimensions(100, 7) // room for one result
	list.SetResults(sampleResults())
	list.SetSelected(2)

	view := list.View()

	assert.Contains(t, view, "Compost")
	assert.NotContains(t, view, "Garden")
}

func TestResultList_Dimensions(t *testing.T) {
	list := NewResultList(nil)
	assert.Equal(t, 80, list.Width())
	assert.Equal(t, 10, list.Height())

	list.SetDimensions(120, 30)

	assert.Equal(t, 120, list.Width())
	assert.Equal(t, 30, list.Height())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "héllo w...", Truncate("héllo wörld again", 10))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
}
