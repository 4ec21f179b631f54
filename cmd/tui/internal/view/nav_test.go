package view_test

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/muniledger/cmd/tui/internal/view"
)

func TestStagingModel_WindowSize(t *testing.T) {
	got, cmd := view.NewStagingModel(nil).Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Nil(t, cmd)

	m, ok := got.(view.StagingModel)
	require.True(t, ok)
	assert.Equal(t, 120, m.Width)
	assert.Equal(t, 40, m.Height)
}

func TestBack(t *testing.T) {
	assert.Equal(t, view.BackMsg{}, view.Back())
}
