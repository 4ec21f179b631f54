package view

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const dbTimeout = 5 * time.Second

// CommonModel tracks the terminal size shared by every screen.
type CommonModel struct {
	Width  int
	Height int
}

func (c *CommonModel) resize(msg tea.WindowSizeMsg) {
	c.Width, c.Height = msg.Width, msg.Height
}

// bodyHeight is the room left for a table once the header and help lines are
// drawn.
func (c CommonModel) bodyHeight(chrome int) int {
	return max(c.Height-chrome, 5)
}

// BackMsg returns to the main menu.
type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

// DbCtx returns a context with a standard timeout for database operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}
