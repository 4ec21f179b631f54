package main

import (
	"context"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/muniledger/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/muniledger/internal/app"
	"github.com/MrJamesThe3rd/muniledger/internal/config"
)

type model struct {
	app *app.App

	currentView View
	size        tea.WindowSizeMsg

	uploadView    view.UploadModel
	documentsView view.DocumentsModel
	stagingView   view.StagingModel
}

type View int

const (
	ViewMenu      View = 0
	ViewUpload    View = 1
	ViewDocuments View = 2
	ViewStaging   View = 3
)

func initialModel(a *app.App) model {
	return model{
		app:           a,
		currentView:   ViewMenu,
		uploadView:    view.NewUploadModel(a.Documents),
		documentsView: view.NewDocumentsModel(a.Documents, a.Ingest),
		stagingView:   view.NewStagingModel(a.Staging),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewUpload
				m.uploadView = view.NewUploadModel(m.app.Documents)

				return m, tea.Batch(m.uploadView.Init(), m.replaySize)
			case "2":
				m.currentView = ViewDocuments
				m.documentsView = view.NewDocumentsModel(m.app.Documents, m.app.Ingest)

				return m, tea.Batch(m.documentsView.Init(), m.replaySize)
			case "3":
				m.currentView = ViewStaging
				m.stagingView = view.NewStagingModel(m.app.Staging)

				return m, tea.Batch(m.stagingView.Init(), m.replaySize)
			}
		}
	case tea.WindowSizeMsg:
		m.size = msg
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewUpload:
		var newModel tea.Model
		newModel, cmd = m.uploadView.Update(msg)
		m.uploadView = newModel.(view.UploadModel)
	case ViewDocuments:
		var newModel tea.Model
		newModel, cmd = m.documentsView.Update(msg)
		m.documentsView = newModel.(view.DocumentsModel)
	case ViewStaging:
		var newModel tea.Model
		newModel, cmd = m.stagingView.Update(msg)
		m.stagingView = newModel.(view.StagingModel)
	case ViewMenu:
	}

	return m, cmd
}

// replaySize hands the last terminal size to a freshly opened screen.
func (m model) replaySize() tea.Msg {
	if m.size.Height == 0 {
		return nil
	}

	return m.size
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Muniledger\n\n" +
				"1. Upload Document\n" +
				"2. Documents & Ingest\n" +
				"3. Review Staged Goals\n\n" +
				"q. Quit",
		)
	case ViewUpload:
		return m.uploadView.View()
	case ViewDocuments:
		return m.documentsView.View()
	case ViewStaging:
		return m.stagingView.View()
	}

	return "Unknown View"
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	p := tea.NewProgram(initialModel(a))
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
