package view

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/muniledger/internal/document"
)

type uploadState int

const (
	uploadStateFilePick uploadState = iota
	uploadStateDetails
	uploadStateUploading
	uploadStateResult
)

type UploadModel struct {
	CommonModel
	docs *document.Service

	state      uploadState
	filePicker filepicker.Model
	form       *huh.Form
	path       string

	// Form bindings
	formMunicipality string
	formType         string
	formPeriod       string
	formYear         string

	status string
	err    error
}

func NewUploadModel(docs *document.Service) UploadModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".pdf", ".xlsx", ".txt"}
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	return UploadModel{
		docs:       docs,
		filePicker: fp,
	}
}

func (m UploadModel) Title() string { return "Upload Document" }

func (m UploadModel) ShortHelp() string {
	return "Esc: back | Enter: select"
}

func (m UploadModel) Init() tea.Cmd {
	return m.filePicker.Init()
}

func (m UploadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m.handleEsc()
		}

	case tea.WindowSizeMsg:
		m.resize(msg)
		m.filePicker.SetHeight(m.bodyHeight(8))

	case uploadResultMsg:
		m.state = uploadStateResult
		if msg.err != nil {
			m.err = msg.err
			m.status = fmt.Sprintf("Error: %v", msg.err)

			return m, nil
		}

		m.status = fmt.Sprintf("Uploaded %s (%s, %s).\nRun it from the documents view.",
			msg.doc.Name, msg.doc.Format, FormatSize(msg.doc.SizeBytes))

		return m, nil
	}

	switch m.state {
	case uploadStateFilePick:
		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)

		if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
			m.path = path
			return m.enterDetails()
		}

		return m, cmd
	case uploadStateDetails:
		form, cmd := m.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.form = f
		}

		if m.form.State != huh.StateCompleted {
			return m, cmd
		}

		m.state = uploadStateUploading
		m.status = fmt.Sprintf("Uploading %s...", filepath.Base(m.path))

		return m, m.uploadCmd()
	case uploadStateUploading, uploadStateResult:
	}

	return m, nil
}

func (m UploadModel) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case uploadStateDetails, uploadStateResult:
		m.state = uploadStateFilePick
		m.form = nil
		m.err = nil
		m.status = ""

		return m, m.filePicker.Init()
	case uploadStateFilePick, uploadStateUploading:
	}

	return m, Back
}

func (m UploadModel) enterDetails() (tea.Model, tea.Cmd) {
	m.formType = document.TypeSiteco
	m.formPeriod = ""
	m.formYear = ""

	notEmpty := func(field string) func(string) error {
		return func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s cannot be empty", field)
			}

			return nil
		}
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("municipality").
				Title("Municipality").
				Value(&m.formMunicipality).
				Validate(notEmpty("municipality")),
			huh.NewInput().
				Key("type").
				Title("Document type").
				Value(&m.formType).
				Validate(notEmpty("type")),
			huh.NewInput().
				Key("period").
				Title("Period").
				Placeholder("1T, 2T, ...").
				Value(&m.formPeriod),
			huh.NewInput().
				Key("year").
				Title("Year").
				Placeholder("2024").
				Value(&m.formYear).
				Validate(func(s string) error {
					if s == "" {
						return nil
					}

					if _, err := strconv.Atoi(s); err != nil {
						return fmt.Errorf("year must be a number")
					}

					return nil
				}),
		),
	).WithWidth(50).WithShowHelp(false)

	m.state = uploadStateDetails

	return m, m.form.Init()
}

func (m UploadModel) View() string {
	switch m.state {
	case uploadStateFilePick:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("Select a report (PDF, XLSX or text dump):\n\n%s", m.filePicker.View()),
		)
	case uploadStateDetails:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("%s\n\n%s", filepath.Base(m.path), m.form.View()),
		)
	case uploadStateUploading:
		return lipgloss.NewStyle().Padding(2).Render(m.status)
	case uploadStateResult:
		return m.viewResult()
	}

	return ""
}

func (m UploadModel) viewResult() string {
	style := lipgloss.NewStyle().Padding(2)
	if m.err != nil {
		return style.Render(
			lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(m.status) +
				"\n\n(Esc to go back)",
		)
	}

	return style.Render(
		lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Render(m.status) +
			"\n\n(Esc to go back)",
	)
}

// Messages

type uploadResultMsg struct {
	doc *document.Document
	err error
}

func (m UploadModel) uploadCmd() tea.Cmd {
	path := m.path
	params := document.UploadParams{
		Municipality: strings.TrimSpace(m.formMunicipality),
		Type:         strings.TrimSpace(m.formType),
		Period:       strings.TrimSpace(m.formPeriod),
		FileName:     filepath.Base(path),
	}

	if y, err := strconv.Atoi(m.formYear); err == nil {
		params.Year = y
	}

	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return uploadResultMsg{err: err}
		}

		params.Data = data

		ctx, cancel := DbCtx()
		defer cancel()

		d, err := m.docs.Upload(ctx, params)

		return uploadResultMsg{doc: d, err: err}
	}
}
