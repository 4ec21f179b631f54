package view

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/muniledger/internal/document"
	"github.com/MrJamesThe3rd/muniledger/internal/ingest"
	"github.com/MrJamesThe3rd/muniledger/internal/report"
)

// ingestTimeout bounds a run; model-backed strategies retry with backoff.
const ingestTimeout = 10 * time.Minute

type documentsState int

const (
	documentsStateBrowse documentsState = iota
	documentsStateRun
	documentsStateDelete
	documentsStateRunning
)

var statusFilters = []*report.Status{
	nil,
	new(report.StatusPending),
	new(report.StatusProcessing),
	new(report.StatusCompleted),
	new(report.StatusError),
}

type DocumentsModel struct {
	CommonModel
	docs *document.Service
	runs *ingest.Service

	state documentsState
	table table.Model
	list  []*document.Document
	form  *huh.Form

	statusFilterIdx int

	filter  document.ListFilter
	loading bool
	err     error
	status  string

	// Form bindings
	formStrategy string
	formConfirm  bool
}

func NewDocumentsModel(docs *document.Service, runs *ingest.Service) DocumentsModel {
	columns := []table.Column{
		{Title: "Municipality", Width: 22},
		{Title: "Type", Width: 8},
		{Title: "Period", Width: 8},
		{Title: "Format", Width: 6},
		{Title: "Size", Width: 10},
		{Title: "Status", Width: 11},
		{Title: "Uploaded", Width: 16},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return DocumentsModel{
		docs:  docs,
		runs:  runs,
		table: t,
	}
}

func (m DocumentsModel) Title() string { return "Documents" }

func (m DocumentsModel) ShortHelp() string {
	if m.state != documentsStateBrowse {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | i: ingest | x: delete | s: status filter | r: refresh"
}

func (m DocumentsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m DocumentsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadDocumentsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.list = msg.docs
		m.refreshTable()

		return m, nil

	case runResultMsg:
		m.state = documentsStateBrowse
		m.form = nil
		m.table.Focus()
		m.status = describeRun(msg.summary, msg.err)

		return m, m.loadCmd()

	case deleteResultMsg:
		m.state = documentsStateBrowse
		m.form = nil
		m.table.Focus()

		m.status = "Document deleted."
		if msg.err != nil {
			m.status = fmt.Sprintf("Error deleting: %v", msg.err)
		}

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.resize(msg)
		m.table.SetHeight(m.bodyHeight(12))
		return m, nil
	}

	switch m.state {
	case documentsStateBrowse:
		return m.updateBrowse(msg)
	case documentsStateRun, documentsStateDelete:
		return m.updateForm(msg)
	case documentsStateRunning:
	}

	return m, nil
}

func (m DocumentsModel) selected() *document.Document {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.list) {
		return nil
	}

	return m.list[idx]
}

func (m DocumentsModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "s":
			m.statusFilterIdx = (m.statusFilterIdx + 1) % len(statusFilters)
			m.filter.Status = statusFilters[m.statusFilterIdx]

			return m, m.loadCmd()
		case "i":
			return m.enterRunForm()
		case "x":
			return m.enterDeleteForm()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m DocumentsModel) enterRunForm() (tea.Model, tea.Cmd) {
	if m.selected() == nil {
		return m, nil
	}

	options := make([]huh.Option[string], 0, len(ingest.Strategies()))
	for _, s := range ingest.Strategies() {
		options = append(options, huh.NewOption(string(s), string(s)))
	}

	m.formStrategy = string(ingest.StrategyParsers)
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("strategy").
				Title("Extraction strategy").
				Options(options...).
				Value(&m.formStrategy),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = documentsStateRun
	m.table.Blur()

	return m, m.form.Init()
}

func (m DocumentsModel) enterDeleteForm() (tea.Model, tea.Cmd) {
	d := m.selected()
	if d == nil {
		return m, nil
	}

	m.formConfirm = false
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Key("confirm").
				Title(fmt.Sprintf("Delete %s?", d.Name)).
				Value(&m.formConfirm),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = documentsStateDelete
	m.table.Blur()

	return m, m.form.Init()
}

func (m DocumentsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = documentsStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if m.state == documentsStateDelete {
		if !m.formConfirm {
			m.state = documentsStateBrowse
			m.form = nil
			m.table.Focus()

			return m, nil
		}

		return m, m.deleteCmd()
	}

	m.state = documentsStateRunning
	m.status = fmt.Sprintf("Running %s...", m.formStrategy)

	return m, m.runCmd()
}

func (m DocumentsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading documents...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	label := "All"
	if f := statusFilters[m.statusFilterIdx]; f != nil {
		label = string(*f)
	}

	header := fmt.Sprintf("Filter: [s] Status: %s", activeStyle(label))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	panel := m.detailPanel()
	if m.form != nil {
		panel = m.form.View()
	}

	if panel != "" {
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(52).
			Render(panel))
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

// detailPanel shows the last run summary of the selected document.
func (m DocumentsModel) detailPanel() string {
	d := m.selected()
	if d == nil || d.Summary == nil {
		return ""
	}

	var b strings.Builder

	fmt.Fprintf(&b, "%s\n\nStrategy: %s\n", d.Name, d.Summary.Strategy)

	for _, t := range []report.Table{
		report.TableResources, report.TableExpenses, report.TableTreasury, report.TableAccounts,
		report.TableBalanceSheet, report.TableJurisdictions, report.TablePrograms, report.TableGoals,
	} {
		fmt.Fprintf(&b, "%-20s %d\n", t, d.Summary.Counts[t])
	}

	if d.Summary.UnresolvedGoals > 0 {
		fmt.Fprintf(&b, "\nUnresolved goals: %d\n", d.Summary.UnresolvedGoals)
	}

	if d.Summary.Error != "" {
		fmt.Fprintf(&b, "\n%s\n", lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(d.Summary.Error))
	}

	const maxWarnings = 5

	for i, w := range d.Summary.Warnings {
		if i == maxWarnings {
			fmt.Fprintf(&b, "... %d more warnings\n", len(d.Summary.Warnings)-maxWarnings)
			break
		}

		fmt.Fprintf(&b, "! %s\n", w)
	}

	return b.String()
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

func (m *DocumentsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.list))
	for _, d := range m.list {
		rows = append(rows, table.Row{
			d.Municipality,
			d.Type,
			d.Period,
			string(d.Format),
			FormatSize(d.SizeBytes),
			string(d.Status),
			FormatAge(d.CreatedAt),
		})
	}

	m.table.SetRows(rows)
}

func describeRun(summary *report.Summary, err error) string {
	if err != nil {
		return fmt.Sprintf("Ingest failed: %v", err)
	}

	total := 0
	for _, n := range summary.Counts {
		total += n
	}

	return fmt.Sprintf("Ingest completed: %d rows, %d warnings, %d unresolved goals.",
		total, len(summary.Warnings), summary.UnresolvedGoals)
}

// Messages

type loadDocumentsMsg struct {
	docs []*document.Document
	err  error
}

func (m DocumentsModel) loadCmd() tea.Cmd {
	filter := m.filter

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		docs, err := m.docs.List(ctx, filter)

		return loadDocumentsMsg{docs: docs, err: err}
	}
}

type runResultMsg struct {
	summary *report.Summary
	err     error
}

func (m DocumentsModel) runCmd() tea.Cmd {
	d := m.selected()
	if d == nil {
		return nil
	}

	strategy := ingest.Strategy(m.formStrategy)

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
		defer cancel()

		summary, err := m.runs.Run(ctx, d.ID, strategy)

		return runResultMsg{summary: summary, err: err}
	}
}

type deleteResultMsg struct {
	err error
}

func (m DocumentsModel) deleteCmd() tea.Cmd {
	d := m.selected()
	if d == nil {
		return nil
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		return deleteResultMsg{err: m.docs.Delete(ctx, d.ID)}
	}
}
