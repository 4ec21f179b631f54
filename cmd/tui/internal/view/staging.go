package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/muniledger/internal/staging"
)

// StagingModel walks the staged goals one by one and assigns each to a
// program, discards it or skips it.
type StagingModel struct {
	CommonModel
	svc *staging.Service

	queue   []*staging.StagedGoal
	current *staging.StagedGoal

	candidates []staging.Candidate
	cursor     int

	status     string
	loading    bool
	totalCount int
}

func NewStagingModel(svc *staging.Service) StagingModel {
	return StagingModel{
		svc:     svc,
		loading: true,
		status:  "Loading staged goals...",
	}
}

func (m StagingModel) Title() string { return "Staged Goals" }

func (m StagingModel) ShortHelp() string {
	return "Up/Down: program | Enter: assign | d: discard | s: skip | Esc: back"
}

func (m StagingModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m StagingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}

		switch msg.String() {
		case "esc":
			return m, Back
		case "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down":
			if m.cursor < len(m.candidates)-1 {
				m.cursor++
			}
		case "enter":
			if m.current != nil && len(m.candidates) > 0 {
				return m, m.assignCmd(m.candidates[m.cursor].Program)
			}
		case "d":
			if m.current != nil {
				return m, m.discardCmd()
			}
		case "s":
			if m.current != nil {
				cmd := m.next()
				return m, cmd
			}
		}

	case loadStagedMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Error loading staged goals: %v", msg.err)
			break
		}

		m.queue = msg.goals
		m.totalCount = len(m.queue)

		if len(m.queue) == 0 {
			m.status = "No staged goals."
			break
		}

		cmd := m.next()

		return m, cmd

	case candidatesMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error loading programs: %v", msg.err)
			break
		}

		m.candidates = msg.candidates
		m.cursor = 0

	case tea.WindowSizeMsg:
		m.resize(msg)

	case stagingResultMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			break
		}

		cmd := m.next()

		return m, cmd
	}

	return m, nil
}

// next pops the queue and loads the candidates of the new current goal.
func (m *StagingModel) next() tea.Cmd {
	m.candidates = nil
	m.cursor = 0

	if len(m.queue) == 0 {
		m.current = nil
		m.status = "All done! No more staged goals."

		return nil
	}

	m.current = m.queue[0]
	m.queue = m.queue[1:]
	m.status = fmt.Sprintf("Reviewing %d/%d", m.totalCount-len(m.queue), m.totalCount)

	return m.candidatesCmd(m.current)
}

func (m StagingModel) View() string {
	if m.loading || m.current == nil {
		return lipgloss.NewStyle().Padding(2).Render(m.status + "\n\n(Esc to back)")
	}

	g := m.current.Goal

	var b strings.Builder

	fmt.Fprintf(&b, "%s\n\n", m.status)
	fmt.Fprintf(&b, "Goal:         %s\n", g.Name)
	fmt.Fprintf(&b, "Jurisdiction: %s\n", g.JurisdictionCode)
	fmt.Fprintf(&b, "Program:      %s %s\n", g.ProgramCode, g.ProgramName)

	if g.Unit != nil {
		fmt.Fprintf(&b, "Unit:         %s\n", *g.Unit)
	}

	fmt.Fprintf(&b, "Annual: %s  Partial: %s  Executed: %s\n\n",
		FormatAmount(g.Annual), FormatAmount(g.Partial), FormatAmount(g.Executed))

	if len(m.candidates) == 0 {
		b.WriteString("No programs to assign to.\n")
	}

	visible := len(m.candidates)
	if m.Height > 0 {
		visible = min(visible, m.bodyHeight(14))
	}

	start := max(0, m.cursor-visible+1)

	for i := start; i < start+visible; i++ {
		c := m.candidates[i]

		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}

		code := ""
		if c.Program.Code != nil {
			code = *c.Program.Code
		}

		line := fmt.Sprintf("%s%s %-4s %s", cursor, c.Program.JurisdictionCode, code, c.Program.Name)
		if c.Score > 0 {
			line += lipgloss.NewStyle().Faint(true).Render(fmt.Sprintf("  (match %d)", c.Score))
		}

		b.WriteString(line + "\n")
	}

	return lipgloss.NewStyle().Padding(2).Render(b.String())
}

// Messages

type loadStagedMsg struct {
	goals []*staging.StagedGoal
	err   error
}

func (m StagingModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		goals, err := m.svc.List(ctx, staging.ListFilter{})

		return loadStagedMsg{goals: goals, err: err}
	}
}

type candidatesMsg struct {
	candidates []staging.Candidate
	err        error
}

// candidatesCmd loads the suggested programs, or every program of the
// document when nothing matches.
func (m StagingModel) candidatesCmd(g *staging.StagedGoal) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		candidates, err := m.svc.Suggest(ctx, g.ID)
		if err != nil || len(candidates) > 0 {
			return candidatesMsg{candidates: candidates, err: err}
		}

		programs, err := m.svc.Programs(ctx, g.DocumentID)
		if err != nil {
			return candidatesMsg{err: err}
		}

		for _, p := range programs {
			candidates = append(candidates, staging.Candidate{Program: p})
		}

		return candidatesMsg{candidates: candidates}
	}
}

type stagingResultMsg struct {
	err error
}

func (m StagingModel) assignCmd(p staging.Program) tea.Cmd {
	id := m.current.ID

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		return stagingResultMsg{err: m.svc.Assign(ctx, id, p.ID)}
	}
}

func (m StagingModel) discardCmd() tea.Cmd {
	id := m.current.ID

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		return stagingResultMsg{err: m.svc.Discard(ctx, id)}
	}
}
