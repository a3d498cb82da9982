package cli

import (
	"context"
	"fmt"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/hearthwatch/hearthwatch/internal/models"
)

// maxTailEvents bounds the on-screen assessment history.
const maxTailEvents = 20

var tailSession string

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Follow live threat assessments",
	Long: `Follow the server's live assessment feed in the terminal.

Examples:
  hearthwatch tail
  hearthwatch tail --session home-1`,
	RunE: runTail,
}

func init() {
	tailCmd.Flags().StringVar(&tailSession, "session", "", "filter to a single session")
}

// Theme holds the color scheme for the live feed.
type Theme struct {
	Critical lipgloss.Color
	High     lipgloss.Color
	Medium   lipgloss.Color
	Low      lipgloss.Color
	Hint     lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Critical: lipgloss.Color("#FF005F"), // red
	High:     lipgloss.Color("#FF8700"), // orange
	Medium:   lipgloss.Color("#FFD700"), // yellow
	Low:      lipgloss.Color("#00D787"), // green
	Hint:     lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) levelStyle(level models.ThreatLevel) lipgloss.Style {
	switch level {
	case models.LevelCritical:
		return lipgloss.NewStyle().Foreground(t.Critical).Bold(true)
	case models.LevelHigh:
		return lipgloss.NewStyle().Foreground(t.High).Bold(true)
	case models.LevelMedium:
		return lipgloss.NewStyle().Foreground(t.Medium)
	default:
		return lipgloss.NewStyle().Foreground(t.Low)
	}
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// assessmentMsg carries one assessment from the stream.
type assessmentMsg models.ThreatAssessment

// streamErrMsg carries a terminal stream error.
type streamErrMsg struct {
	err error
}

// tailModel is the bubbletea model for the live feed.
type tailModel struct {
	session  string
	events   []models.ThreatAssessment
	msgs     chan tea.Msg
	spinner  spinner.Model
	theme    Theme
	err      error
	quitting bool
}

func newTailModel(session string, msgs chan tea.Msg) tailModel {
	return tailModel{
		session: session,
		msgs:    msgs,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		theme:   defaultTheme,
	}
}

// Init returns the initial command (wait for the first stream message).
func (m tailModel) Init() tea.Cmd {
	return tea.Batch(m.waitForMsg(), m.spinner.Tick)
}

// Update handles messages and returns the updated model.
func (m tailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case assessmentMsg:
		m.events = append(m.events, models.ThreatAssessment(msg))
		if len(m.events) > maxTailEvents {
			m.events = m.events[len(m.events)-maxTailEvents:]
		}
		return m, m.waitForMsg()

	case streamErrMsg:
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the live feed.
func (m tailModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m tailModel) renderContent() string {
	header := "Live assessments"
	if m.session != "" {
		header += " for " + m.session
	}
	out := header + "\n\n"

	if len(m.events) == 0 {
		out += m.spinner.View() + " " + m.theme.hintStyle().Render("Waiting for assessments...") + "\n"
	}
	for _, a := range m.events {
		level := m.theme.levelStyle(a.ThreatLevel).Render(fmt.Sprintf("[%s]", a.ThreatLevel))
		out += fmt.Sprintf("%s %s %s\n", a.EvaluatedAt.Format("15:04:05"), level, a.Reasoning)
		for _, action := range a.Actions {
			out += fmt.Sprintf("           -> %s (%s)\n", action.Kind, action.Scenario)
		}
	}

	if m.err != nil {
		out += "\n" + m.theme.levelStyle(models.LevelCritical).Render("stream error: "+m.err.Error()) + "\n"
	} else {
		out += "\n" + m.theme.hintStyle().Render("Press q to quit") + "\n"
	}
	return out
}

// waitForMsg blocks on the stream channel as a command so Update never blocks.
func (m tailModel) waitForMsg() tea.Cmd {
	return func() tea.Msg {
		return <-m.msgs
	}
}

func runTail(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs := make(chan tea.Msg, 16)
	go func() {
		err := api.StreamAssessments(ctx, tailSession, func(a models.ThreatAssessment) error {
			msgs <- assessmentMsg(a)
			return nil
		})
		if err != nil && ctx.Err() == nil {
			msgs <- streamErrMsg{err: err}
		}
	}()

	p := tea.NewProgram(newTailModel(tailSession, msgs))
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("tail UI error: %w", err)
	}

	if m, ok := finalModel.(tailModel); ok && m.err != nil {
		return m.err
	}
	return nil
}
