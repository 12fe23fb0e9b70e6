// Package tui provides a Bubble Tea view for watching a download batch.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/oneyoungman/bosuoyun/internal/config"
	"github.com/oneyoungman/bosuoyun/internal/download"
	"github.com/oneyoungman/bosuoyun/internal/model"
)

// ── Styles ────────────────────────────────────────────────────────────────────

// palette holds the styles of one color theme.
type palette struct {
	title   lipgloss.Style
	name    lipgloss.Style
	done    lipgloss.Style
	failed  lipgloss.Style
	skipped lipgloss.Style
	dim     lipgloss.Style
	hint    lipgloss.Style
}

func newPalette(theme config.Theme) palette {
	if theme == config.ThemeDark {
		return palette{
			title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")),
			name:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
			done:    lipgloss.NewStyle().Foreground(lipgloss.Color("82")),
			failed:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
			skipped: lipgloss.NewStyle().Foreground(lipgloss.Color("178")),
			dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
			hint:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		}
	}
	return palette{
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")),
		name:    lipgloss.NewStyle().Foreground(lipgloss.Color("236")),
		done:    lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
		failed:  lipgloss.NewStyle().Foreground(lipgloss.Color("124")),
		skipped: lipgloss.NewStyle().Foreground(lipgloss.Color("130")),
		dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		hint:    lipgloss.NewStyle().Foreground(lipgloss.Color("247")),
	}
}

// ── Messages ──────────────────────────────────────────────────────────────────

type eventMsg download.Event

type streamClosedMsg struct{}

// waitForEvent reads the next batch event into a message.
func waitForEvent(events <-chan download.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg(ev)
	}
}

// ── Model ─────────────────────────────────────────────────────────────────────

const (
	defaultWidth = 80
	maxNameWidth = 34
	barWidth     = 30
)

// Model is the Bubble Tea model for one running batch.
type Model struct {
	events <-chan download.Event
	stop   func()

	styles  palette
	spinner spinner.Model
	bar     progress.Model

	order    []string
	jobs     map[string]model.DownloadJob
	summary  *model.BatchSummary
	stopping bool
	width    int
}

// New creates a model that consumes events and renders the batch. stop is
// invoked when the user requests a cooperative stop.
func New(events <-chan download.Event, stop func(), theme config.Theme) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = barWidth

	return Model{
		events:  events,
		stop:    stop,
		styles:  newPalette(theme),
		spinner: sp,
		bar:     bar,
		jobs:    make(map[string]model.DownloadJob),
		width:   defaultWidth,
	}
}

// ── Bubble Tea interface ──────────────────────────────────────────────────────

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.summary != nil {
				return m, tea.Quit
			}
			if m.stopping {
				// Second press gives up on draining and leaves immediately.
				return m, tea.Quit
			}
			m.stopping = true
			if m.stop != nil {
				m.stop()
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case eventMsg:
		m.applyEvent(download.Event(msg))
		return m, waitForEvent(m.events)

	case streamClosedMsg:
		return m, tea.Quit
	}
	return m, nil
}

// applyEvent folds one batch event into the model state.
func (m *Model) applyEvent(ev download.Event) {
	if ev.Kind == download.EventBatchFinished {
		summary := ev.Summary
		m.summary = &summary
		return
	}

	if _, seen := m.jobs[ev.Job.ID]; !seen {
		m.order = append(m.order, ev.Job.ID)
	}
	m.jobs[ev.Job.ID] = ev.Job
}

func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.styles.title.Render(fmt.Sprintf("Downloading %d chapters", len(m.order))))
	sb.WriteString("\n\n")

	for _, id := range m.order {
		sb.WriteString(m.renderRow(m.jobs[id]))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	switch {
	case m.summary != nil:
		sb.WriteString(m.styles.title.Render(m.summary.String()))
		sb.WriteString("\n")
	case m.stopping:
		sb.WriteString(m.styles.hint.Render(m.stoppingHint()))
		sb.WriteString("\n")
	default:
		sb.WriteString(m.styles.hint.Render("q stop"))
		sb.WriteString("\n")
	}
	return sb.String()
}

// renderRow renders one job line: status marker, chapter name, then progress
// or the terminal outcome.
func (m Model) renderRow(job model.DownloadJob) string {
	name := m.styles.name.Render(padName(job.GetDisplayTitle()))

	switch job.Status {
	case model.JobStatusPending:
		return fmt.Sprintf("  %s %s %s", m.styles.dim.Render("·"), name, m.styles.dim.Render("waiting"))
	case model.JobStatusStarting:
		return fmt.Sprintf("  %s %s %s", m.spinner.View(), name, m.styles.dim.Render("starting"))
	case model.JobStatusDownloading:
		return fmt.Sprintf("  %s %s %s %3d%%", m.spinner.View(), name, m.bar.ViewAs(job.Progress), job.Percent)
	case model.JobStatusStopping:
		return fmt.Sprintf("  %s %s %s", m.spinner.View(), name, m.styles.skipped.Render("stopping"))
	case model.JobStatusCompleted:
		label := "done"
		if job.SizeLabel != "" {
			label = job.SizeLabel
		}
		return fmt.Sprintf("  %s %s %s", m.styles.done.Render("✓"), name, m.styles.done.Render(label))
	case model.JobStatusError:
		return fmt.Sprintf("  %s %s %s", m.styles.failed.Render("✗"), name, m.styles.failed.Render(job.LastError))
	case model.JobStatusStopped:
		return fmt.Sprintf("  %s %s %s", m.styles.skipped.Render("■"), name, m.styles.skipped.Render("stopped"))
	case model.JobStatusSkipped:
		return fmt.Sprintf("  %s %s %s", m.styles.skipped.Render("-"), name, m.styles.skipped.Render("skipped"))
	}
	return "  " + name
}

// stoppingHint describes the drain state after a stop request.
func (m Model) stoppingHint() string {
	if n := m.activeJobs(); n > 1 {
		return fmt.Sprintf("stopping after %d running downloads...", n)
	}
	return "stopping after the current download..."
}

// activeJobs counts jobs that have started but not reached a terminal status.
func (m Model) activeJobs() int {
	active := 0
	for _, job := range m.jobs {
		if job.Status.IsActive() {
			active++
		}
	}
	return active
}

// padName trims long chapter names and pads short ones so rows line up.
func padName(name string) string {
	runes := []rune(name)
	if len(runes) > maxNameWidth {
		return string(runes[:maxNameWidth-1]) + "…"
	}
	return name + strings.Repeat(" ", maxNameWidth-len(runes))
}

// ── Entry point ───────────────────────────────────────────────────────────────

// Run renders the batch until its event stream closes. stop is wired to the
// q key for a cooperative stop.
func Run(events <-chan download.Event, stop func(), theme config.Theme) error {
	p := tea.NewProgram(New(events, stop, theme))
	_, err := p.Run()
	return err
}
