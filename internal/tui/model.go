// Package tui renders a running prayer timer in the terminal.
package tui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Nixie-Tech-LLC/athan/internal/model"
	"github.com/Nixie-Tech-LLC/athan/internal/prayer"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	completedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	nextStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	upcomingStyle  = lipgloss.NewStyle()
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	hintStyle      = lipgloss.NewStyle().Faint(true)
	reminderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	panelStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 2)
)

type viewMsg prayer.View

type closedMsg struct{}

// ReminderMsg is sent when a reminder is shown.
type ReminderMsg struct {
	Title string
	Body  string
	At    time.Time
}

type Model struct {
	place    string
	views    <-chan prayer.View
	view     prayer.View
	reminder *ReminderMsg
	quitting bool
}

// New renders views from a timer subscription until it closes or the user
// quits.
func New(place string, views <-chan prayer.View) Model {
	return Model{place: place, views: views, view: prayer.View{State: prayer.StateLoading}}
}

func (m Model) Init() tea.Cmd {
	return waitForView(m.views)
}

func waitForView(views <-chan prayer.View) tea.Cmd {
	return func() tea.Msg {
		v, ok := <-views
		if !ok {
			return closedMsg{}
		}
		return viewMsg(v)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	case viewMsg:
		m.view = prayer.View(msg)
		return m, waitForView(m.views)
	case ReminderMsg:
		m.reminder = &msg
	case closedMsg:
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	header := "Prayer Times"
	if m.place != "" {
		header += " · " + m.place
	}
	if m.view.Date != "" {
		header += " · " + m.view.Date
	}
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	switch m.view.State {
	case prayer.StateLoading:
		b.WriteString("Loading prayer times…\n")
	case prayer.StateUnavailable:
		b.WriteString(errorStyle.Render("Prayer times unavailable"))
		b.WriteString("\n")
	default:
		for _, s := range m.view.Slots {
			b.WriteString(renderRow(s))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		if m.view.Next != nil {
			fmt.Fprintf(&b, "Next: %s in %s\n", m.view.Next.Name, m.view.Countdown)
		} else {
			b.WriteString("All prayers completed for today\n")
		}
	}

	b.WriteString(notificationLine(m.view))
	if m.reminder != nil {
		b.WriteString(reminderStyle.Render(fmt.Sprintf("%s  %s: %s", m.reminder.At.Format("15:04"), m.reminder.Title, m.reminder.Body)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("q to quit"))
	return panelStyle.Render(b.String()) + "\n"
}

func renderRow(s prayer.SlotView) string {
	line := fmt.Sprintf("%-8s %s  %s", s.Name, s.Time, s.Status)
	switch s.Status {
	case model.StatusCompleted:
		return completedStyle.Render(line)
	case model.StatusNext:
		return nextStyle.Render("▸ " + line)
	default:
		return upcomingStyle.Render("  " + line)
	}
}

func notificationLine(v prayer.View) string {
	switch {
	case !v.NotificationsEnabled:
		return "Reminders off\n"
	case v.Permission != model.PermissionGranted:
		return fmt.Sprintf("Reminders need permission (%s)\n", v.Permission)
	case v.Armed != nil:
		return fmt.Sprintf("Reminder set for %s at %s\n", v.Armed.Prayer, v.Armed.FireAt.Format("15:04"))
	default:
		return "No reminder pending\n"
	}
}

// Notifier forwards reminders to a running program and then to Next.
type Notifier struct {
	Next prayer.Notifier

	mu      sync.Mutex
	program *tea.Program
}

func (n *Notifier) Attach(p *tea.Program) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.program = p
}

func (n *Notifier) Show(title, body string) {
	n.mu.Lock()
	p := n.program
	n.mu.Unlock()
	if p != nil {
		p.Send(ReminderMsg{Title: title, Body: body, At: time.Now()})
	}
	if n.Next != nil {
		n.Next.Show(title, body)
	}
}
