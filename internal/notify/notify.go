// Package notify is a one-line message area that clears itself.
package notify

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const DefaultTTL = 3 * time.Second

// Level picks the style of a message.
type Level int

const (
	LevelError Level = iota
	LevelInfo
)

// ExpiredMsg is delivered when the message shown as Seq has lived out its TTL.
type ExpiredMsg struct{ Seq int }

type Notifier struct {
	TTL time.Duration

	text  string
	level Level
	seq   int

	ErrorStyle lipgloss.Style
	InfoStyle  lipgloss.Style
}

func New(ttl time.Duration) Notifier {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return Notifier{
		TTL:        ttl,
		ErrorStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		InfoStyle:  lipgloss.NewStyle().Faint(true),
	}
}

// Show replaces the current message and schedules its expiry.
func (n *Notifier) Show(text string, level Level) tea.Cmd {
	n.seq++
	n.text = text
	n.level = level
	seq := n.seq
	return tea.Tick(n.TTL, func(time.Time) tea.Msg { return ExpiredMsg{Seq: seq} })
}

func (n *Notifier) Error(text string) tea.Cmd { return n.Show(text, LevelError) }
func (n *Notifier) Info(text string) tea.Cmd  { return n.Show(text, LevelInfo) }

// Update clears the message when its own expiry arrives. Expiries of
// messages that were already replaced are ignored.
func (n *Notifier) Update(msg tea.Msg) {
	if m, ok := msg.(ExpiredMsg); ok && m.Seq == n.seq {
		n.text = ""
	}
}

func (n Notifier) Text() string  { return n.text }
func (n Notifier) Visible() bool { return n.text != "" }

// View renders the message, or a blank line so the layout does not jump.
func (n Notifier) View() string {
	if n.text == "" {
		return " "
	}
	if n.level == LevelInfo {
		return n.InfoStyle.Render(n.text)
	}
	return n.ErrorStyle.Render("✖ " + n.text)
}
