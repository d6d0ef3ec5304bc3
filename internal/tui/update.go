package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/todo/internal/api"
	"github.com/idilsaglam/todo/internal/notify"
	"github.com/idilsaglam/todo/internal/validate"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case itemsLoadedMsg:
		return m.applyItems(msg)

	case mutationDoneMsg:
		return m.afterMutation(msg)

	case notify.ExpiredMsg:
		m.notice.Update(msg)
		return m, nil

	case spinner.TickMsg:
		if len(m.pending) == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		if m.focus == focusForm {
			return m.updateForm(msg)
		}
		return m.updateList(msg)
	}

	if m.focus == focusForm {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.formKeys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.formKeys.Submit):
		return m.submit()
	case key.Matches(msg, m.formKeys.Back):
		m.setFocus(focusList)
		return m, nil
	}

	// inputChange
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.state.FormText = m.input.Value()
	return m, cmd
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.listKeys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.listKeys.Up):
		m.list.CursorUp()
	case key.Matches(msg, m.listKeys.Down):
		m.list.CursorDown()
	case key.Matches(msg, m.listKeys.Toggle):
		return m.toggle(m.list.Index())
	case key.Matches(msg, m.listKeys.Delete):
		return m.remove(m.list.Index())
	case key.Matches(msg, m.listKeys.Refresh):
		cmd := tea.Batch(m.fetch(), m.notice.Info("refreshing…"))
		return m, cmd
	case key.Matches(msg, m.listKeys.Add):
		cmd := m.setFocus(focusForm)
		return m, cmd
	default:
		// paging and home/end
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.list.CursorUp()
		return m, nil
	case tea.MouseButtonWheelDown:
		m.list.CursorDown()
		return m, nil
	case tea.MouseButtonLeft:
	default:
		return m, nil
	}

	if m.onForm(msg.Y) {
		cmd := m.setFocus(focusForm)
		return m, cmd
	}
	idx, onDelete, ok := m.hitTest(msg.X, msg.Y)
	if !ok {
		return m, nil
	}
	m.setFocus(focusList)
	m.list.Select(idx)
	if onDelete {
		return m.remove(idx)
	}
	return m.toggle(idx)
}

func (m *Model) setFocus(f focus) tea.Cmd {
	m.focus = f
	if f == focusForm {
		return m.input.Focus()
	}
	m.input.Blur()
	return nil
}

// submit validates the form and, if it passes, clears it and creates the item.
func (m Model) submit() (tea.Model, tea.Cmd) {
	value := m.state.FormText
	if err := validate.Check(value, m.state.Items); err != nil {
		reason := "blank"
		if errors.Is(err, validate.ErrDuplicate) {
			reason = "duplicate"
		}
		m.metrics.Rejected(reason)
		m.log.Debug("submission rejected", "reason", reason)
		cmd := m.notice.Error(err.Error())
		return m, cmd
	}

	m.state.FormText = ""
	m.input.SetValue("")
	return m, m.createCmd(strings.TrimSpace(value))
}

// toggle is the item-body click.
func (m Model) toggle(idx int) (tea.Model, tea.Cmd) {
	if idx < 0 || idx >= len(m.state.Items) {
		return m, nil
	}
	it := m.state.Items[idx]
	if _, busy := m.pending[it.ID]; busy {
		return m, nil
	}
	startSpinner := len(m.pending) == 0
	m.pending = copyPending(m.pending)
	m.pending[it.ID] = 0

	cmd := m.toggleCmd(it)
	if startSpinner {
		cmd = tea.Batch(cmd, m.spinner.Tick)
	}
	return m, cmd
}

// remove is the delete-affordance click.
func (m Model) remove(idx int) (tea.Model, tea.Cmd) {
	if idx < 0 || idx >= len(m.state.Items) {
		return m, nil
	}
	return m, m.deleteCmd(m.state.Items[idx].ID)
}

// afterMutation re-fetches the list whether or not the mutation succeeded.
// A successful toggle keeps its row marked until that re-fetch lands.
func (m Model) afterMutation(msg mutationDoneMsg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if msg.err != nil {
		m.log.Warn("mutation failed", "op", msg.op, "id", msg.id, "err", msg.err)
		if text := describe(msg.err); text != "" {
			cmds = append(cmds, m.notice.Error(text))
		}
	}
	cmds = append(cmds, m.fetch())
	if msg.op == api.OpToggle {
		m.pending = copyPending(m.pending)
		if msg.err != nil {
			delete(m.pending, msg.id)
		} else {
			m.pending[msg.id] = m.fetchSeq
		}
	}
	return m, tea.Batch(cmds...)
}

// applyItems replaces the snapshot. Responses older than the newest applied
// one are dropped, so overlapping fetches cannot roll the list back.
func (m Model) applyItems(msg itemsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.seq < m.appliedSeq {
		m.log.Debug("dropping stale list", "seq", msg.seq, "applied", m.appliedSeq)
		return m, nil
	}

	var cmd tea.Cmd
	if msg.err != nil {
		m.log.Warn("list failed", "seq", msg.seq, "err", msg.err)
		if text := describe(msg.err); text != "" {
			cmd = m.notice.Error(text)
		}
	}
	if msg.items == nil && msg.err != nil {
		return m, cmd
	}

	m.appliedSeq = msg.seq
	m.loaded = true
	m.state.Items = msg.items
	m.list.SetItems(toListItems(msg.items))
	if n := len(msg.items); m.list.Index() >= n {
		m.list.Select(max(n-1, 0))
	}
	m.pending = settled(m.pending, msg.seq)
	return m, cmd
}

// describe turns an API error into a short notice. Cancellation is silent.
func describe(err error) string {
	if errors.Is(err, context.Canceled) {
		return ""
	}
	var se *api.StatusError
	if errors.As(err, &se) {
		return fmt.Sprintf("%s failed: server answered %d", se.Op, se.StatusCode)
	}
	var de *api.DecodeError
	if errors.As(err, &de) {
		return de.Op + " failed: unexpected response"
	}
	return "network error: " + err.Error()
}

func copyPending(p map[int64]int) map[int64]int {
	out := make(map[int64]int, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	return out
}

// settled drops the toggles whose re-fetch is covered by a snapshot of seq.
// Toggles still in flight, or waiting on a newer fetch, stay marked.
func settled(p map[int64]int, seq int) map[int64]int {
	out := make(map[int64]int, len(p))
	for id, want := range p {
		if want == 0 || seq < want {
			out[id] = want
		}
	}
	return out
}
