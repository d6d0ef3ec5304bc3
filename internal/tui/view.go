package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/idilsaglam/todo/internal/model"
	"github.com/idilsaglam/todo/internal/ui"
)

// Layout constants for mouse hit-testing. The panel adds one border row on
// top, and a border column plus one padding column on the left.
const (
	panelX      = 2
	panelY      = 1
	deleteWidth = 3 // " ✖ "
	minRowWidth = 24
)

func (m Model) View() string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		m.topView(),
		m.listView(),
		"",
		m.helpView(),
	)
	return panelStyle.Render(body)
}

// topView is everything above the list: header, form, notice line, spacer.
func (m Model) topView() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		m.formView(),
		ansi.Truncate(m.notice.View(), m.rowWidth(), "…"),
		"",
	)
}

func (m Model) headerView() string {
	d, p := model.Stats(m.state.Items)
	h := fmt.Sprintf("%s   %s %d  %s %d  %s %d  %s",
		titleStyle.Render("To-Do"),
		successStyle.Render("✔"), d,
		pendingStyle.Render("•"), p,
		accentStyle.Render("Total"), len(m.state.Items),
		mutedStyle.Render(ui.ProgressBar(d, d+p, 12)),
	)
	if pg := m.list.Paginator; pg.TotalPages > 1 {
		h += mutedStyle.Render(fmt.Sprintf("  %d/%d", pg.Page+1, pg.TotalPages))
	}
	return h
}

func (m Model) formView() string {
	return m.input.View()
}

func (m Model) helpView() string {
	if m.focus == focusForm {
		return m.help.View(m.formKeys)
	}
	return m.help.View(m.listKeys)
}

// listView always takes exactly listHeight lines.
func (m Model) listView() string {
	fill := lipgloss.NewStyle().Height(m.listHeight())
	if !m.loaded {
		return fill.Render(mutedStyle.Render("loading…"))
	}
	if len(m.state.Items) == 0 {
		return fill.Render(mutedStyle.Render("no items"))
	}
	l := m.list
	l.SetDelegate(itemDelegate{
		focused: m.focus == focusList,
		pending: m.pending,
		spinner: m.spinner.View(),
	})
	return l.View()
}

func (m Model) rowWidth() int {
	w := m.width - 4 // border and padding on both sides
	if w < minRowWidth {
		w = minRowWidth
	}
	return w
}

func (m Model) listHeight() int {
	h := m.height - 2 - lipgloss.Height(m.topView()) - 2
	if h < 1 {
		h = 1
	}
	return h
}

// resize fits the input, help and list to a terminal of w by h cells.
func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	m.input.Width = m.rowWidth() - 4
	m.help.Width = m.rowWidth()
	m.list.SetSize(m.rowWidth(), m.listHeight())
}

func (m Model) listTop() int {
	return panelY + lipgloss.Height(m.topView())
}

func (m Model) onForm(y int) bool {
	return y == panelY+lipgloss.Height(m.headerView())
}

// hitTest maps a screen cell to an item index and whether the cell is on
// the delete affordance.
func (m Model) hitTest(x, y int) (idx int, onDelete bool, ok bool) {
	if !m.loaded {
		return 0, false, false
	}
	pg := m.list.Paginator
	row := y - m.listTop()
	if row < 0 || row >= pg.ItemsOnPage(len(m.list.Items())) {
		return 0, false, false
	}
	rx := x - panelX
	w := m.rowWidth()
	if rx < 0 || rx >= w {
		return 0, false, false
	}
	return pg.Page*pg.PerPage + row, rx >= w-deleteWidth, true
}
