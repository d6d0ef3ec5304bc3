package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/idilsaglam/todo/internal/model"
)

// listItem adapts model.Item to bubbles/list.Item
type listItem struct{ model.Item }

func (i listItem) FilterValue() string { return i.Content }

func toListItems(items []model.Item) []list.Item {
	out := make([]list.Item, 0, len(items))
	for _, it := range items {
		out = append(out, listItem{it})
	}
	return out
}

// itemDelegate draws one row at exactly the list width: cursor marker, box,
// content, then the delete affordance in the last deleteWidth cells.
type itemDelegate struct {
	focused bool
	pending map[int64]int
	spinner string
}

func (d itemDelegate) Height() int                         { return 1 }
func (d itemDelegate) Spacing() int                        { return 0 }
func (d itemDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	fmt.Fprint(w, d.row(it.Item, index == m.Index(), m.Width()))
}

func (d itemDelegate) row(it model.Item, selected bool, width int) string {
	prefix := "  "
	if selected && d.focused {
		prefix = selectedStyle.Render(">") + " "
	}

	text := ansi.Truncate(it.Content, width-2-2-deleteWidth, "…")

	box := mutedStyle.Render(boxUnchecked)
	_, toggling := d.pending[it.ID]
	switch {
	case toggling:
		box = d.spinner
		text = togglingStyle.Render(text)
	case it.Completed:
		box = successStyle.Render(boxChecked)
		text = doneStyle.Render(text)
	}

	left := prefix + box + " " + text
	if pad := width - deleteWidth - ansi.StringWidth(left); pad > 0 {
		left += strings.Repeat(" ", pad)
	}
	return left + " " + deleteStyle.Render(deleteGlyph) + " "
}
