// Package ui prints one-shot command output: status lines and a framed list.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/idilsaglam/todo/internal/model"
)

const maxContentWidth = 80

type Printer struct {
	out, err io.Writer
	theme    Theme
	color    bool
}

// New picks colour support from out: NO_COLOR, CLICOLOR_FORCE and TTY
// detection are handled by termenv. The mono theme never colours.
func New(out, errOut io.Writer, theme string) *Printer {
	t := ThemeByName(theme)
	color := !t.NoColor && termenv.NewOutput(out).EnvColorProfile() != termenv.Ascii
	return &Printer{out: out, err: errOut, theme: t, color: color}
}

// SetColor forces colour on or off.
func (p *Printer) SetColor(on bool) { p.color = on && !p.theme.NoColor }

// C wraps s in the colour code when colour is enabled.
func (p *Printer) C(code, s string) string {
	if !p.color || code == "" {
		return s
	}
	return code + s + reset
}

func (p *Printer) OK(msg string) {
	fmt.Fprintln(p.out, p.C(p.theme.Success, p.theme.SymOK+" "+msg))
}

func (p *Printer) Fail(msg string) {
	fmt.Fprintln(p.err, p.C(p.theme.Error, p.theme.SymFail+" "+msg))
}

// Panel draws a framed box around lines.
func (p *Printer) Panel(lines []string) {
	t := p.theme
	maxw := 0
	for _, ln := range lines {
		if w := ansi.StringWidth(ln); w > maxw {
			maxw = w
		}
	}
	fmt.Fprintln(p.out, t.CornerTL+strings.Repeat(t.H, maxw+2)+t.CornerTR)
	for _, ln := range lines {
		pad := strings.Repeat(" ", maxw-ansi.StringWidth(ln))
		fmt.Fprintln(p.out, t.V+" "+ln+pad+" "+t.V)
	}
	fmt.Fprintln(p.out, t.CornerBL+strings.Repeat(t.H, maxw+2)+t.CornerBR)
}

// List prints the header, progress bar and items inside a panel.
func (p *Printer) List(items []model.Item, group bool) {
	t := p.theme
	d, pn := model.Stats(items)
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		p.C(t.Title, "To-Do"),
		p.C(t.Success, t.SymDone), d,
		p.C(t.Pending, t.SymPending), pn,
		p.C(t.Accent, "Total"), len(items),
	)

	lines := []string{header, p.C(t.Muted, ProgressBar(d, d+pn, 28)), ""}
	if group {
		lines = append(lines, p.groupLines(items)...)
	} else {
		lines = append(lines, p.itemLines(items)...)
	}
	p.Panel(lines)
}

// itemLines shows the server id rather than a position; ids are what
// `done` and `rm` take.
func (p *Printer) itemLines(items []model.Item) []string {
	t := p.theme
	if len(items) == 0 {
		return []string{p.C(t.Muted, "no items")}
	}
	idw := 1
	for _, it := range items {
		if w := len(fmt.Sprint(it.ID)); w > idw {
			idw = w
		}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		idx := fmt.Sprintf("#%-*d", idw, it.ID)
		box, color := t.BoxUnchecked, t.Muted
		text := ansi.Truncate(it.Content, maxContentWidth, "...")
		if it.Completed {
			box, color = t.BoxChecked, t.Success
			text = p.C(t.Done, text)
		}
		out = append(out, fmt.Sprintf("%s %s %s", p.C(dim, idx), p.C(color, box), text))
	}
	return out
}

func (p *Printer) groupLines(items []model.Item) []string {
	var pend, done []model.Item
	for _, it := range items {
		if it.Completed {
			done = append(done, it)
		} else {
			pend = append(pend, it)
		}
	}
	section := func(title string, xs []model.Item) []string {
		lines := []string{p.C(p.theme.Accent, title)}
		if len(xs) == 0 {
			return append(lines, p.C(p.theme.Muted, "(none)"))
		}
		return append(lines, p.itemLines(xs)...)
	}
	lines := section("Pending", pend)
	lines = append(lines, "")
	return append(lines, section("Done", done)...)
}

// ProgressBar renders a bar with percentage.
func ProgressBar(done, total, width int) string {
	if total <= 0 {
		total = 1
	}
	if width < 5 {
		width = 5
	}
	filled := int(float64(done) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	pct := int(float64(done) / float64(total) * 100)
	return fmt.Sprintf("%s %3d%%", bar, pct)
}
