package ui

import "strings"

const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	strike = "\033[9m"

	fgGray   = "\033[90m"
	fgGreen  = "\033[32m"
	fgYellow = "\033[33m"
	fgBlue   = "\033[34m"
	fgRed    = "\033[31m"
)

// Theme bundles palette + symbols + box borders.
type Theme struct {
	Name                                          string
	Title, Muted, Accent, Success, Error, Pending string
	Done                                          string // applied to completed item text
	BoxUnchecked, BoxChecked                      string
	CornerTL, CornerTR, CornerBL, CornerBR        string
	H, V                                          string
	SymDone, SymPending, SymOK, SymFail           string
	NoColor                                       bool
}

// ThemeByName returns classic for unknown names.
func ThemeByName(name string) Theme {
	switch strings.ToLower(name) {
	case "neon":
		return Theme{
			Name:  "neon",
			Title: "\033[95m", // bright magenta
			Muted: fgGray, Accent: "\033[96m",
			Success: fgGreen, Error: fgRed, Pending: "\033[93m",
			Done:         fgGray + strike,
			BoxUnchecked: "◻", BoxChecked: "◼",
			CornerTL: "╭", CornerTR: "╮", CornerBL: "╰", CornerBR: "╯",
			H: "─", V: "│",
			SymDone: "✔", SymPending: "•", SymOK: "✔", SymFail: "✖",
		}
	case "mono":
		return Theme{
			Name:         "mono",
			BoxUnchecked: "[ ]", BoxChecked: "[x]",
			CornerTL: "+", CornerTR: "+", CornerBL: "+", CornerBR: "+",
			H: "-", V: "|",
			SymDone: "x", SymPending: "-", SymOK: "ok", SymFail: "error:",
			NoColor: true,
		}
	default:
		return Theme{
			Name:  "classic",
			Title: bold, Muted: fgGray, Accent: fgBlue,
			Success: fgGreen, Error: fgRed, Pending: fgYellow,
			Done:         dim + strike,
			BoxUnchecked: "☐", BoxChecked: "☑",
			CornerTL: "┌", CornerTR: "┐", CornerBL: "└", CornerBR: "┘",
			H: "─", V: "│",
			SymDone: "✔", SymPending: "•", SymOK: "✔", SymFail: "✖",
		}
	}
}
