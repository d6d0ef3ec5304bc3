package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the full-screen client and blocks until the user quits or ctx
// is cancelled. Requests still in flight are cancelled on return.
func Run(ctx context.Context, remote Remote, opt Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := New(ctx, remote, opt)
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}
