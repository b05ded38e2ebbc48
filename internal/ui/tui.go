// ABOUTME: TUI initialization and control
// ABOUTME: Runs the monitor program until the user quits or ctx ends
package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the monitor and blocks until it exits
func Run(ctx context.Context, poll func() StatusMsg) error {
	p := tea.NewProgram(NewModel(poll), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
