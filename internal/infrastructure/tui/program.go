package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/doeshing/snapask/internal/domain"
)

// Run shows the panel until the user quits or ctx is done. Settings changes
// from opts.Watcher are applied while it runs.
func Run(ctx context.Context, opts Options) error {
	if opts.Orchestrator == nil {
		return fmt.Errorf("tui: orchestrator is required")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newModel(ctx, opts)
	program := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	if opts.Watcher != nil {
		go func() {
			err := opts.Watcher.WatchSettings(ctx, func(view domain.SettingsView) {
				program.Send(settingsMsg{view: view})
			})
			if err != nil && ctx.Err() == nil {
				program.Send(watchErrMsg{err: err})
			}
		}()
	}

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to run panel: %w", err)
	}
	return nil
}
