package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/doeshing/snapask/internal/app"
	"github.com/doeshing/snapask/internal/infrastructure/cli/commands"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
}

// NewRootCmd wires the cobra root command. The container is closed once the
// executed command finishes.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, error) {
	container, err := app.BuildContainer(ctx, app.Options{Verbose: opts.Verbose})
	if err != nil {
		return nil, err
	}
	cobra.OnFinalize(func() {
		if err := container.Close(); err != nil {
			container.Logger.Warn("failed to close resources", map[string]interface{}{"error": err.Error()})
		}
	})

	root := &cobra.Command{
		Use:   "snapask",
		Short: "snapask - capture a screen region and ask a vision model about it",
		Long: "snapask opens a page in a capture browser, lets you drag-select a region " +
			"in a terminal panel and sends the cropped image to a multimodal model.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		commands.NewPanelCommand(container),
		commands.NewServeCommand(container),
		commands.NewConfigCommand(container),
		commands.NewWhitelistCommand(container),
		commands.NewHistoryCommand(container),
		commands.NewDoctorCommand(container),
		commands.NewVersionCommand(),
	)
	return root, nil
}
