package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/doeshing/snapask/internal/app"
	"github.com/doeshing/snapask/internal/domain"
	"github.com/doeshing/snapask/internal/infrastructure/capture"
	"github.com/doeshing/snapask/internal/infrastructure/transport"
)

type browserFlags struct {
	headless   bool
	pixelRatio float64
	width      int
	height     int
}

func (f *browserFlags) register(cmd *cobra.Command, headlessDefault bool) {
	cmd.Flags().BoolVar(&f.headless, "headless", headlessDefault, "Run the capture browser without a window")
	cmd.Flags().Float64Var(&f.pixelRatio, "pixel-ratio", 1, "Device pixels per CSS pixel of the capture")
	cmd.Flags().IntVar(&f.width, "width", domain.DefaultViewportWidth, "Viewport width in CSS pixels")
	cmd.Flags().IntVar(&f.height, "height", domain.DefaultViewportHeight, "Viewport height in CSS pixels")
}

func (f browserFlags) options() capture.Options {
	return capture.Options{
		Headless:   f.headless,
		Width:      f.width,
		Height:     f.height,
		PixelRatio: f.pixelRatio,
	}
}

// NewServeCommand creates the serve command, which runs the privileged
// process for panels started with --daemon.
func NewServeCommand(container *app.Container) *cobra.Command {
	var (
		addr    string
		openURL string
		browser browserFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the capture and inference daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, container, addr, openURL, browser)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", domain.DefaultListenAddr, "Loopback address to listen on")
	cmd.Flags().StringVar(&openURL, "open", "", "Open this page right away and print its window id")
	browser.register(cmd, true)
	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, container *app.Container, addr, openURL string, flags browserFlags) error {
	browser := capture.NewBrowser(flags.options())
	defer func() {
		if err := browser.Close(); err != nil {
			container.Logger.Warn("failed to close browser", map[string]interface{}{"error": err.Error()})
		}
	}()

	go container.Settings.Watch(ctx, 0)

	if openURL != "" {
		openCtx, cancel := context.WithTimeout(ctx, DefaultOpenTimeout)
		tab, err := browser.Open(openCtx, openURL)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", openURL, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "window %s (%s)\n", tab.WindowID, tab.Hostname)
	}

	service := container.NewBackground(browser, nil)
	server := transport.NewServer(addr, service, container.Logger)
	fmt.Fprintf(cmd.OutOrStdout(), "snapask daemon listening on %s\n", addr)
	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("daemon stopped: %w", err)
	}
	return nil
}
