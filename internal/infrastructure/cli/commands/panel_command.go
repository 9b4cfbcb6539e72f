package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/doeshing/snapask/internal/app"
	"github.com/doeshing/snapask/internal/application/panel"
	"github.com/doeshing/snapask/internal/domain"
	"github.com/doeshing/snapask/internal/infrastructure/bus"
	"github.com/doeshing/snapask/internal/infrastructure/capture"
	"github.com/doeshing/snapask/internal/infrastructure/transport"
	"github.com/doeshing/snapask/internal/infrastructure/tui"
	"github.com/doeshing/snapask/internal/pkg/filesystem"
	"github.com/doeshing/snapask/internal/pkg/logger"
	"github.com/doeshing/snapask/internal/ports"
)

type panelFlags struct {
	daemon   string
	windowID string
	hostname string
	browser  browserFlags
}

// NewPanelCommand creates the panel command. Without --daemon the capture
// browser and the privileged handler run inside this process.
func NewPanelCommand(container *app.Container) *cobra.Command {
	var flags panelFlags

	cmd := &cobra.Command{
		Use:   "panel [url]",
		Short: "Open the floating capture panel over a page",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pageURL string
			if len(args) == 1 {
				pageURL = args[0]
			}
			return runPanel(cmd.Context(), container, pageURL, flags)
		},
	}

	cmd.Flags().StringVar(&flags.daemon, "daemon", "", "Address of a running `snapask serve`")
	cmd.Flags().StringVar(&flags.windowID, "window", "", "Attach to an already opened window (daemon mode)")
	cmd.Flags().StringVar(&flags.hostname, "host", "", "Hostname of the attached window (daemon mode)")
	flags.browser.register(cmd, false)
	return cmd
}

func runPanel(ctx context.Context, container *app.Container, pageURL string, flags panelFlags) error {
	log, closeLog, err := panelLogger(container.Verbose)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		messenger ports.Messenger
		watcher   ports.SettingsWatcher
	)
	if flags.daemon != "" {
		client := transport.NewClient(flags.daemon, nil)
		if err := client.Health(ctx); err != nil {
			return fmt.Errorf("daemon at %s is not reachable: %w", flags.daemon, err)
		}
		messenger, watcher = client, client
	} else {
		if pageURL == "" {
			return errors.New(ErrPageRequired)
		}
		browser := capture.NewBrowser(flags.browser.options())
		defer browser.Close()

		go container.Settings.Watch(ctx, 0)
		messenger = bus.NewLocal(container.NewBackground(browser, log))
		watcher = bus.SettingsFeed{Store: container.Settings}
	}

	tab := domain.TabInfo{WindowID: flags.windowID, Hostname: flags.hostname}
	if tab.WindowID == "" || tab.Hostname == "" {
		if pageURL == "" {
			return errors.New(ErrPageRequired)
		}
		tab, err = openTab(ctx, messenger, pageURL)
		if err != nil {
			return err
		}
	}
	log.Info("panel attached", map[string]interface{}{"window": tab.WindowID, "host": tab.Hostname})

	orchestrator := panel.NewOrchestrator(panel.Config{
		Messenger:  messenger,
		Cropper:    container.Cropper,
		Clipboard:  container.Clipboard,
		Logger:     log,
		WindowID:   tab.WindowID,
		Hostname:   tab.Hostname,
		PixelRatio: flags.browser.pixelRatio,
	})

	return tui.Run(ctx, tui.Options{
		Orchestrator:   orchestrator,
		Watcher:        watcher,
		Logger:         log,
		ViewportWidth:  flags.browser.width,
		ViewportHeight: flags.browser.height,
	})
}

func openTab(ctx context.Context, messenger ports.Messenger, pageURL string) (domain.TabInfo, error) {
	req, err := domain.NewRequest(domain.ActionOpenTab, "", domain.OpenTabPayload{URL: pageURL})
	if err != nil {
		return domain.TabInfo{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, DefaultOpenTimeout)
	defer cancel()

	resp, err := messenger.Send(ctx, req)
	if err != nil {
		return domain.TabInfo{}, fmt.Errorf("failed to open %s: %w", pageURL, err)
	}
	var tab domain.TabInfo
	if err := resp.Decode(&tab); err != nil {
		return domain.TabInfo{}, fmt.Errorf("failed to open %s: %w", pageURL, err)
	}
	return tab, nil
}

// panelLogger writes to a file because the terminal belongs to the panel.
func panelLogger(verbose bool) (ports.Logger, func(), error) {
	dir := filepath.Join(filesystem.StateDir(), "logs")
	if err := os.MkdirAll(dir, domain.DirectoryPermissions); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "panel.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, domain.SecureFilePermissions)
	if err != nil {
		return nil, nil, fmt.Errorf("open panel log: %w", err)
	}
	return logger.NewWithWriter(f, verbose), func() { f.Close() }, nil
}
