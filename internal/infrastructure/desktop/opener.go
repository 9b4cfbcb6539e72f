// Package desktop hands files to the platform's default application.
package desktop

import (
	"context"
	"os/exec"
	"runtime"

	"github.com/doeshing/snapask/internal/ports"
)

// Runner starts an external command.
type Runner func(ctx context.Context, name string, args ...string) error

// defaultRunner starts the command detached from ctx so the viewer outlives
// the request that opened it.
func defaultRunner(_ context.Context, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}

// SettingsOpener opens the settings file, which is the options surface of
// the daemon.
type SettingsOpener struct {
	path   func() string
	goos   string
	runner Runner
}

// NewSettingsOpener opens whatever path returns at call time.
func NewSettingsOpener(path func() string) *SettingsOpener {
	return &SettingsOpener{path: path, goos: runtime.GOOS, runner: defaultRunner}
}

// OpenOptions implements ports.OptionsOpener.
func (o *SettingsOpener) OpenOptions(ctx context.Context) error {
	name, args := openCommandForOS(o.goos, o.path())
	return o.runner(ctx, name, args...)
}

func openCommandForOS(goos, path string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{"-t", path}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", path}
	default:
		return "xdg-open", []string{path}
	}
}

var _ ports.OptionsOpener = (*SettingsOpener)(nil)
