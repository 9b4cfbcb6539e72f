// Package clipboard copies analysis results to the system clipboard.
package clipboard

import (
	"errors"

	"github.com/atotto/clipboard"

	"github.com/doeshing/snapask/internal/ports"
)

// writeAll is swapped in tests.
var writeAll = clipboard.WriteAll

// System implements ports.Clipboard on top of the platform clipboard
// (pbcopy, xclip/xsel/wl-copy or the Windows API).
type System struct{}

// New builds the clipboard adapter.
func New() *System {
	return &System{}
}

// Enabled reports whether a clipboard backend was found.
func (s *System) Enabled() bool {
	return !clipboard.Unsupported
}

// Copy writes text to the clipboard.
func (s *System) Copy(text string) error {
	if !s.Enabled() {
		return errors.New("clipboard utilities not found")
	}
	return writeAll(text)
}

var _ ports.Clipboard = (*System)(nil)
