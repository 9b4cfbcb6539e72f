// Package tui renders the panel in a terminal. The terminal grid stands in
// for the browser viewport: mouse cells are mapped onto CSS pixels of the
// captured page.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/doeshing/snapask/internal/application/panel"
	"github.com/doeshing/snapask/internal/domain"
	"github.com/doeshing/snapask/internal/ports"
)

// Options configures the terminal panel.
type Options struct {
	Orchestrator *panel.Orchestrator
	Watcher      ports.SettingsWatcher
	Logger       ports.Logger

	// Viewport is the browser viewport size in CSS pixels.
	ViewportWidth  int
	ViewportHeight int
}

type (
	settingsMsg struct{ view domain.SettingsView }
	watchErrMsg struct{ err error }
	selectedMsg struct{}
	analyzedMsg struct{}
	optionsMsg  struct{ err error }
	copyTickMsg struct{}
)

type model struct {
	ctx    context.Context
	orch   *panel.Orchestrator
	logger ports.Logger

	view    panel.View
	spinner spinner.Model
	prompt  textarea.Model
	editing bool
	status  string

	viewportW float64
	viewportH float64
	width     int
	height    int
	ready     bool
}

func newModel(ctx context.Context, opts Options) *model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = titleStyle

	ta := textarea.New()
	ta.Placeholder = "Additional instructions (optional)"
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.CharLimit = 2000

	vw, vh := opts.ViewportWidth, opts.ViewportHeight
	if vw <= 0 {
		vw = domain.DefaultViewportWidth
	}
	if vh <= 0 {
		vh = domain.DefaultViewportHeight
	}

	return &model{
		ctx:       ctx,
		orch:      opts.Orchestrator,
		logger:    opts.Logger,
		view:      opts.Orchestrator.View(),
		spinner:   sp,
		prompt:    ta,
		viewportW: float64(vw),
		viewportH: float64(vh),
	}
}

// Init starts the spinner.
func (m *model) Init() tea.Cmd {
	return m.spinner.Tick
}

// cellToPoint maps a terminal cell onto viewport CSS pixels. The whole
// terminal area represents the viewport.
func (m *model) cellToPoint(x, y int) domain.Point {
	if m.width <= 0 || m.height <= 0 {
		return domain.Point{X: float64(x), Y: float64(y)}
	}
	return domain.Point{
		X: float64(x) * m.viewportW / float64(m.width),
		Y: float64(y) * m.viewportH / float64(m.height),
	}
}

// regionToCells is the inverse of cellToPoint for drawing the selection.
func (m *model) regionToCells(r domain.Region) (x0, y0, x1, y1 int) {
	if m.width <= 0 || m.height <= 0 {
		return 0, 0, 0, 0
	}
	sx := float64(m.width) / m.viewportW
	sy := float64(m.height) / m.viewportH
	return int(r.X * sx), int(r.Y * sy), int((r.X + r.Width) * sx), int((r.Y + r.Height) * sy)
}

func (m *model) selectCmd(region domain.Region) tea.Cmd {
	return func() tea.Msg {
		m.orch.Select(m.ctx, region)
		return selectedMsg{}
	}
}

func (m *model) analyzeCmd() tea.Cmd {
	return func() tea.Msg {
		m.orch.Analyze(m.ctx)
		return analyzedMsg{}
	}
}

func (m *model) optionsCmd() tea.Cmd {
	return func() tea.Msg {
		return optionsMsg{err: m.orch.OpenOptions(m.ctx)}
	}
}

func copyTick() tea.Cmd {
	return tea.Tick(domain.CopiedAckDuration, func(time.Time) tea.Msg {
		return copyTickMsg{}
	})
}

func (m *model) logError(msg string, err error) {
	if m.logger != nil {
		m.logger.Error(msg, err, map[string]interface{}{"phase": m.view.Phase.String()})
	}
}

func formatUsage(u *domain.TokenUsage) string {
	if u == nil {
		return ""
	}
	return fmt.Sprintf("Tokens: %d prompt · %d completion · %d total", u.PromptTokens, u.CompletionTokens, u.TotalTokens)
}
