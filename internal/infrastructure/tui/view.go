package tui

import (
	"fmt"
	"strings"

	"github.com/doeshing/snapask/internal/application/panel"
	"github.com/doeshing/snapask/internal/domain"
	"github.com/doeshing/snapask/internal/infrastructure/imaging"
)

// View renders the panel for the current snapshot.
func (m *model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	v := m.view
	if !v.Visible() {
		return hintStyle.Render(m.hiddenReason(v))
	}
	if v.Minimized {
		return titleStyle.Render("▣ snapask") + hintStyle.Render("  m expand · q quit")
	}
	if v.Phase == panel.PhaseSelecting {
		return m.renderSelecting(v)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("snapask") + hintStyle.Render("  "+v.Hostname) + "\n\n")
	b.WriteString(m.renderBody(v))
	if m.status != "" {
		b.WriteString("\n" + errorStyle.Render(m.status))
	}
	b.WriteString("\n\n" + hintStyle.Render(helpFor(v)))

	width := m.width - 2
	if width < 20 {
		width = 20
	}
	return panelStyle.Width(width).Render(b.String())
}

func (m *model) hiddenReason(v panel.View) string {
	if !v.Enabled {
		return "snapask is disabled · snapask config set is_enabled true · q quit"
	}
	return fmt.Sprintf("%s is not whitelisted · snapask whitelist add %s · q quit", v.Hostname, v.Hostname)
}

func (m *model) renderBody(v panel.View) string {
	switch v.Phase {
	case panel.PhaseIdle:
		body := resultStyle.Render("Press c to select a region of the page.")
		if v.Notice != "" {
			body = noticeStyle.Render(v.Notice) + "\n" + body
		}
		return body

	case panel.PhaseCapturing:
		return m.spinner.View() + " Capturing..."

	case panel.PhasePreviewing:
		return m.renderPreview(v)

	case panel.PhaseAnalyzing:
		return m.spinner.View() + " Analyzing..."

	case panel.PhaseResult:
		out := resultStyle.Width(max(m.width-6, 20)).Render(v.Result)
		if usage := formatUsage(v.Usage); usage != "" {
			out += "\n\n" + hintStyle.Render(usage)
		}
		if v.Copied {
			out += "\n" + copiedStyle.Render("Copied!")
		}
		return out

	case panel.PhaseError:
		out := errorStyle.Width(max(m.width-6, 20)).Render(v.Error)
		if v.CanAnalyze() {
			out += "\n\n" + m.renderPreview(v)
		}
		return out
	}
	return ""
}

func (m *model) renderPreview(v panel.View) string {
	var b strings.Builder
	b.WriteString(resultStyle.Render("Captured " + describeImage(v.ImageData)))
	b.WriteString("\n\n")

	tabs := make([]string, 0, len(domain.QuestionTypes))
	for _, q := range domain.QuestionTypes {
		if q == v.QuestionType {
			tabs = append(tabs, activeTabStyle.Render(q.Label()))
		} else {
			tabs = append(tabs, tabStyle.Render(q.Label()))
		}
	}
	b.WriteString(strings.Join(tabs, "  "))
	b.WriteString("\n\n")

	if m.editing {
		b.WriteString(m.prompt.View())
	} else if v.AdditionalPrompt != "" {
		b.WriteString(resultStyle.Render("Prompt: " + v.AdditionalPrompt))
	} else {
		b.WriteString(hintStyle.Render("No additional prompt"))
	}
	return b.String()
}

// renderSelecting draws the live selection rectangle over the whole
// terminal.
func (m *model) renderSelecting(v panel.View) string {
	rows := make([][]rune, m.height)
	for y := range rows {
		rows[y] = []rune(strings.Repeat(" ", m.width))
	}
	put := func(x, y int, r rune) {
		if y >= 0 && y < m.height && x >= 0 && x < m.width {
			rows[y][x] = r
		}
	}

	if v.Dragging {
		x0, y0, x1, y1 := m.regionToCells(v.DragRect)
		for x := x0; x <= x1; x++ {
			put(x, y0, '─')
			put(x, y1, '─')
		}
		for y := y0; y <= y1; y++ {
			put(x0, y, '│')
			put(x1, y, '│')
		}
		put(x0, y0, '┌')
		put(x1, y0, '┐')
		put(x0, y1, '└')
		put(x1, y1, '┘')
	}

	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = string(row)
	}
	if len(lines) > 0 {
		lines[0] = hintStyle.Render("Drag to select a region · esc cancel")
	}
	return selectionStyle.Render(strings.Join(lines, "\n"))
}

func helpFor(v panel.View) string {
	switch v.Phase {
	case panel.PhaseIdle:
		return "c capture · s settings · m minimize · q quit"
	case panel.PhasePreviewing:
		return "enter analyze · tab type · e prompt · r retake · q quit"
	case panel.PhaseResult:
		return "y copy · n new analysis · m minimize · q quit"
	case panel.PhaseError:
		if v.CanAnalyze() {
			return "enter retry · r retake · n new analysis · q quit"
		}
		return "c capture · n new analysis · q quit"
	default:
		return "q quit"
	}
}

func describeImage(dataURI string) string {
	raw, err := imaging.DecodeDataURI(dataURI)
	if err != nil {
		return "image"
	}
	return fmt.Sprintf("image (%.1f KB)", float64(len(raw))/1024)
}
