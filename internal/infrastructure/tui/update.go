package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/doeshing/snapask/internal/application/panel"
)

// Update handles terminal events and replies from the orchestrator.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.prompt.SetWidth(max(msg.Width-6, 10))
		m.ready = true

	case settingsMsg:
		m.orch.ApplySettings(msg.view)

	case watchErrMsg:
		m.logError("settings watch failed", msg.err)
		m.status = "Settings unavailable: " + msg.err.Error()

	case selectedMsg, analyzedMsg:
		// The orchestrator already holds the outcome.

	case optionsMsg:
		if msg.err != nil {
			m.logError("open options failed", msg.err)
			m.status = "Could not open settings: " + msg.err.Error()
		}

	case copyTickMsg:

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tea.MouseMsg:
		cmds = append(cmds, m.handleMouse(msg))

	case tea.KeyMsg:
		if m.editing {
			cmds = append(cmds, m.handleEditingKey(msg))
		} else {
			cmd, quit := m.handleKey(msg)
			if quit {
				return m, tea.Quit
			}
			cmds = append(cmds, cmd)
		}
	}

	m.view = m.orch.View()
	return m, tea.Batch(cmds...)
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	v := m.orch.View()
	m.status = ""

	switch msg.String() {
	case "q", "ctrl+c":
		return nil, true

	case "c":
		if v.Phase == panel.PhaseIdle || v.Phase == panel.PhaseResult || v.Phase == panel.PhaseError {
			m.orch.Start()
		}

	case "esc":
		m.orch.CancelSelection()

	case "tab":
		m.orch.SetQuestionType(v.QuestionType.Next())

	case "e":
		if v.CanAnalyze() {
			m.editing = true
			m.prompt.SetValue(v.AdditionalPrompt)
			return m.prompt.Focus(), false
		}

	case "enter":
		if v.CanAnalyze() {
			return m.analyzeCmd(), false
		}

	case "r":
		m.orch.Retake()

	case "y":
		if _, err := m.orch.Copy(); err != nil {
			m.logError("copy failed", err)
			m.status = "Copy failed: " + err.Error()
			return nil, false
		}
		if m.orch.View().Copied {
			return copyTick(), false
		}

	case "n":
		if v.Phase == panel.PhaseResult || v.Phase == panel.PhaseError || v.Phase == panel.PhasePreviewing {
			m.orch.NewAnalysis()
		}

	case "m":
		if v.Minimized {
			m.orch.Expand()
		} else {
			m.orch.Minimize()
		}

	case "s":
		return m.optionsCmd(), false
	}
	return nil, false
}

func (m *model) handleEditingKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "ctrl+s":
		m.editing = false
		m.prompt.Blur()
		m.orch.SetAdditionalPrompt(m.prompt.Value())
		return nil
	case "ctrl+c":
		return tea.Quit
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	m.orch.SetAdditionalPrompt(m.prompt.Value())
	return cmd
}

func (m *model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.orch.View().Phase != panel.PhaseSelecting {
		return nil
	}
	p := m.cellToPoint(msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft {
			m.orch.PointerDown(p)
		}
	case tea.MouseActionMotion:
		m.orch.PointerMove(p)
	case tea.MouseActionRelease:
		m.orch.PointerMove(p)
		if region, ok := m.orch.PointerUp(); ok {
			return m.selectCmd(region)
		}
	}
	return nil
}
