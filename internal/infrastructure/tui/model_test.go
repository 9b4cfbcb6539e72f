package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/snapask/internal/application/panel"
	"github.com/doeshing/snapask/internal/domain"
)

var testSettings = domain.SettingsView{
	HasKey:             true,
	Model:              domain.DefaultModel,
	IsEnabled:          true,
	WhitelistedDomains: []string{"example.com"},
}

func newTestModel(t *testing.T, m *scriptedMessenger) *model {
	t.Helper()
	orch := panel.NewOrchestrator(panel.Config{
		Messenger:  m,
		Cropper:    passthroughCropper{backend: m},
		WindowID:   "w1",
		Hostname:   "example.com",
		PixelRatio: 1,
	})
	mdl := newModel(context.Background(), Options{Orchestrator: orch, ViewportWidth: 1280, ViewportHeight: 800})
	mdl.Update(tea.WindowSizeMsg{Width: 128, Height: 40})
	mdl.Update(settingsMsg{view: testSettings})
	return mdl
}

// run executes cmd and feeds the resulting messages back into the model.
func run(mdl *model, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			run(mdl, c)
		}
	case selectedMsg, analyzedMsg, optionsMsg:
		mdl.Update(msg)
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestCellToPointScalesToViewport(t *testing.T) {
	mdl := newTestModel(t, &scriptedMessenger{})
	assert.Equal(t, domain.Point{X: 100, Y: 100}, mdl.cellToPoint(10, 5))

	x0, y0, x1, y1 := mdl.regionToCells(domain.Region{X: 100, Y: 100, Width: 300, Height: 200})
	assert.Equal(t, []int{10, 5, 40, 15}, []int{x0, y0, x1, y1})
}

func TestMouseDragCapturesAndAnalyzes(t *testing.T) {
	m := &scriptedMessenger{capture: "data:image/jpeg;base64,QUJD", result: domain.AnalyzeResult{
		Result: "B. Paris",
		Usage:  &domain.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}}
	mdl := newTestModel(t, m)

	mdl.Update(key("c"))
	require.Equal(t, panel.PhaseSelecting, mdl.view.Phase)

	mdl.Update(tea.MouseMsg{X: 10, Y: 5, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	mdl.Update(tea.MouseMsg{X: 40, Y: 20, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	assert.True(t, mdl.view.Dragging)
	assert.Contains(t, mdl.View(), "┌")

	_, cmd := mdl.Update(tea.MouseMsg{X: 40, Y: 20, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	run(mdl, cmd)
	require.Equal(t, panel.PhasePreviewing, mdl.view.Phase, mdl.view.Error)
	assert.Equal(t, domain.Region{X: 100, Y: 100, Width: 300, Height: 300}, m.region)

	mdl.Update(key("tab"))
	assert.Equal(t, domain.QuestionEssay, mdl.view.QuestionType)

	_, cmd = mdl.Update(key("enter"))
	run(mdl, cmd)
	require.Equal(t, panel.PhaseResult, mdl.view.Phase)

	out := mdl.View()
	assert.Contains(t, out, "B. Paris")
	assert.Contains(t, out, "15 total")
}

func TestCaptureWithoutKeyShowsNotice(t *testing.T) {
	m := &scriptedMessenger{}
	mdl := newTestModel(t, m)
	view := testSettings
	view.HasKey = false
	mdl.Update(settingsMsg{view: view})

	mdl.Update(key("c"))
	assert.Equal(t, panel.PhaseIdle, mdl.view.Phase)
	assert.Contains(t, mdl.View(), panel.NoticeMissingKey)
	assert.Zero(t, m.calls)
}

func TestEscCancelsSelection(t *testing.T) {
	mdl := newTestModel(t, &scriptedMessenger{})
	mdl.Update(key("c"))
	mdl.Update(key("esc"))
	assert.Equal(t, panel.PhaseIdle, mdl.view.Phase)
}

func TestEditingPromptUpdatesOrchestrator(t *testing.T) {
	m := &scriptedMessenger{capture: "data:image/jpeg;base64,QUJD"}
	mdl := newTestModel(t, m)
	mdl.Update(key("c"))
	mdl.Update(tea.MouseMsg{X: 0, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	_, cmd := mdl.Update(tea.MouseMsg{X: 20, Y: 20, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	run(mdl, cmd)
	require.Equal(t, panel.PhasePreviewing, mdl.view.Phase)

	mdl.Update(key("e"))
	require.True(t, mdl.editing)
	mdl.Update(key("hi"))
	mdl.Update(key("esc"))

	assert.False(t, mdl.editing)
	assert.Equal(t, "hi", mdl.view.AdditionalPrompt)
}

func TestHiddenPanelExplainsWhy(t *testing.T) {
	mdl := newTestModel(t, &scriptedMessenger{})

	view := testSettings
	view.WhitelistedDomains = nil
	mdl.Update(settingsMsg{view: view})
	assert.Contains(t, mdl.View(), "not whitelisted")

	view.IsEnabled = false
	mdl.Update(settingsMsg{view: view})
	assert.Contains(t, mdl.View(), "disabled")
}

func TestMinimizeToggle(t *testing.T) {
	mdl := newTestModel(t, &scriptedMessenger{})
	mdl.Update(key("m"))
	assert.True(t, mdl.view.Minimized)
	assert.True(t, strings.Contains(mdl.View(), "expand"))
	mdl.Update(key("m"))
	assert.False(t, mdl.view.Minimized)
}

func TestQuit(t *testing.T) {
	mdl := newTestModel(t, &scriptedMessenger{})
	_, cmd := mdl.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

type scriptedMessenger struct {
	capture string
	result  domain.AnalyzeResult
	calls   int
	region  domain.Region
}

func (s *scriptedMessenger) Send(_ context.Context, req domain.Request) (domain.Response, error) {
	s.calls++
	switch req.Action {
	case domain.ActionCaptureVisibleTab:
		return domain.OK(s.capture), nil
	case domain.ActionAnalyzeImage:
		return domain.OK(s.result), nil
	}
	return domain.OK(nil), nil
}

// passthroughCropper records the region and returns the capture unchanged.
type passthroughCropper struct {
	backend *scriptedMessenger
}

func (c passthroughCropper) Crop(dataURI string, region domain.Region, _ float64) (string, error) {
	c.backend.region = region
	return dataURI, nil
}
