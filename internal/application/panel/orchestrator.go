// Package panel holds the page-side state machines: the drag selection and
// the capture-and-analyze cycle. It never sees the API key; it only talks to
// the privileged process through a ports.Messenger.
package panel

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/doeshing/snapask/internal/domain"
	"github.com/doeshing/snapask/internal/ports"
)

// Phase is the top-level panel state. Exactly one phase is active at a time.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSelecting
	PhaseCapturing
	PhasePreviewing
	PhaseAnalyzing
	PhaseResult
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSelecting:
		return "selecting"
	case PhaseCapturing:
		return "capturing"
	case PhasePreviewing:
		return "previewing"
	case PhaseAnalyzing:
		return "analyzing"
	case PhaseResult:
		return "result"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// NoticeMissingKey is shown when a capture is requested without a key.
const NoticeMissingKey = "API Key Missing"

// View is an immutable snapshot of the panel for rendering.
type View struct {
	Phase     Phase
	Minimized bool

	// Gate inputs. The panel renders nothing unless Visible.
	Enabled     bool
	Whitelisted bool
	HasKey      bool
	Hostname    string

	Notice string

	// Dragging is set while a selection gesture is in progress.
	Dragging  bool
	DragRect  domain.Region
	ImageData string

	QuestionType     domain.QuestionType
	AdditionalPrompt string

	Result string
	Usage  *domain.TokenUsage
	Error  string
	Copied bool
}

// Visible reports whether the panel may render at all.
func (v View) Visible() bool {
	return v.Enabled && v.Whitelisted
}

// Busy reports whether a request to the privileged process is in flight.
func (v View) Busy() bool {
	return v.Phase == PhaseCapturing || v.Phase == PhaseAnalyzing
}

// CanAnalyze reports whether Analyze would send a request.
func (v View) CanAnalyze() bool {
	return (v.Phase == PhasePreviewing || v.Phase == PhaseError) && v.ImageData != ""
}

// Config wires an Orchestrator.
type Config struct {
	Messenger ports.Messenger
	Cropper   ports.ImageCropper
	Clipboard ports.Clipboard
	Logger    ports.Logger

	// WindowID is the capture handle of the page this panel is attached to.
	WindowID string
	// Hostname is matched against the whitelist.
	Hostname string
	// PixelRatio converts CSS pixels to device pixels of the capture.
	PixelRatio float64

	// Now is swappable in tests.
	Now func() time.Time
}

// Orchestrator runs the capture-to-result cycle. All methods are safe for
// concurrent use; the blocking ones (Select, Analyze) release the lock while
// waiting for the privileged process.
type Orchestrator struct {
	cfg Config

	mu          sync.Mutex
	phase       Phase
	minimized   bool
	settings    domain.SettingsView
	notice      string
	selection   Selection
	imageData   string
	question    domain.QuestionType
	prompt      string
	result      string
	usage       *domain.TokenUsage
	errMsg      string
	copiedUntil time.Time

	// generation invalidates replies of superseded requests.
	generation uint64
	cancel     context.CancelFunc
}

// NewOrchestrator builds an idle orchestrator. Until ApplySettings is called
// the panel is hidden.
func NewOrchestrator(cfg Config) *Orchestrator {
	if cfg.PixelRatio <= 0 {
		cfg.PixelRatio = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Orchestrator{
		cfg:      cfg,
		question: domain.DefaultQuestionType,
	}
}

// View returns the current snapshot.
func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.viewLocked()
}

// ApplySettings recomputes the gate from a settings snapshot. Becoming hidden
// abandons any in-flight request.
func (o *Orchestrator) ApplySettings(view domain.SettingsView) View {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.settings = view
	if view.HasKey && o.notice == NoticeMissingKey {
		o.notice = ""
	}
	if !o.visibleLocked() && o.isBusyLocked() {
		o.abandonLocked()
		o.resetLocked()
		o.phase = PhaseIdle
		o.logDebug("panel hidden, in-flight request abandoned", nil)
	}
	return o.viewLocked()
}

// Start enters Selecting. Without a configured key it stays Idle and sets a
// notice instead.
func (o *Orchestrator) Start() View {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.visibleLocked() {
		return o.viewLocked()
	}
	if !o.settings.HasKey {
		o.notice = NoticeMissingKey
		return o.viewLocked()
	}
	o.abandonLocked()
	o.resetLocked()
	o.phase = PhaseSelecting
	return o.viewLocked()
}

// PointerDown forwards a pointer press to the selection gesture.
func (o *Orchestrator) PointerDown(p domain.Point) View {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase == PhaseSelecting {
		o.selection.PointerDown(p)
	}
	return o.viewLocked()
}

// PointerMove forwards pointer motion to the selection gesture.
func (o *Orchestrator) PointerMove(p domain.Point) View {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase == PhaseSelecting {
		o.selection.PointerMove(p)
	}
	return o.viewLocked()
}

// PointerUp finishes the gesture and returns the selected region when it is
// large enough to capture. The caller passes it to Select.
func (o *Orchestrator) PointerUp() (domain.Region, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase != PhaseSelecting {
		return domain.Region{}, false
	}
	return o.selection.PointerUp()
}

// CancelSelection returns from Selecting to Idle without touching anything
// else.
func (o *Orchestrator) CancelSelection() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase != PhaseSelecting {
		return o.viewLocked()
	}
	o.selection.Cancel()
	o.phase = PhaseIdle
	return o.viewLocked()
}

// Select captures the tab, crops it to region and enters Previewing.
func (o *Orchestrator) Select(ctx context.Context, region domain.Region) View {
	o.mu.Lock()
	if o.phase != PhaseSelecting {
		defer o.mu.Unlock()
		return o.viewLocked()
	}
	o.selection.Cancel()
	o.phase = PhaseCapturing
	ctx, gen := o.beginLocked(ctx)
	windowID := o.cfg.WindowID
	o.mu.Unlock()

	dataURI, err := o.capture(ctx, windowID)
	if err == nil {
		dataURI, err = o.cfg.Cropper.Crop(dataURI, region, o.cfg.PixelRatio)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.finishLocked(gen) {
		return o.viewLocked()
	}
	if err != nil {
		o.logError("capture failed", err, map[string]interface{}{"window": windowID})
		o.phase = PhaseError
		o.errMsg = err.Error()
		return o.viewLocked()
	}
	o.phase = PhasePreviewing
	o.imageData = dataURI
	o.question = domain.DefaultQuestionType
	o.prompt = ""
	return o.viewLocked()
}

// Retake drops the captured image and re-enters Selecting.
func (o *Orchestrator) Retake() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch o.phase {
	case PhasePreviewing, PhaseAnalyzing, PhaseError:
	default:
		return o.viewLocked()
	}
	o.abandonLocked()
	o.resetLocked()
	o.phase = PhaseSelecting
	return o.viewLocked()
}

// SetQuestionType changes the analysis mode of the preview.
func (o *Orchestrator) SetQuestionType(q domain.QuestionType) View {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.editableLocked() {
		o.question = q
	}
	return o.viewLocked()
}

// SetAdditionalPrompt changes the free-text instruction of the preview.
func (o *Orchestrator) SetAdditionalPrompt(s string) View {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.editableLocked() {
		o.prompt = s
	}
	return o.viewLocked()
}

// Analyze sends the preview to the privileged process and waits for the
// answer. On failure the image and options stay so Analyze can be retried.
func (o *Orchestrator) Analyze(ctx context.Context) View {
	o.mu.Lock()
	if !o.editableLocked() {
		defer o.mu.Unlock()
		return o.viewLocked()
	}
	payload := domain.AnalyzePayload{
		ImageData:        o.imageData,
		QuestionType:     o.question,
		AdditionalPrompt: strings.TrimSpace(o.prompt),
	}
	o.phase = PhaseAnalyzing
	o.errMsg = ""
	ctx, gen := o.beginLocked(ctx)
	o.mu.Unlock()

	result, err := o.analyze(ctx, payload)

	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.finishLocked(gen) {
		return o.viewLocked()
	}
	if err != nil {
		o.logError("analysis failed", err, map[string]interface{}{"question_type": payload.QuestionType})
		o.phase = PhaseError
		o.errMsg = err.Error()
		return o.viewLocked()
	}
	o.phase = PhaseResult
	o.result = result.Result
	o.usage = result.Usage
	return o.viewLocked()
}

// Copy writes the result text to the clipboard and shows a short
// acknowledgement.
func (o *Orchestrator) Copy() (View, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase != PhaseResult {
		return o.viewLocked(), nil
	}
	if o.cfg.Clipboard == nil || !o.cfg.Clipboard.Enabled() {
		return o.viewLocked(), errors.New("clipboard unavailable")
	}
	if err := o.cfg.Clipboard.Copy(o.result); err != nil {
		return o.viewLocked(), err
	}
	o.copiedUntil = o.cfg.Now().Add(domain.CopiedAckDuration)
	return o.viewLocked(), nil
}

// NewAnalysis clears result, error and capture and re-enters Selecting.
func (o *Orchestrator) NewAnalysis() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.abandonLocked()
	o.resetLocked()
	o.phase = PhaseSelecting
	return o.viewLocked()
}

// Minimize collapses the panel without changing its phase.
func (o *Orchestrator) Minimize() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.minimized = true
	return o.viewLocked()
}

// Expand restores a minimized panel.
func (o *Orchestrator) Expand() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.minimized = false
	return o.viewLocked()
}

// OpenOptions asks the privileged process to show the settings surface.
func (o *Orchestrator) OpenOptions(ctx context.Context) error {
	req, err := domain.NewRequest(domain.ActionOpenOptions, "", nil)
	if err != nil {
		return err
	}
	resp, err := o.cfg.Messenger.Send(ctx, req)
	if err != nil {
		return err
	}
	return resp.Err()
}

func (o *Orchestrator) capture(ctx context.Context, windowID string) (string, error) {
	req, err := domain.NewRequest(domain.ActionCaptureVisibleTab, windowID, nil)
	if err != nil {
		return "", err
	}
	resp, err := o.cfg.Messenger.Send(ctx, req)
	if err != nil {
		return "", domain.CaptureError(err)
	}
	if err := resp.Err(); err != nil {
		return "", domain.CaptureError(err)
	}
	var dataURI string
	if err := resp.Decode(&dataURI); err != nil || dataURI == "" {
		return "", domain.CaptureError(nil)
	}
	return dataURI, nil
}

func (o *Orchestrator) analyze(ctx context.Context, payload domain.AnalyzePayload) (domain.AnalyzeResult, error) {
	req, err := domain.NewRequest(domain.ActionAnalyzeImage, o.cfg.WindowID, payload)
	if err != nil {
		return domain.AnalyzeResult{}, err
	}
	resp, err := o.cfg.Messenger.Send(ctx, req)
	if err != nil {
		return domain.AnalyzeResult{}, err
	}
	var result domain.AnalyzeResult
	if err := resp.Decode(&result); err != nil {
		return domain.AnalyzeResult{}, err
	}
	return result, nil
}

// beginLocked starts a new request generation with its own cancellable
// context.
func (o *Orchestrator) beginLocked(parent context.Context) (context.Context, uint64) {
	o.abandonLocked()
	ctx, cancel := context.WithCancel(parent)
	o.cancel = cancel
	return ctx, o.generation
}

// finishLocked reports whether gen is still the current request.
func (o *Orchestrator) finishLocked(gen uint64) bool {
	if gen != o.generation {
		o.logDebug("stale reply discarded", map[string]interface{}{"generation": gen})
		return false
	}
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	return true
}

// abandonLocked cancels the in-flight request, if any, and makes its reply
// stale.
func (o *Orchestrator) abandonLocked() {
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.generation++
}

func (o *Orchestrator) resetLocked() {
	o.selection.Cancel()
	o.notice = ""
	o.imageData = ""
	o.question = domain.DefaultQuestionType
	o.prompt = ""
	o.result = ""
	o.usage = nil
	o.errMsg = ""
	o.copiedUntil = time.Time{}
}

func (o *Orchestrator) editableLocked() bool {
	return (o.phase == PhasePreviewing || o.phase == PhaseError) && o.imageData != ""
}

func (o *Orchestrator) isBusyLocked() bool {
	return o.phase == PhaseCapturing || o.phase == PhaseAnalyzing
}

func (o *Orchestrator) visibleLocked() bool {
	return o.settings.IsEnabled && domain.IsWhitelisted(o.cfg.Hostname, o.settings.WhitelistedDomains)
}

func (o *Orchestrator) viewLocked() View {
	v := View{
		Phase:            o.phase,
		Minimized:        o.minimized,
		Enabled:          o.settings.IsEnabled,
		Whitelisted:      domain.IsWhitelisted(o.cfg.Hostname, o.settings.WhitelistedDomains),
		HasKey:           o.settings.HasKey,
		Hostname:         o.cfg.Hostname,
		Notice:           o.notice,
		ImageData:        o.imageData,
		QuestionType:     o.question,
		AdditionalPrompt: o.prompt,
		Result:           o.result,
		Error:            o.errMsg,
		Copied:           !o.copiedUntil.IsZero() && o.cfg.Now().Before(o.copiedUntil),
	}
	if o.usage != nil {
		usage := *o.usage
		v.Usage = &usage
	}
	if rect, ok := o.selection.Preview(); ok {
		v.Dragging = true
		v.DragRect = rect
	}
	return v
}

func (o *Orchestrator) logDebug(msg string, fields map[string]interface{}) {
	if o.cfg.Logger != nil {
		o.cfg.Logger.Debug(msg, fields)
	}
}

func (o *Orchestrator) logError(msg string, err error, fields map[string]interface{}) {
	if o.cfg.Logger != nil {
		o.cfg.Logger.Error(msg, err, fields)
	}
}
