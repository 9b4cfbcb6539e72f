package panel

import "github.com/doeshing/snapask/internal/domain"

// SelectionState is the drag gesture state.
type SelectionState int

const (
	SelectionIdle SelectionState = iota
	SelectionDragging
)

// Selection tracks one drag-to-select gesture over the viewport. It holds no
// state beyond the current gesture; completion and cancellation both reset it.
type Selection struct {
	state SelectionState
	start domain.Point
	end   domain.Point
}

// State returns the current gesture state.
func (s *Selection) State() SelectionState {
	return s.state
}

// PointerDown starts a new gesture at p, discarding any previous one.
func (s *Selection) PointerDown(p domain.Point) {
	s.state = SelectionDragging
	s.start = p
	s.end = p
}

// PointerMove updates the end point while dragging. The start point is fixed.
func (s *Selection) PointerMove(p domain.Point) {
	if s.state != SelectionDragging {
		return
	}
	s.end = p
}

// PointerUp finishes the gesture. It reports the rectangle only when both
// sides exceed domain.MinRegionSize; smaller drags are dropped silently.
func (s *Selection) PointerUp() (domain.Region, bool) {
	if s.state != SelectionDragging {
		return domain.Region{}, false
	}
	region := domain.RegionFromPoints(s.start, s.end)
	s.reset()
	if !region.Valid() {
		return domain.Region{}, false
	}
	return region, true
}

// Cancel aborts the gesture from any state. It always reports a
// cancellation.
func (s *Selection) Cancel() bool {
	s.reset()
	return true
}

// Preview returns the rectangle being dragged, if any.
func (s *Selection) Preview() (domain.Region, bool) {
	if s.state != SelectionDragging {
		return domain.Region{}, false
	}
	return domain.RegionFromPoints(s.start, s.end), true
}

func (s *Selection) reset() {
	*s = Selection{}
}
