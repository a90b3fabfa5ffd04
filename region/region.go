// Package region resolves the screen rectangle a capture run operates
// on, either from fixed configuration or from an interactive drag.
package region

import (
	"context"
	"errors"
	"fmt"

	"github.com/Marianoooo45/ocr-qcm-ctk/screenshot"
)

// ErrCancelled reports a user-cancelled interactive selection. It is a
// normal termination, not a failure: the run aborts without error.
var ErrCancelled = errors.New("selection cancelled")

type Mode string

const (
	ModeFixed       Mode = "fixed"
	ModeInteractive Mode = "interactive"
)

// minDragSize rejects accidental click-drags; anything smaller counts
// as a cancel.
const minDragSize = 10

// DragFunc runs the interactive overlay and blocks until the pointer is
// released or the cancel key is pressed. It returns the raw drag
// endpoints; cancelled is true when the user backed out.
type DragFunc func(ctx context.Context) (startX, startY, endX, endY int, cancelled bool, err error)

// Selector resolves capture regions for pipeline runs.
type Selector struct {
	mode  Mode
	fixed screenshot.Region
	drag  DragFunc
}

func NewSelector(mode Mode, fixed screenshot.Region, drag DragFunc) *Selector {
	return &Selector{mode: mode, fixed: fixed, drag: drag}
}

func (s *Selector) Mode() Mode { return s.mode }

// Resolve returns the region for this run. Fixed mode returns the
// stored rectangle unchanged. Interactive mode runs the drag overlay
// and normalizes the result; ErrCancelled is returned on user cancel.
func (s *Selector) Resolve(ctx context.Context) (screenshot.Region, error) {
	switch s.mode {
	case ModeFixed:
		return s.fixed, nil
	case ModeInteractive:
		if s.drag == nil {
			return screenshot.Region{}, fmt.Errorf("interactive mode requires a drag selector")
		}
		x1, y1, x2, y2, cancelled, err := s.drag(ctx)
		if err != nil {
			return screenshot.Region{}, err
		}
		if cancelled {
			return screenshot.Region{}, ErrCancelled
		}
		r := Normalize(x1, y1, x2, y2)
		if r.Width < minDragSize || r.Height < minDragSize {
			return screenshot.Region{}, ErrCancelled
		}
		return r, nil
	default:
		return screenshot.Region{}, fmt.Errorf("unknown selection mode %q", s.mode)
	}
}

// Normalize converts two drag endpoints into a region, regardless of
// drag direction.
func Normalize(x1, y1, x2, y2 int) screenshot.Region {
	left, top := x1, y1
	if x2 < left {
		left = x2
	}
	if y2 < top {
		top = y2
	}
	width := x1 - x2
	if width < 0 {
		width = -width
	}
	height := y1 - y2
	if height < 0 {
		height = -height
	}
	return screenshot.Region{Left: left, Top: top, Width: width, Height: height}
}
