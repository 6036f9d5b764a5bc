package display

import "zigpod/internal/hal"

// PanelWidth and PanelHeight are the QVGA panel's fixed pixel dimensions
// named in §1 ("320x240 RGB565 LCD").
const (
	PanelWidth  = 320
	PanelHeight = 240
)

// Screen tracks a single bounding dirty rectangle across the frame and
// flushes it to the LCD controller at most once per frame, so repeated
// small draws in one frame coalesce into one Update/UpdateRect call.
type Screen struct {
	lcd   hal.LCD
	dirty bool
	rect  hal.Rect
}

// NewScreen initializes the LCD and returns a Screen driving it.
func NewScreen(lcd hal.LCD) (*Screen, error) {
	if err := lcd.Init(); err != nil {
		return nil, err
	}
	return &Screen{lcd: lcd}, nil
}

// FillRect stages a fill into the controller's frame store and marks the
// region dirty for the next Flush.
func (s *Screen) FillRect(r hal.Rect, color uint16) error {
	if err := s.lcd.FillRect(r, color); err != nil {
		return err
	}
	s.markDirty(r)
	return nil
}

// WritePixel stages a single pixel write and marks it dirty.
func (s *Screen) WritePixel(x, y int, color uint16) error {
	if err := s.lcd.WritePixel(x, y, color); err != nil {
		return err
	}
	s.markDirty(hal.Rect{X: x, Y: y, Width: 1, Height: 1})
	return nil
}

func (s *Screen) markDirty(r hal.Rect) {
	if !s.dirty {
		s.dirty = true
		s.rect = r
		return
	}
	s.rect = unionRect(s.rect, r)
}

// unionRect returns the smallest rectangle covering both a and b.
func unionRect(a, b hal.Rect) hal.Rect {
	x0 := min(a.X, b.X)
	y0 := min(a.Y, b.Y)
	x1 := max(a.X+a.Width, b.X+b.Width)
	y1 := max(a.Y+a.Height, b.Y+b.Height)
	return hal.Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// NeedsRedraw reports whether any region has been drawn since the last
// Flush. The frame limiter does not read it; clock.FrameLimiter.EndFrame
// takes its active flag from the caller.
func (s *Screen) NeedsRedraw() bool { return s.dirty }

// Flush streams the accumulated dirty rectangle to the panel — the
// command-channel sequence (write address, stream pixels, trigger) lives
// in the LCD HAL backend; Screen only decides what region needs it and
// whether a full Update or a bounded UpdateRect suffices.
func (s *Screen) Flush() error {
	if !s.dirty {
		return nil
	}
	var err error
	if s.rect.Width >= PanelWidth && s.rect.Height >= PanelHeight {
		err = s.lcd.Update()
	} else {
		err = s.lcd.UpdateRect(s.rect)
	}
	s.dirty = false
	s.rect = hal.Rect{}
	return err
}
