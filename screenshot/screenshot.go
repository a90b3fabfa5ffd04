package screenshot

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"time"

	kbinani "github.com/kbinani/screenshot"
)

// Region is a screen rectangle in virtual-screen pixel coordinates.
type Region struct {
	Left   int
	Top    int
	Width  int
	Height int
}

func (r Region) Bounds() image.Rectangle {
	return image.Rect(r.Left, r.Top, r.Left+r.Width, r.Top+r.Height)
}

func (r Region) String() string {
	return fmt.Sprintf("L=%d T=%d W=%d H=%d", r.Left, r.Top, r.Width, r.Height)
}

// Frame is one captured region, PNG-encoded. A frame belongs to the run
// that captured it and is discarded once OCR has consumed it.
type Frame struct {
	PNG        []byte
	Region     Region
	CapturedAt time.Time
}

// CaptureError reports a region that could not be captured, either
// because it falls outside the virtual screen or because the OS-level
// capture call failed.
type CaptureError struct {
	Region Region
	Cause  error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture failed for region %s: %v", e.Region, e.Cause)
}

func (e *CaptureError) Unwrap() error { return e.Cause }

// VirtualBounds returns the union of all active display bounds.
func VirtualBounds() (image.Rectangle, error) {
	n := kbinani.NumActiveDisplays()
	if n == 0 {
		return image.Rectangle{}, fmt.Errorf("no active displays found")
	}
	union := kbinani.GetDisplayBounds(0)
	for i := 1; i < n; i++ {
		union = union.Union(kbinani.GetDisplayBounds(i))
	}
	return union, nil
}

// ValidateRegion checks that region has positive dimensions and lies
// entirely inside bounds.
func ValidateRegion(region Region, bounds image.Rectangle) error {
	if region.Width <= 0 || region.Height <= 0 {
		return fmt.Errorf("invalid region dimensions: width=%d, height=%d", region.Width, region.Height)
	}
	if !region.Bounds().In(bounds) {
		return fmt.Errorf("region %s exceeds virtual screen %v", region, bounds)
	}
	return nil
}

// Grab captures region and returns the PNG-encoded frame. The region is
// validated against the virtual screen at capture time; no retry is
// attempted on failure.
func Grab(region Region) (*Frame, error) {
	bounds, err := VirtualBounds()
	if err != nil {
		return nil, &CaptureError{Region: region, Cause: err}
	}
	if err := ValidateRegion(region, bounds); err != nil {
		return nil, &CaptureError{Region: region, Cause: err}
	}

	img, err := kbinani.CaptureRect(region.Bounds())
	if err != nil {
		return nil, &CaptureError{Region: region, Cause: err}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, &CaptureError{Region: region, Cause: err}
	}

	return &Frame{PNG: buf.Bytes(), Region: region, CapturedAt: time.Now()}, nil
}
