// Package ocr adapts the Tesseract engine behind a single recognize
// contract. An engine failure is terminal for the run; an empty
// recognition result is not an error.
package ocr

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/Marianoooo45/ocr-qcm-ctk/screenshot"
)

// EngineModeDefault is Tesseract's OEM_DEFAULT. Tesseract fixes the
// engine mode when a client initializes and the binding has no
// init-time hook for it, so this is the only mode the engine can
// actually honor.
const EngineModeDefault = 3

// Options selects the Tesseract language, engine mode (OEM) and page
// segmentation mode (PSM). Values are validated before the engine is
// invoked.
type Options struct {
	Language         string
	EngineMode       int
	SegmentationMode int
}

func (o Options) Validate() error {
	if strings.TrimSpace(o.Language) == "" {
		return &Error{Reason: "language must not be empty"}
	}
	if o.EngineMode != EngineModeDefault {
		return &Error{Reason: fmt.Sprintf("engine mode %d cannot be applied, only default mode %d is supported", o.EngineMode, EngineModeDefault)}
	}
	if o.SegmentationMode < 0 || o.SegmentationMode > 13 {
		return &Error{Reason: fmt.Sprintf("segmentation mode %d out of range 0-13", o.SegmentationMode)}
	}
	return nil
}

// Error reports an unavailable engine or rejected options. It is
// distinct from an empty Result, which is a valid recognition of an
// image with no text.
type Error struct {
	Reason string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("ocr: %s: %v", e.Reason, e.Cause)
	}
	return "ocr: " + e.Reason
}

func (e *Error) Unwrap() error { return e.Cause }

// Result carries the recognized text and the frame it came from.
// Text may be empty.
type Result struct {
	Text  string
	Frame *screenshot.Frame
}

// Engine is the Tesseract-backed OCR engine.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// CheckAvailable verifies the engine is usable and that language is
// installed. Called once at startup so runs fail fast on a broken
// installation.
func (e *Engine) CheckAvailable(language string) error {
	langs, err := gosseract.GetAvailableLanguages()
	if err != nil {
		return &Error{Reason: "tesseract not available", Cause: err}
	}
	for _, want := range strings.Split(language, "+") {
		found := false
		for _, l := range langs {
			if l == want {
				found = true
				break
			}
		}
		if !found {
			return &Error{Reason: fmt.Sprintf("language %q not installed (available: %s)", want, strings.Join(langs, ", "))}
		}
	}
	return nil
}

// Recognize runs OCR over the frame with the given options. Options are
// validated before the engine is touched.
func (e *Engine) Recognize(frame *screenshot.Frame, opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	if frame == nil || len(frame.PNG) == 0 {
		return Result{}, &Error{Reason: "no frame to recognize"}
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(strings.Split(opts.Language, "+")...); err != nil {
		return Result{}, &Error{Reason: "engine rejected language", Cause: err}
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(opts.SegmentationMode)); err != nil {
		return Result{}, &Error{Reason: "engine rejected segmentation mode", Cause: err}
	}
	if err := client.SetImageFromBytes(frame.PNG); err != nil {
		return Result{}, &Error{Reason: "engine rejected image", Cause: err}
	}

	text, err := client.Text()
	if err != nil {
		return Result{}, &Error{Reason: "recognition failed", Cause: err}
	}

	return Result{Text: strings.TrimRight(text, "\n"), Frame: frame}, nil
}
