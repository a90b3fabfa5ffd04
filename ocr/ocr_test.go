package ocr

import (
	"errors"
	"testing"
)

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"typical french", Options{Language: "fra", EngineMode: 3, SegmentationMode: 6}, false},
		{"multi language", Options{Language: "fra+eng", EngineMode: 3, SegmentationMode: 3}, false},
		{"psm bounds low", Options{Language: "eng", EngineMode: 3, SegmentationMode: 0}, false},
		{"psm bounds high", Options{Language: "eng", EngineMode: 3, SegmentationMode: 13}, false},
		{"empty language", Options{Language: "", EngineMode: 3, SegmentationMode: 6}, true},
		{"blank language", Options{Language: "   ", EngineMode: 3, SegmentationMode: 6}, true},
		{"oem legacy", Options{Language: "eng", EngineMode: 0, SegmentationMode: 6}, true},
		{"oem lstm only", Options{Language: "eng", EngineMode: 1, SegmentationMode: 6}, true},
		{"oem too high", Options{Language: "eng", EngineMode: 4, SegmentationMode: 6}, true},
		{"psm too high", Options{Language: "eng", EngineMode: 3, SegmentationMode: 14}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%+v) error = %v, wantErr %v", tt.opts, err, tt.wantErr)
			}
		})
	}
}

func TestRecognizeRejectsInvalidOptionsBeforeEngine(t *testing.T) {
	e := NewEngine()
	_, err := e.Recognize(nil, Options{Language: "", EngineMode: 3, SegmentationMode: 6})

	var ocrErr *Error
	if !errors.As(err, &ocrErr) {
		t.Fatalf("expected *Error for invalid options, got %v", err)
	}
}

func TestRecognizeNilFrame(t *testing.T) {
	e := NewEngine()
	_, err := e.Recognize(nil, Options{Language: "eng", EngineMode: 3, SegmentationMode: 6})

	var ocrErr *Error
	if !errors.As(err, &ocrErr) {
		t.Fatalf("expected *Error for nil frame, got %v", err)
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("tesseract exploded")
	err := &Error{Reason: "recognition failed", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("Error should unwrap to its cause")
	}
	if err.Error() == "" {
		t.Error("Error() should not be empty")
	}
}
