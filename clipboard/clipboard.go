// Package clipboard wraps the system clipboard.
package clipboard

import (
	"golang.design/x/clipboard"
)

// Init must be called once before Write; it fails when no clipboard
// device is available (e.g. headless session).
func Init() error {
	return clipboard.Init()
}

// Write replaces the clipboard contents with text.
func Write(text string) error {
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
