package sink

import (
	"context"

	"github.com/Marianoooo45/ocr-qcm-ctk/clipboard"
)

// Clipboard copies the answer to the system clipboard.
type Clipboard struct {
	// WriteFunc overrides the clipboard call; nil uses the real one.
	WriteFunc func(text string) error
}

func NewClipboard() *Clipboard { return &Clipboard{} }

func (c *Clipboard) Name() string { return "clipboard" }

func (c *Clipboard) Configured() bool { return true }

func (c *Clipboard) Deliver(ctx context.Context, p Payload) error {
	write := c.WriteFunc
	if write == nil {
		write = clipboard.Write
	}
	return write(p.Answer)
}
