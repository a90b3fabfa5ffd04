// Package pipeline sequences one capture run: region → frame → OCR →
// prompt → AI → sinks, under the session machine's admission control.
// Any stage failure short-circuits the remaining stages; the run record
// is written and the machine returns to idle in every outcome.
package pipeline

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Marianoooo45/ocr-qcm-ctk/llm"
	"github.com/Marianoooo45/ocr-qcm-ctk/ocr"
	"github.com/Marianoooo45/ocr-qcm-ctk/prompt"
	"github.com/Marianoooo45/ocr-qcm-ctk/region"
	"github.com/Marianoooo45/ocr-qcm-ctk/runlog"
	"github.com/Marianoooo45/ocr-qcm-ctk/screenshot"
	"github.com/Marianoooo45/ocr-qcm-ctk/session"
	"github.com/Marianoooo45/ocr-qcm-ctk/sink"
)

// ErrBusy signals a CaptureRequested that arrived while a run was in
// flight. The request is dropped, never queued; this error is the
// observable rejection.
var ErrBusy = errors.New("capture already in flight")

// Error kinds recorded for non-provider stage failures. Provider
// failures carry their own llm.ErrorKind.
const (
	kindCapture  = "CAPTURE_ERROR"
	kindOCR      = "OCR_ERROR"
	kindTemplate = "TEMPLATE_ERROR"
	kindSelect   = "SELECTION_ERROR"
)

// Grabber captures a region; the default is screenshot.Grab.
type Grabber func(region screenshot.Region) (*screenshot.Frame, error)

// Recognizer is the OCR stage contract.
type Recognizer interface {
	Recognize(frame *screenshot.Frame, opts ocr.Options) (ocr.Result, error)
}

// Completer is the AI stage contract.
type Completer interface {
	Complete(ctx context.Context, provider string, req llm.Request) (llm.Result, error)
}

// Config wires one orchestrator. All collaborators are constructed at
// startup and passed in explicitly.
type Config struct {
	Selector     *region.Selector
	Grab         Grabber
	Engine       Recognizer
	OCROptions   ocr.Options
	Templates    *prompt.Store
	TemplateName string
	Router       Completer
	Provider     string
	Model        string
	Temperature  float64
	MaxTokens    int
	Dispatcher   *sink.Dispatcher
	Log          *runlog.Log
	Machine      *session.Machine
}

// RunResult is handed back to the coordinating loop for display.
type RunResult struct {
	Gen       uint64
	Record    runlog.Record
	Payload   sink.Payload
	Outcomes  []sink.Outcome
	Err       error
	Cancelled bool
	Discarded bool
}

type Orchestrator struct {
	cfg Config
}

func New(cfg Config) *Orchestrator {
	if cfg.Grab == nil {
		cfg.Grab = screenshot.Grab
	}
	return &Orchestrator{cfg: cfg}
}

// Run executes one pipeline run. Admission happens first: a rejected
// request returns ErrBusy without touching any stage. An admitted run
// always completes the state machine, success or failure.
func (o *Orchestrator) Run(ctx context.Context) RunResult {
	gen, ok := o.cfg.Machine.Admit()
	if !ok {
		return RunResult{Err: ErrBusy}
	}
	defer o.cfg.Machine.Complete(gen)

	rec := runlog.Record{
		ID:         uuid.NewString(),
		Generation: gen,
		Timestamp:  time.Now().UTC(),
		Provider:   o.cfg.Provider,
		Model:      o.cfg.Model,
		Template:   o.cfg.TemplateName,
	}
	res := RunResult{Gen: gen}

	// Stage 1: region. Cancel aborts before any irreversible external
	// call and is not a failure.
	reg, err := o.cfg.Selector.Resolve(ctx)
	if err != nil {
		if errors.Is(err, region.ErrCancelled) {
			rec.Cancelled = true
			o.append(rec)
			res.Record = rec
			res.Cancelled = true
			return res
		}
		return o.fail(rec, res, kindSelect, err)
	}
	rec.Region = reg

	// Stage 2: frame.
	frame, err := o.cfg.Grab(reg)
	if err != nil {
		return o.fail(rec, res, kindCapture, err)
	}

	// Stage 3: OCR. Empty text is a valid result and flows on.
	ocrRes, err := o.cfg.Engine.Recognize(frame, o.cfg.OCROptions)
	if err != nil {
		return o.fail(rec, res, kindOCR, err)
	}
	rec.OCRText = ocrRes.Text

	// Stage 4: prompt.
	tpl, err := o.cfg.Templates.Lookup(o.cfg.TemplateName)
	if err != nil {
		return o.fail(rec, res, kindTemplate, err)
	}
	composed := prompt.Compose(tpl, ocrRes.Text)

	// Stage 5: AI.
	aiRes, err := o.cfg.Router.Complete(ctx, o.cfg.Provider, llm.Request{
		Model:       o.cfg.Model,
		Prompt:      composed,
		Temperature: o.cfg.Temperature,
		MaxTokens:   o.cfg.MaxTokens,
	})
	if err != nil {
		return o.fail(rec, res, aiErrorKind(err), err)
	}
	rec.Answer = aiRes.Answer

	res.Payload = sink.Payload{
		Question:  ocrRes.Text,
		Answer:    aiRes.Answer,
		Provider:  o.cfg.Provider,
		Model:     o.cfg.Model,
		Template:  o.cfg.TemplateName,
		Timestamp: rec.Timestamp,
	}

	// A panic that fired while this run was in flight suppresses the
	// staged result: no dispatch, no display, but the record is still
	// written so the audit trail stays complete.
	if o.cfg.Machine.Discarded(gen) {
		rec.Discarded = true
		o.append(rec)
		res.Record = rec
		res.Discarded = true
		return res
	}

	// Stage 6: sinks. Delivery outcomes never fail the run.
	res.Outcomes = o.cfg.Dispatcher.Dispatch(ctx, res.Payload)
	rec.Sinks = res.Outcomes

	o.append(rec)
	res.Record = rec
	return res
}

func (o *Orchestrator) fail(rec runlog.Record, res RunResult, kind string, err error) RunResult {
	rec.ErrorKind = kind
	rec.Error = err.Error()
	o.append(rec)
	res.Record = rec
	res.Err = err
	return res
}

func (o *Orchestrator) append(rec runlog.Record) {
	if o.cfg.Log == nil {
		return
	}
	if err := o.cfg.Log.Append(rec); err != nil {
		log.Printf("pipeline: failed to append run record %s: %v", rec.ID, err)
	}
}

// aiErrorKind extracts the normalized provider kind for the record.
func aiErrorKind(err error) string {
	var lerr *llm.Error
	if errors.As(err, &lerr) {
		return string(lerr.Kind)
	}
	return string(llm.KindProvider)
}
