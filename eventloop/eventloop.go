package eventloop

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/Marianoooo45/ocr-qcm-ctk/hotkey"
	"github.com/Marianoooo45/ocr-qcm-ctk/pipeline"
	"github.com/Marianoooo45/ocr-qcm-ctk/session"
	"github.com/Marianoooo45/ocr-qcm-ctk/sink"
	"github.com/Marianoooo45/ocr-qcm-ctk/worker"
)

// Display is the visual surface the loop drives. Implementations live
// outside this package; a no-op display is fine for headless runs.
type Display interface {
	ShowAnswer(p sink.Payload)
	ShowStatus(msg string)
	Clear()
	SetVisible(visible bool)
}

// NopDisplay satisfies Display and does nothing.
type NopDisplay struct{}

func (NopDisplay) ShowAnswer(sink.Payload) {}
func (NopDisplay) ShowStatus(string)       {}
func (NopDisplay) Clear()                  {}
func (NopDisplay) SetVisible(bool)         {}

// Runner is the capture pipeline the loop drives on worker goroutines.
type Runner interface {
	Run(ctx context.Context) pipeline.RunResult
}

// Loop is the single-threaded coordinator. Hotkey actions and finished
// pipeline runs are posted as channel messages; all display and state
// transitions happen on the loop goroutine.
type Loop struct {
	orch     Runner
	machine  *session.Machine
	display  Display
	pool     *worker.Pool
	actions  chan hotkey.Action
	results  chan pipeline.RunResult
	deadline time.Duration

	// busy is owned by the loop goroutine: set when a capture is
	// submitted, cleared when its result comes back. Checked at event
	// time so a second capture is rejected, never queued behind the
	// first.
	busy bool
}

// New creates a loop. A zero deadline defaults to 60s per run, display
// nil defaults to NopDisplay.
func New(orch Runner, machine *session.Machine, display Display, deadline time.Duration) *Loop {
	if display == nil {
		display = NopDisplay{}
	}
	if deadline <= 0 {
		deadline = 60 * time.Second
	}
	return &Loop{
		orch:     orch,
		machine:  machine,
		display:  display,
		pool:     worker.New(1),
		actions:  make(chan hotkey.Action, 8),
		results:  make(chan pipeline.RunResult, 1),
		deadline: deadline,
	}
}

// Post queues an action for the loop. Safe from any goroutine; drops
// the action when the queue is full.
func (l *Loop) Post(action hotkey.Action) {
	select {
	case l.actions <- action:
	default:
		log.Printf("Eventloop: action queue full, dropping %s", action)
	}
}

// Run processes actions and results until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer l.pool.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case action := <-l.actions:
			l.handleAction(ctx, action)
		case res := <-l.results:
			l.handleResult(res)
		}
	}
}

func (l *Loop) handleAction(ctx context.Context, action hotkey.Action) {
	log.Printf("Eventloop: action %s", action)
	switch action {
	case hotkey.ActionCapture:
		l.startCapture(ctx)
	case hotkey.ActionHide:
		l.machine.Hide()
		l.display.SetVisible(false)
	case hotkey.ActionShow:
		l.machine.Show()
		l.display.SetVisible(true)
	case hotkey.ActionPanic:
		// Immediate: hide, wipe, and mark any in-flight run for discard.
		l.machine.Panic()
		l.display.Clear()
		l.display.SetVisible(false)
	}
}

func (l *Loop) startCapture(ctx context.Context) {
	if l.busy || l.machine.State().CaptureInFlight {
		log.Printf("Eventloop: capture rejected, run in flight")
		l.display.ShowStatus("Busy, please retry")
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, l.deadline)
	submitted := l.pool.Submit(runCtx, func(jobCtx context.Context) {
		defer cancel()
		res := l.orch.Run(jobCtx)
		l.results <- res
	})
	if !submitted {
		cancel()
		log.Printf("Eventloop: capture dropped, worker busy")
		l.display.ShowStatus("Busy, please retry")
		return
	}
	l.busy = true
}

func (l *Loop) handleResult(res pipeline.RunResult) {
	l.busy = false
	switch {
	case errors.Is(res.Err, pipeline.ErrBusy):
		l.display.ShowStatus("Busy, please retry")
	case res.Cancelled:
		log.Printf("Eventloop: run %d cancelled by user", res.Gen)
	case res.Err != nil:
		log.Printf("Eventloop: run %d failed: %v", res.Gen, res.Err)
		l.display.ShowStatus("Error: " + res.Record.ErrorKind)
	case res.Discarded || l.machine.Discarded(res.Gen):
		// Panic fired while this run was in flight. The result is
		// already logged; it must never reach the display.
		log.Printf("Eventloop: run %d discarded", res.Gen)
	default:
		l.display.ShowAnswer(res.Payload)
	}
}
