package eventloop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Marianoooo45/ocr-qcm-ctk/hotkey"
	"github.com/Marianoooo45/ocr-qcm-ctk/pipeline"
	"github.com/Marianoooo45/ocr-qcm-ctk/session"
	"github.com/Marianoooo45/ocr-qcm-ctk/sink"
)

type fakeDisplay struct {
	mu       sync.Mutex
	answers  []sink.Payload
	statuses []string
	cleared  int
	visible  []bool
}

func (d *fakeDisplay) ShowAnswer(p sink.Payload) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.answers = append(d.answers, p)
}

func (d *fakeDisplay) ShowStatus(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.statuses = append(d.statuses, msg)
}

func (d *fakeDisplay) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cleared++
}

func (d *fakeDisplay) SetVisible(v bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.visible = append(d.visible, v)
}

func (d *fakeDisplay) snapshot() (answers []sink.Payload, statuses []string, cleared int, visible []bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]sink.Payload(nil), d.answers...),
		append([]string(nil), d.statuses...),
		d.cleared,
		append([]bool(nil), d.visible...)
}

type fakeRunner struct {
	mu      sync.Mutex
	calls   int
	result  pipeline.RunResult
	started chan struct{} // signalled when Run begins, when set
	release chan struct{} // Run blocks until closed, when set
}

func (r *fakeRunner) Run(ctx context.Context) pipeline.RunResult {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.release != nil {
		<-r.release
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}

func (r *fakeRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func startLoop(t *testing.T, l *Loop) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("loop did not stop")
		}
	})
	return cancel
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("condition never met")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestCaptureShowsAnswer(t *testing.T) {
	machine := session.NewMachine()
	runner := &fakeRunner{result: pipeline.RunResult{Gen: 1, Payload: sink.Payload{Answer: "B"}}}
	display := &fakeDisplay{}
	l := New(runner, machine, display, time.Second)
	startLoop(t, l)

	l.Post(hotkey.ActionCapture)

	waitFor(t, func() bool {
		answers, _, _, _ := display.snapshot()
		return len(answers) == 1
	})
	answers, _, _, _ := display.snapshot()
	if answers[0].Answer != "B" {
		t.Errorf("displayed answer = %q, want B", answers[0].Answer)
	}
}

func TestConcurrentCaptureRejectedNotQueued(t *testing.T) {
	machine := session.NewMachine()
	runner := &fakeRunner{
		result:  pipeline.RunResult{Gen: 1, Payload: sink.Payload{Answer: "B"}},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	display := &fakeDisplay{}
	l := New(runner, machine, display, 10*time.Second)
	startLoop(t, l)

	l.Post(hotkey.ActionCapture)
	select {
	case <-runner.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first run never started")
	}

	// Second request while the first run is in flight: dropped with a
	// visible busy status, never queued behind the first.
	l.Post(hotkey.ActionCapture)
	waitFor(t, func() bool {
		_, statuses, _, _ := display.snapshot()
		return len(statuses) == 1
	})
	_, statuses, _, _ := display.snapshot()
	if statuses[0] != "Busy, please retry" {
		t.Errorf("status = %q, want busy rejection", statuses[0])
	}

	close(runner.release)
	waitFor(t, func() bool {
		answers, _, _, _ := display.snapshot()
		return len(answers) == 1
	})

	// A queued duplicate would execute now; give it time to surface.
	time.Sleep(20 * time.Millisecond)
	if got := runner.callCount(); got != 1 {
		t.Errorf("runner calls = %d, want 1 (rejected request must not run later)", got)
	}
	answers, _, _, _ := display.snapshot()
	if len(answers) != 1 {
		t.Errorf("answers displayed = %d, want 1", len(answers))
	}

	// The loop accepts captures again once the result is handled.
	l.Post(hotkey.ActionCapture)
	select {
	case <-runner.started:
	case <-time.After(2 * time.Second):
		t.Fatal("loop stuck busy after result handled")
	}
}

func TestHideShowDriveDisplay(t *testing.T) {
	machine := session.NewMachine()
	display := &fakeDisplay{}
	l := New(&fakeRunner{}, machine, display, time.Second)
	startLoop(t, l)

	l.Post(hotkey.ActionHide)
	waitFor(t, func() bool { return machine.State().Visibility == session.Hidden })
	l.Post(hotkey.ActionShow)
	waitFor(t, func() bool { return machine.State().Visibility == session.Visible })

	_, _, _, visible := display.snapshot()
	if len(visible) != 2 || visible[0] || !visible[1] {
		t.Errorf("visibility calls = %v, want [false true]", visible)
	}
}

func TestPanicClearsAndHides(t *testing.T) {
	machine := session.NewMachine()
	display := &fakeDisplay{}
	l := New(&fakeRunner{}, machine, display, time.Second)
	startLoop(t, l)

	l.Post(hotkey.ActionPanic)
	waitFor(t, func() bool { return machine.State().Visibility == session.Hidden })

	_, _, cleared, visible := display.snapshot()
	if cleared != 1 {
		t.Errorf("Clear calls = %d, want 1", cleared)
	}
	if len(visible) != 1 || visible[0] {
		t.Errorf("visibility calls = %v, want [false]", visible)
	}
}

func TestDiscardedResultNeverDisplayed(t *testing.T) {
	machine := session.NewMachine()
	display := &fakeDisplay{}
	l := New(&fakeRunner{}, machine, display, time.Second)
	startLoop(t, l)

	l.results <- pipeline.RunResult{Gen: 7, Discarded: true, Payload: sink.Payload{Answer: "secret"}}

	waitFor(t, func() bool { return len(l.results) == 0 })
	time.Sleep(10 * time.Millisecond)
	answers, _, _, _ := display.snapshot()
	if len(answers) != 0 {
		t.Error("discarded result must not be displayed")
	}
}

func TestBusyResultShowsStatus(t *testing.T) {
	machine := session.NewMachine()
	display := &fakeDisplay{}
	l := New(&fakeRunner{}, machine, display, time.Second)
	startLoop(t, l)

	l.results <- pipeline.RunResult{Err: pipeline.ErrBusy}

	waitFor(t, func() bool {
		_, statuses, _, _ := display.snapshot()
		return len(statuses) == 1
	})
	_, statuses, _, _ := display.snapshot()
	if statuses[0] != "Busy, please retry" {
		t.Errorf("status = %q", statuses[0])
	}
}

func TestFailedResultShowsErrorKind(t *testing.T) {
	machine := session.NewMachine()
	display := &fakeDisplay{}
	l := New(&fakeRunner{}, machine, display, time.Second)
	startLoop(t, l)

	res := pipeline.RunResult{Err: errors.New("boom")}
	res.Record.ErrorKind = "OCR_ERROR"
	l.results <- res

	waitFor(t, func() bool {
		_, statuses, _, _ := display.snapshot()
		return len(statuses) == 1
	})
	_, statuses, _, _ := display.snapshot()
	if statuses[0] != "Error: OCR_ERROR" {
		t.Errorf("status = %q", statuses[0])
	}
}
