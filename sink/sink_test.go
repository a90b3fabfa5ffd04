package sink

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type fakeSink struct {
	name       string
	configured bool
	err        error
	panics     bool
	calls      int
}

func (f *fakeSink) Name() string     { return f.name }
func (f *fakeSink) Configured() bool { return f.configured }
func (f *fakeSink) Deliver(ctx context.Context, p Payload) error {
	f.calls++
	if f.panics {
		panic("sink blew up")
	}
	return f.err
}

func TestDispatchIsolation(t *testing.T) {
	first := &fakeSink{name: "first", configured: true}
	second := &fakeSink{name: "second", configured: true, err: errors.New("boom")}
	third := &fakeSink{name: "third", configured: true}

	d := NewDispatcher(first, second, third)
	outcomes := d.Dispatch(context.Background(), Payload{Answer: "B"})

	if len(outcomes) != 3 {
		t.Fatalf("outcomes length = %d, want 3", len(outcomes))
	}
	if !outcomes[0].Success || !outcomes[2].Success {
		t.Error("sinks 1 and 3 should both succeed")
	}
	if outcomes[1].Success {
		t.Error("sink 2 should report failure")
	}
	if third.calls != 1 {
		t.Error("dispatch to sink 3 must not be skipped after sink 2 fails")
	}
}

func TestDispatchOrderMatchesConfiguration(t *testing.T) {
	d := NewDispatcher(
		&fakeSink{name: "a", configured: true},
		&fakeSink{name: "b", configured: true},
		&fakeSink{name: "c", configured: true},
	)
	outcomes := d.Dispatch(context.Background(), Payload{})
	for i, want := range []string{"a", "b", "c"} {
		if outcomes[i].Sink != want {
			t.Errorf("outcomes[%d].Sink = %q, want %q", i, outcomes[i].Sink, want)
		}
	}
}

func TestDispatchUnconfiguredSinkSkipped(t *testing.T) {
	s := &fakeSink{name: "webhook", configured: false}
	d := NewDispatcher(s)

	outcomes := d.Dispatch(context.Background(), Payload{})
	if s.calls != 0 {
		t.Error("unconfigured sink must not be attempted")
	}
	if outcomes[0].Success || outcomes[0].Detail != "not configured" {
		t.Errorf("outcome = %+v, want success=false detail=%q", outcomes[0], "not configured")
	}
}

func TestDispatchPanicIsolated(t *testing.T) {
	bad := &fakeSink{name: "bad", configured: true, panics: true}
	after := &fakeSink{name: "after", configured: true}

	d := NewDispatcher(bad, after)
	outcomes := d.Dispatch(context.Background(), Payload{})

	if outcomes[0].Success {
		t.Error("panicking sink should report failure")
	}
	if after.calls != 1 {
		t.Error("sink after a panicking sibling must still be attempted")
	}
}

func TestAnswerFileDeliver(t *testing.T) {
	dir := t.TempDir()
	f := NewAnswerFile(dir)

	ts := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	p := Payload{
		Question:  "What is 2+2? A)3 B)4 C)5",
		Answer:    "B",
		Provider:  "OpenAI",
		Model:     "gpt-4o-mini",
		Template:  "Default (General Reasoning)",
		Timestamp: ts,
	}
	if err := f.Deliver(context.Background(), p); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "result_20260314_150926.txt"))
	if err != nil {
		t.Fatalf("answer file not written: %v", err)
	}
	content := string(data)
	for _, want := range []string{"What is 2+2?", "B", "OpenAI", "gpt-4o-mini"} {
		if !strings.Contains(content, want) {
			t.Errorf("answer file missing %q:\n%s", want, content)
		}
	}
}

func TestAnswerFileUnconfigured(t *testing.T) {
	if NewAnswerFile("").Configured() {
		t.Error("empty dir should report unconfigured")
	}
}

func TestDiscordDeliver(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewDiscord(srv.URL)
	err := d.Deliver(context.Background(), Payload{Answer: "B", Provider: "OpenAI", Model: "gpt-4o-mini", Template: "tpl"})
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if !strings.Contains(gotBody, "AI Answer (OpenAI / gpt-4o-mini / tpl)") {
		t.Errorf("webhook body = %q", gotBody)
	}
}

func TestDiscordDeliverHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	d := NewDiscord(srv.URL)
	if err := d.Deliver(context.Background(), Payload{Answer: "B"}); err == nil {
		t.Error("expected error on non-2xx webhook response")
	}
}

func TestDiscordUnconfigured(t *testing.T) {
	if NewDiscord("").Configured() {
		t.Error("empty webhook URL should report unconfigured")
	}
}

func TestTelegramDeliver(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := NewTelegram("123:abc", "977")
	tg.APIBase = srv.URL

	if err := tg.Deliver(context.Background(), Payload{Answer: "B", Provider: "Gemini", Model: "gemini-1.5-flash"}); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if gotPath != "/bot123:abc/sendMessage" {
		t.Errorf("path = %q", gotPath)
	}
	if !strings.Contains(gotBody, `"chat_id":"977"`) {
		t.Errorf("body = %q", gotBody)
	}
}

func TestTelegramUnconfigured(t *testing.T) {
	if NewTelegram("", "977").Configured() || NewTelegram("123:abc", "").Configured() {
		t.Error("telegram requires both token and chat id")
	}
}
