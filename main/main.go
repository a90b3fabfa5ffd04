package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Marianoooo45/ocr-qcm-ctk/clipboard"
	"github.com/Marianoooo45/ocr-qcm-ctk/config"
	"github.com/Marianoooo45/ocr-qcm-ctk/eventloop"
	"github.com/Marianoooo45/ocr-qcm-ctk/hotkey"
	"github.com/Marianoooo45/ocr-qcm-ctk/llm"
	"github.com/Marianoooo45/ocr-qcm-ctk/logutil"
	"github.com/Marianoooo45/ocr-qcm-ctk/ocr"
	"github.com/Marianoooo45/ocr-qcm-ctk/pipeline"
	"github.com/Marianoooo45/ocr-qcm-ctk/prompt"
	"github.com/Marianoooo45/ocr-qcm-ctk/region"
	"github.com/Marianoooo45/ocr-qcm-ctk/runlog"
	"github.com/Marianoooo45/ocr-qcm-ctk/session"
	"github.com/Marianoooo45/ocr-qcm-ctk/sink"
)

// newSelector builds the region selector for the configured mode. The
// interactive overlay is an external surface; without one wired,
// interactive mode falls back to the fixed region and the returned
// warning tells the user so.
func newSelector(cfg *config.Config) (*region.Selector, string) {
	sel := region.NewSelector(region.ModeFixed, cfg.Capture, nil)
	if cfg.SelectionMode == config.SelectionInteractive {
		return sel, "SELECTION_MODE=interactive has no drag overlay in this build, using fixed region " + cfg.Capture.String()
	}
	return sel, ""
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logutil.Setup(cfg.LogDir, cfg.EnableFileLogging)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	log.Printf("Provider: %s, model: %s, key: %s",
		cfg.Provider, cfg.Model, logutil.RedactKey(cfg.APIKeyFor(cfg.Provider)))

	engine := ocr.NewEngine()
	if err := engine.CheckAvailable(cfg.OCRLanguage); err != nil {
		log.Fatalf("OCR unavailable: %v", err)
	}
	ocrOpts := ocr.Options{
		Language:         cfg.OCRLanguage,
		EngineMode:       cfg.OCREngine,
		SegmentationMode: cfg.OCRPageSeg,
	}
	if err := ocrOpts.Validate(); err != nil {
		log.Fatalf("Invalid OCR options: %v", err)
	}
	if err := clipboard.Init(); err != nil {
		log.Fatalf("Failed to initialize clipboard: %v", err)
	}

	selector, warning := newSelector(cfg)
	if warning != "" {
		log.Print(warning)
		fmt.Fprintln(os.Stderr, warning)
	}

	router := llm.NewRouter(time.Duration(cfg.AITimeoutSec)*time.Second,
		llm.NewOpenAI(cfg.OpenAIAPIKey),
		llm.NewAnthropic(cfg.AnthropicAPIKey),
		llm.NewGemini(cfg.GeminiAPIKey),
	)

	var sinks []sink.Sink
	if cfg.OutputClipboard {
		sinks = append(sinks, sink.NewClipboard())
	}
	if cfg.OutputAnswerFile {
		sinks = append(sinks, sink.NewAnswerFile(cfg.LogDir))
	}
	sinks = append(sinks,
		sink.NewDiscord(cfg.DiscordWebhook),
		sink.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID),
	)

	runLog, err := runlog.New(cfg.LogDir)
	if err != nil {
		log.Fatalf("Failed to open run log: %v", err)
	}

	machine := session.NewMachine()
	orch := pipeline.New(pipeline.Config{
		Selector:     selector,
		Engine:       engine,
		OCROptions:   ocrOpts,
		Templates:    prompt.NewStore(cfg.PromptsFile),
		TemplateName: cfg.PromptName,
		Router:       router,
		Provider:     cfg.Provider,
		Model:        cfg.Model,
		Temperature:  cfg.Temperature,
		MaxTokens:    cfg.MaxTokens,
		Dispatcher:   sink.NewDispatcher(sinks...),
		Log:          runLog,
		Machine:      machine,
	})

	deadline := time.Duration(cfg.AITimeoutSec+30) * time.Second
	loop := eventloop.New(orch, machine, nil, deadline)

	hotkey.Listen([]hotkey.Binding{
		{Combo: cfg.CaptureHotkey, Action: hotkey.ActionCapture},
		{Combo: cfg.HideHotkey, Action: hotkey.ActionHide},
		{Combo: cfg.ShowHotkey, Action: hotkey.ActionShow},
		{Combo: cfg.PanicHotkey, Action: hotkey.ActionPanic},
	}, loop.Post)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	log.Printf("Ready. Capture: %s, hide: %s, show: %s, panic: %s",
		cfg.CaptureHotkey, cfg.HideHotkey, cfg.ShowHotkey, cfg.PanicHotkey)

	if err := loop.Run(ctx); err != nil && err != context.Canceled {
		log.Printf("event loop stopped: %v", err)
	}
}
