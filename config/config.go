package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Marianoooo45/ocr-qcm-ctk/screenshot"
)

// Provider names accepted by PROVIDER.
const (
	ProviderOpenAI    = "OpenAI"
	ProviderAnthropic = "Anthropic"
	ProviderGemini    = "Gemini"
)

// Selection modes accepted by SELECTION_MODE.
const (
	SelectionFixed       = "fixed"
	SelectionInteractive = "interactive"
)

type Config struct {
	// Capture region, used directly in fixed mode and as the initial
	// value in interactive mode.
	Capture       screenshot.Region
	SelectionMode string

	// OCR
	OCRLanguage string
	OCREngine   int
	OCRPageSeg  int

	// AI
	Provider        string
	Model           string
	PromptName      string
	Temperature     float64
	MaxTokens       int
	AITimeoutSec    int
	OpenAIAPIKey    string
	AnthropicAPIKey string
	GeminiAPIKey    string

	// Sinks
	OutputClipboard  bool
	OutputAnswerFile bool
	DiscordWebhook   string
	TelegramBotToken string
	TelegramChatID   string

	// Hotkeys
	CaptureHotkey string
	HideHotkey    string
	ShowHotkey    string
	PanicHotkey   string

	// Paths and logging
	LogDir            string
	PromptsFile       string
	EnableFileLogging bool
}

// Load reads .env from the working directory when present, then builds
// the config from the environment with defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Capture: screenshot.Region{
			Left:   getEnvInt("CAP_LEFT", 40),
			Top:    getEnvInt("CAP_TOP", 40),
			Width:  getEnvInt("CAP_WIDTH", 1200),
			Height: getEnvInt("CAP_HEIGHT", 700),
		},
		SelectionMode: strings.ToLower(getEnvWithDefault("SELECTION_MODE", SelectionFixed)),

		OCRLanguage: getEnvWithDefault("OCR_LANG", "fra"),
		OCREngine:   getEnvInt("OCR_OEM", 3),
		OCRPageSeg:  getEnvInt("OCR_PSM", 6),

		Provider:        getEnvWithDefault("PROVIDER", ProviderOpenAI),
		Model:           getEnvWithDefault("MODEL", "gpt-4o-mini"),
		PromptName:      getEnvWithDefault("PROMPT", "Default (General Reasoning)"),
		Temperature:     getEnvFloat("LLM_TEMP", 0.0),
		MaxTokens:       getEnvInt("MAX_TOKENS", 0),
		AITimeoutSec:    getEnvInt("AI_TIMEOUT_SEC", 45),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),

		OutputClipboard:  getEnvBool("OUTPUT_CLIPBOARD", true),
		OutputAnswerFile: getEnvBool("OUTPUT_ANSWER_FILE", true),
		DiscordWebhook:   os.Getenv("DISCORD_WEBHOOK"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),

		CaptureHotkey: getEnvWithDefault("HOTKEY_CAPTURE", "f2"),
		HideHotkey:    getEnvWithDefault("HOTKEY_HIDE", "ctrl+shift+h"),
		ShowHotkey:    getEnvWithDefault("HOTKEY_SHOW", "ctrl+shift+s"),
		PanicHotkey:   getEnvWithDefault("HOTKEY_PANIC", "ctrl+shift+x"),

		LogDir:            getEnvWithDefault("LOG_DIR", "logs"),
		PromptsFile:       getEnvWithDefault("PROMPTS_FILE", "prompts.json"),
		EnableFileLogging: getEnvBool("ENABLE_FILE_LOGGING", true),
	}

	return cfg, nil
}

// APIKeyFor returns the key for a provider name, empty when unset.
func (c *Config) APIKeyFor(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	case ProviderGemini:
		return c.GeminiAPIKey
	default:
		return ""
	}
}

// Validate rejects configurations that cannot produce a working run.
func (c *Config) Validate() error {
	switch c.SelectionMode {
	case SelectionFixed, SelectionInteractive:
	default:
		return fmt.Errorf("invalid SELECTION_MODE %q", c.SelectionMode)
	}
	switch c.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
	default:
		return fmt.Errorf("invalid PROVIDER %q", c.Provider)
	}
	if c.APIKeyFor(c.Provider) == "" {
		return fmt.Errorf("no API key configured for provider %s", c.Provider)
	}
	if c.Capture.Width <= 0 || c.Capture.Height <= 0 {
		return fmt.Errorf("invalid capture region %s", c.Capture)
	}
	if c.AITimeoutSec <= 0 {
		return fmt.Errorf("AI_TIMEOUT_SEC must be positive, got %d", c.AITimeoutSec)
	}
	return nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}
