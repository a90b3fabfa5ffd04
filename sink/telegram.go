package sink

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const telegramAPIBase = "https://api.telegram.org"

// Telegram sends the answer via a bot's sendMessage call.
type Telegram struct {
	BotToken string
	ChatID   string
	APIBase  string
	Client   *http.Client
}

func NewTelegram(botToken, chatID string) *Telegram {
	return &Telegram{
		BotToken: botToken,
		ChatID:   chatID,
		APIBase:  telegramAPIBase,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Configured() bool { return t.BotToken != "" && t.ChatID != "" }

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

func (t *Telegram) Deliver(ctx context.Context, p Payload) error {
	msg := telegramMessage{
		ChatID:    t.ChatID,
		Text:      fmt.Sprintf("AI Answer (%s / %s)\n%s", p.Provider, p.Model, p.Answer),
		ParseMode: "Markdown",
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.APIBase, t.BotToken)
	return postWebhook(ctx, t.Client, url, msg, "telegram")
}
