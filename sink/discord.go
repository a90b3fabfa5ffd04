package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Discord posts the answer to a Discord webhook. Delivery is a single
// fire-and-report POST.
type Discord struct {
	WebhookURL string
	Client     *http.Client
}

func NewDiscord(webhookURL string) *Discord {
	return &Discord{WebhookURL: webhookURL, Client: &http.Client{Timeout: 10 * time.Second}}
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Configured() bool { return d.WebhookURL != "" }

type discordMessage struct {
	Content string `json:"content"`
}

func (d *Discord) Deliver(ctx context.Context, p Payload) error {
	msg := discordMessage{
		Content: fmt.Sprintf("**AI Answer (%s / %s / %s)**\n>>> %s", p.Provider, p.Model, p.Template, p.Answer),
	}
	return postWebhook(ctx, d.Client, d.WebhookURL, msg, "discord")
}

func postWebhook(ctx context.Context, client *http.Client, url string, payload interface{}, name string) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("%s HTTP %d: %s", name, resp.StatusCode, body)
	}
	return nil
}
