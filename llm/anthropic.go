package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

const (
	anthropicURL     = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"

	// The messages API requires max_tokens; applied when the request
	// leaves it unset.
	anthropicDefaultMaxTokens = 800
)

// Anthropic calls the messages API.
type Anthropic struct {
	APIKey   string
	Endpoint string
	Client   *http.Client
}

func NewAnthropic(apiKey string) *Anthropic {
	return &Anthropic{APIKey: apiKey, Endpoint: anthropicURL, Client: &http.Client{}}
}

func (p *Anthropic) Name() string { return "Anthropic" }

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *Anthropic) Complete(ctx context.Context, req Request) (Result, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}
	payload := anthropicRequest{
		Model:       req.Model,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		Messages:    []anthropicMessage{{Role: "user", Content: req.Prompt}},
	}

	body, status, err := postJSON(ctx, p.Client, p.Endpoint, payload, map[string]string{
		"x-api-key":         p.APIKey,
		"anthropic-version": anthropicVersion,
	})
	if err != nil {
		return Result{}, err
	}
	if status != http.StatusOK {
		return Result{}, classifyStatus(p.Name(), status, string(body))
	}

	var resp anthropicResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Result{}, &Error{Kind: KindProvider, Provider: p.Name(), Message: "malformed response", Cause: err}
	}
	if resp.Error != nil {
		return Result{}, &Error{Kind: KindProvider, Provider: p.Name(), Message: resp.Error.Message}
	}

	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return Result{}, &Error{Kind: KindProvider, Provider: p.Name(), Message: "no text blocks in response"}
	}

	return Result{Answer: strings.TrimSpace(strings.Join(parts, "\n"))}, nil
}
