package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const openAIURL = "https://api.openai.com/v1/chat/completions"

// OpenAI calls the chat completions API.
type OpenAI struct {
	APIKey   string
	Endpoint string // overridable for tests
	Client   *http.Client
}

func NewOpenAI(apiKey string) *OpenAI {
	return &OpenAI{APIKey: apiKey, Endpoint: openAIURL, Client: &http.Client{}}
}

func (p *OpenAI) Name() string { return "OpenAI" }

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (p *OpenAI) Complete(ctx context.Context, req Request) (Result, error) {
	payload := openAIRequest{
		Model:       req.Model,
		Messages:    []openAIMessage{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	body, status, err := postJSON(ctx, p.Client, p.Endpoint, payload, map[string]string{
		"Authorization": "Bearer " + p.APIKey,
	})
	if err != nil {
		return Result{}, err
	}
	if status != http.StatusOK {
		return Result{}, classifyStatus(p.Name(), status, string(body))
	}

	var resp openAIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Result{}, &Error{Kind: KindProvider, Provider: p.Name(), Message: "malformed response", Cause: err}
	}
	if resp.Error != nil {
		return Result{}, &Error{Kind: KindProvider, Provider: p.Name(), Message: resp.Error.Message}
	}
	if len(resp.Choices) == 0 {
		return Result{}, &Error{Kind: KindProvider, Provider: p.Name(), Message: "no choices in response"}
	}

	return Result{Answer: strings.TrimSpace(resp.Choices[0].Message.Content)}, nil
}

// postJSON performs one JSON POST and reads the full body. All provider
// clients route through it; transport failures come back raw for the
// router to normalize.
func postJSON(ctx context.Context, client *http.Client, url string, payload interface{}, headers map[string]string) ([]byte, int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, 0, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
