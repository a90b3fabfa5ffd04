package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// Gemini calls the generateContent API. The API key travels as a query
// parameter, per the API's convention.
type Gemini struct {
	APIKey   string
	Endpoint string
	Client   *http.Client
}

func NewGemini(apiKey string) *Gemini {
	return &Gemini{APIKey: apiKey, Endpoint: geminiBaseURL, Client: &http.Client{}}
}

func (p *Gemini) Name() string { return "Gemini" }

type geminiRequest struct {
	Contents []struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

func (p *Gemini) Complete(ctx context.Context, req Request) (Result, error) {
	var payload geminiRequest
	payload.Contents = make([]struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	}, 1)
	payload.Contents[0].Parts = []struct {
		Text string `json:"text"`
	}{{Text: req.Prompt}}
	payload.GenerationConfig.Temperature = req.Temperature
	payload.GenerationConfig.MaxOutputTokens = req.MaxTokens

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", p.Endpoint, req.Model, p.APIKey)
	body, status, err := postJSON(ctx, p.Client, url, payload, nil)
	if err != nil {
		return Result{}, err
	}
	if status != http.StatusOK {
		return Result{}, classifyStatus(p.Name(), status, string(body))
	}

	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Result{}, &Error{Kind: KindProvider, Provider: p.Name(), Message: "malformed response", Cause: err}
	}
	if resp.Error != nil {
		return Result{}, &Error{Kind: KindProvider, Provider: p.Name(), Message: resp.Error.Message}
	}
	if len(resp.Candidates) == 0 {
		return Result{}, &Error{Kind: KindProvider, Provider: p.Name(), Message: "no candidates in response"}
	}

	var parts []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			parts = append(parts, part.Text)
		}
	}
	return Result{Answer: strings.TrimSpace(strings.Join(parts, ""))}, nil
}
