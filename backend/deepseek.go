package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

const DefaultDeepSeekURL = "https://api.deepseek.ai/v1/chat/completions"

// contentPath locates the generated text in a chat completion response.
const contentPath = "choices.0.message.content"

type DeepSeekConfig struct {
	APIKey  string
	URL     string
	Timeout time.Duration
}

type deepSeekBackend struct {
	apiKey     string
	url        string
	httpClient *http.Client
}

type deepSeekRequest struct {
	Inputs string `json:"inputs"`
}

func NewDeepSeek(cfg DeepSeekConfig) (*deepSeekBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("deepseek: API key not configured")
	}
	url := cfg.URL
	if url == "" {
		url = DefaultDeepSeekURL
	}
	return &deepSeekBackend{
		apiKey:     cfg.APIKey,
		url:        url,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (d *deepSeekBackend) Generate(ctx context.Context, prompt string) (string, error) {
	b, err := json.Marshal(deepSeekRequest{Inputs: prompt})
	if err != nil {
		return "", fmt.Errorf("deepseek: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("deepseek: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.apiKey)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("deepseek: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("deepseek: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("deepseek: %w", &APIError{StatusCode: resp.StatusCode, Body: string(body)})
	}
	return extractContent(body)
}

func extractContent(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("deepseek: %w: invalid JSON", ErrMalformedResponse)
	}
	content := gjson.GetBytes(body, contentPath)
	if !content.Exists() {
		return "", fmt.Errorf("deepseek: %w: missing %s", ErrMalformedResponse, contentPath)
	}
	return content.String(), nil
}
