package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"BeautyBot/internal/config"
	"BeautyBot/internal/domain"
	"BeautyBot/internal/ports"
)

// OpenAIClient implements ports.Copywriter backed by OpenAI-compatible
// chat-completion APIs.
type OpenAIClient struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	temperature  float64
	maxTokens    int
	httpClient   *http.Client
}

var _ ports.Copywriter = (*OpenAIClient)(nil)

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewOpenAIClient builds a copywriter from configuration.
func NewOpenAIClient(cfg config.OpenAIConfig) *OpenAIClient {
	return &OpenAIClient{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: cfg.SystemPrompt,
		temperature:  cfg.Temperature,
		maxTokens:    cfg.MaxTokens,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Compose asks the chat API for newsletter copy about one product and
// returns the first choice's content.
func (c *OpenAIClient) Compose(ctx context.Context, product domain.Product) (string, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("openai client misconfigured")
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: safePrompt(c.systemPrompt)},
			{Role: "user", Content: newsletterPrompt(product)},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call chat api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("chat api error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("chat response is empty")
	}
	return content, nil
}

func newsletterPrompt(p domain.Product) string {
	var b strings.Builder
	b.WriteString("Write a plain-text daily skincare newsletter issue.\n\n")
	b.WriteString("Format:\n")
	b.WriteString("- Warm opening greeting\n")
	fmt.Fprintf(&b, "- Introduce the product %q by %q\n", p.Title, brandOrDefault(p))
	fmt.Fprintf(&b, "- Mention which skin type it suits: %s\n", skinTypeOrDefault(p))
	b.WriteString("- Explain step by step how to use it (3-4 lines)\n")
	b.WriteString("- Give 3 useful tips, one emoji each\n")
	b.WriteString("- Point readers to the brand's official site, without the URL\n")
	b.WriteString("- Close with a confident sign-off from the newsletter team\n\n")
	if p.Description != "" {
		fmt.Fprintf(&b, "Product notes: %s\n", p.Description)
	}
	if p.Ingredients != "" {
		fmt.Fprintf(&b, "Key ingredients: %s\n", p.Ingredients)
	}
	b.WriteString("\nStyle: warm, clear, visual, never overstated. At most 1000 words.")
	return b.String()
}

func brandOrDefault(p domain.Product) string {
	if p.Brand != "" {
		return p.Brand
	}
	return p.Source
}

func skinTypeOrDefault(p domain.Product) string {
	if p.SkinType != "" {
		return p.SkinType
	}
	return "all skin types"
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You write friendly, factual skincare newsletter copy."
	}
	return prompt
}
