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

// PerplexityClient implements ports.Researcher against the Perplexity
// chat API. The model is asked for a JSON product list; the answer
// arrives as prose with a JSON object embedded somewhere inside, so
// extraction is deliberately forgiving about surrounding text and
// deliberately strict about the object itself.
type PerplexityClient struct {
	endpoint   string
	model      string
	apiKey     string
	batchSize  int
	httpClient *http.Client
}

var _ ports.Researcher = (*PerplexityClient)(nil)

// NewPerplexityClient builds a research client from configuration.
// Research calls can take a while; the timeout is sized accordingly.
func NewPerplexityClient(cfg config.ResearchConfig) *PerplexityClient {
	return &PerplexityClient{
		endpoint:  cfg.Endpoint,
		model:     cfg.Model,
		apiKey:    cfg.APIKey,
		batchSize: cfg.BatchSize,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
}

type researchPayload struct {
	Products []researchProduct `json:"products"`
}

type researchProduct struct {
	Name        string `json:"name"`
	Brand       string `json:"brand"`
	Description string `json:"description"`
	Ingredients string `json:"ingredients"`
	Price       string `json:"price"`
	URL         string `json:"url"`
	SkinType    string `json:"skin_type"`
}

// FetchWeeklyBatch asks for this week's products and parses the JSON
// embedded in the model's answer. Any malformed payload is an error;
// the caller keeps its previously cached batch in that case.
func (c *PerplexityClient) FetchWeeklyBatch(ctx context.Context) ([]domain.Product, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return nil, fmt.Errorf("research client misconfigured")
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: researchPrompt(c.batchSize)},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal research payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call research api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("research api error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode research response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("research response has no choices")
	}

	return parseResearchContent(parsed.Choices[0].Message.Content)
}

// parseResearchContent extracts the embedded JSON object (first "{" to
// last "}") and unmarshals the product list.
func parseResearchContent(content string) ([]domain.Product, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("research content carries no JSON object: %s", truncate(content, 200))
	}

	var payload researchPayload
	if err := json.Unmarshal([]byte(content[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("parse research JSON: %w", err)
	}
	if len(payload.Products) == 0 {
		return nil, fmt.Errorf("research JSON has no products: %s", truncate(content, 200))
	}

	batch := make([]domain.Product, 0, len(payload.Products))
	for _, item := range payload.Products {
		title := strings.TrimSpace(item.Name)
		if title == "" {
			continue
		}
		batch = append(batch, domain.Product{
			Source:      "research",
			Title:       title,
			Brand:       item.Brand,
			URL:         item.URL,
			SkinType:    item.SkinType,
			Description: item.Description,
			Ingredients: item.Ingredients,
			Price:       item.Price,
		})
	}
	if len(batch) == 0 {
		return nil, fmt.Errorf("research JSON products all lack names")
	}
	return batch, nil
}

func researchPrompt(batchSize int) string {
	if batchSize <= 0 {
		batchSize = 5
	}
	return fmt.Sprintf(`Provide JSON-formatted information on %d natural, cruelty-free skincare products currently available from major retailers, with this exact structure:
{
  "products": [
    {
      "name": "Product name",
      "brand": "Brand",
      "description": "Technical description",
      "ingredients": "Key ingredients",
      "price": "Approximate price",
      "url": "Product link",
      "skin_type": "Recommended skin type"
    }
  ]
}`, batchSize)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
