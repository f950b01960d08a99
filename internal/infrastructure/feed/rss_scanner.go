package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"BeautyBot/internal/domain"
	"BeautyBot/internal/scanner"
)

// RSSScanner reads candidate products from an RSS/Atom feed, such as a
// Google News search feed. Entry titles become product titles; entries
// failing the relevance predicate are dropped here, before the core
// ever sees them.
type RSSScanner struct {
	parser *gofeed.Parser
}

var _ scanner.Scanner = (*RSSScanner)(nil)

// NewRSSScanner wires an HTTP client; a nil client gets a 20s timeout.
func NewRSSScanner(client *http.Client) *RSSScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = "BeautyBot/1.0"
	return &RSSScanner{parser: parser}
}

// Name identifies the strategy inside the registry.
func (s *RSSScanner) Name() string {
	return "rss"
}

// Scan fetches the configured feed and maps relevant entries to
// products.
func (s *RSSScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Product, error) {
	if req.URL == "" {
		return nil, fmt.Errorf("no feed url provided for site %s", req.SiteName)
	}

	parsed, err := s.parser.ParseURLWithContext(req.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", req.SiteName, err)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = len(parsed.Items)
	}

	products := make([]domain.Product, 0, limit)
	for _, item := range parsed.Items {
		if len(products) >= limit {
			break
		}
		title := strings.TrimSpace(item.Title)
		if title == "" || !scanner.Relevant(title, req.Include, req.Exclude) {
			continue
		}
		products = append(products, domain.Product{
			Source:   req.SiteName,
			Title:    title,
			Brand:    "news feed",
			URL:      item.Link,
			SkinType: "all skin types",
		})
	}

	return products, nil
}
