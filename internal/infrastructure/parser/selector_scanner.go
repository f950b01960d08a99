package parser

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"BeautyBot/internal/domain"
	"BeautyBot/internal/scanner"
)

// SelectorScanner scrapes retail and editorial pages via CSS selectors
// configured per site:
//
//	item       selector matching one product card/link (required)
//	title      child selector whose text is the title (default: item text)
//	titleAttr  attribute on the item carrying the title, instead of text
//	linkAttr   attribute carrying the link (default: none, page URL used)
//	linkPrefix prefix for relative links
type SelectorScanner struct {
	client *http.Client
}

var _ scanner.Scanner = (*SelectorScanner)(nil)

// NewSelectorScanner wires an HTTP client; a nil client gets a 20s timeout.
func NewSelectorScanner(client *http.Client) *SelectorScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &SelectorScanner{client: client}
}

// Name identifies the strategy inside the registry.
func (s *SelectorScanner) Name() string {
	return "selector"
}

// Scan fetches the page and extracts relevant products, capped at
// req.Limit (default 10).
func (s *SelectorScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Product, error) {
	itemSelector := req.Options["item"]
	if itemSelector == "" {
		return nil, fmt.Errorf("site %s: no item selector configured", req.SiteName)
	}

	doc, err := s.fetchDocument(ctx, req.URL)
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", req.SiteName, err)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	var products []domain.Product
	doc.Find(itemSelector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(products) >= limit {
			return false
		}

		title := extractTitle(sel, req.Options)
		if title == "" || !scanner.Relevant(title, req.Include, req.Exclude) {
			return true
		}

		products = append(products, domain.Product{
			Source:   req.SiteName,
			Title:    title,
			Brand:    req.SiteName,
			URL:      extractLink(sel, req.Options, req.URL),
			SkinType: "all skin types",
		})
		return true
	})

	return products, nil
}

func (s *SelectorScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; BeautyBot/1.0)")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("site returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func extractTitle(sel *goquery.Selection, options map[string]string) string {
	if attr := options["titleAttr"]; attr != "" {
		title, _ := sel.Attr(attr)
		return strings.TrimSpace(title)
	}
	if child := options["title"]; child != "" {
		return strings.TrimSpace(sel.Find(child).First().Text())
	}
	return strings.TrimSpace(sel.Text())
}

func extractLink(sel *goquery.Selection, options map[string]string, pageURL string) string {
	attr := options["linkAttr"]
	if attr == "" {
		return pageURL
	}
	href, ok := sel.Attr(attr)
	if !ok || strings.TrimSpace(href) == "" {
		return pageURL
	}
	href = strings.TrimSpace(href)
	if !strings.HasPrefix(href, "http") {
		href = options["linkPrefix"] + href
	}
	return href
}
