package scanner

import (
	"context"
	"fmt"
	"strings"

	"BeautyBot/internal/domain"
)

// Request carries all parameters required to execute one site scan.
type Request struct {
	SiteName string
	URL      string
	Limit    int
	Include  []string
	Exclude  []string
	Options  map[string]string
}

// Scanner captures a single discovery strategy (RSS feed, CSS-selector
// scrape, etc.).
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.Product, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}

// Relevant applies the content-relevance predicate shared by all
// strategies: at least one include keyword present and no excluded
// keyword. An empty include list accepts everything.
func Relevant(title string, include, exclude []string) bool {
	title = strings.ToLower(title)
	for _, kw := range exclude {
		if kw != "" && strings.Contains(title, strings.ToLower(kw)) {
			return false
		}
	}
	if len(include) == 0 {
		return true
	}
	for _, kw := range include {
		if kw != "" && strings.Contains(title, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
