package parser

import (
	"context"
	"fmt"
	"log/slog"

	"BeautyBot/internal/config"
	"BeautyBot/internal/domain"
	"BeautyBot/internal/ports"
	"BeautyBot/internal/scanner"
)

// StrategySource implements ProductSource via registered scanner
// strategies. A failing site contributes zero products and is logged;
// it never aborts its siblings, so one dead upstream cannot blank the
// whole run.
type StrategySource struct {
	registry *scanner.Registry
	sites    []config.SiteConfig
	keywords config.KeywordsConfig
	logger   *slog.Logger
}

var _ ports.ProductSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry with config-defined sites.
func NewStrategySource(reg *scanner.Registry, sites []config.SiteConfig, keywords config.KeywordsConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		sites:    sites,
		keywords: keywords,
		logger:   log,
	}
}

// FetchCandidates iterates over configured sites and executes their
// scanners, aggregating whatever the healthy ones produce.
func (s *StrategySource) FetchCandidates(ctx context.Context) ([]domain.Product, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	s.debug("fetch candidates", "sites", len(s.sites))

	var aggregated []domain.Product
	for _, site := range s.sites {
		strategy, err := s.registry.Resolve(site.Scanner)
		if err != nil {
			s.warn("site skipped", "site", site.Name, "error", err)
			continue
		}

		req := scanner.Request{
			SiteName: site.Name,
			URL:      site.URL,
			Limit:    site.Limit,
			Include:  s.keywords.Include,
			Exclude:  s.keywords.Exclude,
			Options:  site.Options,
		}

		results, err := strategy.Scan(ctx, req)
		if err != nil {
			s.warn("site failed", "site", site.Name, "scanner", site.Scanner, "error", err)
			continue
		}

		for i := range results {
			if results[i].Source == "" {
				results[i].Source = site.Name
			}
		}
		s.debug("site produced candidates", "site", site.Name, "count", len(results))
		aggregated = append(aggregated, results...)
	}

	s.debug("strategy source done", "total_candidates", len(aggregated))
	return aggregated, nil
}

func (s *StrategySource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *StrategySource) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
