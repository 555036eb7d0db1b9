package search

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/draftdesk/research-orchestrator/internal/config"
	"github.com/draftdesk/research-orchestrator/internal/metrics"
	"github.com/draftdesk/research-orchestrator/internal/models"
	"github.com/draftdesk/research-orchestrator/internal/websearch"
)

// titleDupThreshold is the Jaccard word-overlap above which two result
// titles are treated as duplicates of the same underlying page.
const titleDupThreshold = 0.80

// documentSuffixes are direct-download links the extractor cannot parse as
// HTML, so they are rejected up front.
var documentSuffixes = []string{".pdf", ".doc", ".docx", ".xls", ".xlsx"}

// Config tunes the search stage fan-out and result caps.
type Config struct {
	ResultsPerQuery int
	KeepPerQuery    int
	MaxTotal        int
	Market          string
}

// Handler fans the query set out to the web-search provider, scores and
// filters the raw hits, and merges them into a bounded, deduplicated
// result list ordered by query then trust.
type Handler struct {
	provider websearch.Provider
	cfg      Config
	logger   *zap.Logger
}

func NewHandler(provider websearch.Provider, cfg Config, logger *zap.Logger) *Handler {
	if cfg.ResultsPerQuery <= 0 {
		cfg.ResultsPerQuery = 10
	}
	if cfg.KeepPerQuery <= 0 {
		cfg.KeepPerQuery = 5
	}
	if cfg.MaxTotal <= 0 {
		cfg.MaxTotal = 15
	}
	return &Handler{provider: provider, cfg: cfg, logger: logger}
}

// Search runs every query concurrently against the provider. A failed
// provider call contributes an empty set for that query; the merged output
// never exceeds MaxTotal results and contains no duplicate URLs or
// near-duplicate titles.
func (h *Handler) Search(ctx context.Context, queries []models.SearchQuery) []models.SearchResult {
	profile := config.ActiveProfile()

	perQuery := make([][]models.SearchResult, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			items, err := h.provider.Search(gctx, websearch.Request{
				Query:  scopedQuery(q.Text, profile.SiteFilter),
				Count:  h.cfg.ResultsPerQuery,
				Market: h.cfg.Market,
			})
			if err != nil {
				metrics.SearchRequests.WithLabelValues("error").Inc()
				h.logger.Warn("Search query failed",
					zap.String("category", string(q.Category)),
					zap.Error(err))
				return nil
			}
			metrics.SearchRequests.WithLabelValues("success").Inc()
			perQuery[i] = h.rankQueryResults(items, profile)
			return nil
		})
	}
	// Workers never return errors; Wait only synchronizes the fan-in.
	_ = g.Wait()

	merged := h.merge(perQuery)
	metrics.SearchResultsKept.Observe(float64(len(merged)))
	return merged
}

// scopedQuery appends the trusted-site filter so the provider only surfaces
// pages from domains the profile recognizes.
func scopedQuery(text, siteFilter string) string {
	if siteFilter == "" {
		return text
	}
	return text + " " + siteFilter
}

// rankQueryResults filters one query's raw hits and keeps the top
// KeepPerQuery by trust score. The sort is stable so provider order breaks
// trust ties.
func (h *Handler) rankQueryResults(items []websearch.Item, profile *config.SourceProfile) []models.SearchResult {
	results := make([]models.SearchResult, 0, len(items))
	for _, item := range items {
		if isDocumentLink(item.URL) {
			continue
		}
		domain := domainOf(item.URL)
		if domain == "" {
			continue
		}
		score := TrustScore(domain, profile.TrustTiers)
		if score == TrustNone {
			continue
		}
		if IsSpamDomain(domain, profile.Spam) {
			continue
		}
		results = append(results, models.SearchResult{
			Title:      item.Title,
			URL:        item.URL,
			Snippet:    item.Snippet,
			Domain:     domain,
			TrustScore: score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].TrustScore > results[j].TrustScore
	})
	if len(results) > h.cfg.KeepPerQuery {
		results = results[:h.cfg.KeepPerQuery]
	}
	return results
}

// merge concatenates per-query result sets in query order, drops duplicate
// URLs and near-duplicate titles, and truncates to MaxTotal.
func (h *Handler) merge(perQuery [][]models.SearchResult) []models.SearchResult {
	seenURLs := make(map[string]bool)
	merged := make([]models.SearchResult, 0, h.cfg.MaxTotal)

	for _, results := range perQuery {
		for _, r := range results {
			if seenURLs[r.URL] {
				continue
			}
			if hasDuplicateTitle(merged, r.Title) {
				continue
			}
			seenURLs[r.URL] = true
			merged = append(merged, r)
		}
	}

	if len(merged) > h.cfg.MaxTotal {
		merged = merged[:h.cfg.MaxTotal]
	}
	return merged
}

func hasDuplicateTitle(kept []models.SearchResult, title string) bool {
	for _, k := range kept {
		if TitleSimilarity(k.Title, title) > titleDupThreshold {
			return true
		}
	}
	return false
}

func isDocumentLink(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	// Strip query and fragment so "report.pdf?lang=en" is still rejected.
	if idx := strings.IndexAny(lower, "?#"); idx >= 0 {
		lower = lower[:idx]
	}
	for _, suffix := range documentSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// domainOf extracts the lowercased host from a result URL, dropping any
// port. Unparseable URLs yield an empty string and are discarded.
func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
