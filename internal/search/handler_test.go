package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/draftdesk/research-orchestrator/internal/config"
	"github.com/draftdesk/research-orchestrator/internal/models"
	"github.com/draftdesk/research-orchestrator/internal/websearch"
)

type fakeProvider struct {
	// responses keyed by the query text prefix before the site filter
	responses map[string][]websearch.Item
	errFor    map[string]error
}

func (f *fakeProvider) Search(_ context.Context, req websearch.Request) ([]websearch.Item, error) {
	for prefix, err := range f.errFor {
		if strings.HasPrefix(req.Query, prefix) {
			return nil, err
		}
	}
	for prefix, items := range f.responses {
		if strings.HasPrefix(req.Query, prefix) {
			return items, nil
		}
	}
	return nil, nil
}

func testQueries() []models.SearchQuery {
	return []models.SearchQuery{
		{Text: "housing policy background", Category: models.CategoryBackground},
		{Text: "housing recent news", Category: models.CategoryRecent},
		{Text: "housing official report", Category: models.CategoryPolicy},
	}
}

func TestTrustScore(t *testing.T) {
	tiers := config.DefaultSourceProfile().TrustTiers

	tests := []struct {
		domain string
		want   int
	}{
		{"www.canada.ca", TrustNational},
		{"ised-isde.gc.ca", TrustNational},
		{"ontario.ca", TrustRegional},
		{"www150.statcan.gc.ca", TrustNational}, // .gc.ca outranks the academic statcan match
		{"utoronto.edu", TrustAcademic},
		{"cbc.ca", TrustNews},
		{"example.com", TrustNone},
	}
	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			assert.Equal(t, tt.want, TrustScore(tt.domain, tiers))
		})
	}
}

func TestTrustScoreIsPure(t *testing.T) {
	tiers := config.DefaultSourceProfile().TrustTiers
	first := TrustScore("canada.ca", tiers)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, TrustScore("canada.ca", tiers))
	}
}

func TestIsSpamDomain(t *testing.T) {
	h := config.DefaultSourceProfile().Spam

	tests := []struct {
		domain string
		spam   bool
	}{
		{"canada.ca", false},
		{"www.ontario.ca", false},
		{"best-casino-wins.ca", true},       // spam keyword
		{"cheap-pills-online.ca", true},     // spam keyword
		{"deals.xyz", true},                 // suspicious TLD
		{"a1b2c3d4.ca", true},               // digit-heavy name
		{"buy-now-cheap-fast-deals.ca", true}, // hyphen stuffing
		{"ab.ca", true},                     // too short
		{"policyresearch.ca", false},
	}
	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			assert.Equal(t, tt.spam, IsSpamDomain(tt.domain, h))
		})
	}
}

func TestTitleSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, TitleSimilarity("Housing Policy Update", "housing policy update"))
	assert.Equal(t, 0.0, TitleSimilarity("Housing Policy", "Transit Funding"))
	assert.InDelta(t, 0.6, TitleSimilarity("a b c d", "a b c e"), 0.01)
	assert.Equal(t, 0.0, TitleSimilarity("", "anything"))
}

func TestSearchFiltersAndRanks(t *testing.T) {
	provider := &fakeProvider{responses: map[string][]websearch.Item{
		"housing policy background": {
			{Title: "Untrusted blog post", URL: "https://example.com/post"},
			{Title: "National Housing Strategy", URL: "https://www.canada.ca/housing", Snippet: "strategy"},
			{Title: "Provincial housing report", URL: "https://ontario.ca/housing"},
			{Title: "Budget PDF", URL: "https://canada.ca/budget.pdf"},
			{Title: "Casino housing tips", URL: "https://best-casino-wins.ca/housing"},
		},
	}}
	h := NewHandler(provider, Config{}, zap.NewNop())

	results := h.Search(context.Background(), testQueries()[:1])

	require.Len(t, results, 2)
	// trust descending: national before regional
	assert.Equal(t, "www.canada.ca", results[0].Domain)
	assert.Equal(t, 10, results[0].TrustScore)
	assert.Equal(t, "ontario.ca", results[1].Domain)
	assert.Equal(t, 8, results[1].TrustScore)
}

func TestSearchStableOrderWithinTier(t *testing.T) {
	provider := &fakeProvider{responses: map[string][]websearch.Item{
		"housing policy background": {
			{Title: "First national page", URL: "https://canada.ca/one"},
			{Title: "Second federal page", URL: "https://www.gc.ca.example.gc.ca/two"},
			{Title: "Third ministry page", URL: "https://infrastructure.gc.ca/three"},
		},
	}}
	h := NewHandler(provider, Config{}, zap.NewNop())

	results := h.Search(context.Background(), testQueries()[:1])

	require.Len(t, results, 3)
	assert.Equal(t, "https://canada.ca/one", results[0].URL)
	assert.Equal(t, "https://www.gc.ca.example.gc.ca/two", results[1].URL)
	assert.Equal(t, "https://infrastructure.gc.ca/three", results[2].URL)
}

func TestSearchQueryFailureYieldsEmptySet(t *testing.T) {
	provider := &fakeProvider{
		responses: map[string][]websearch.Item{
			"housing policy background": {
				{Title: "Strategy page", URL: "https://canada.ca/strategy"},
			},
		},
		errFor: map[string]error{
			"housing recent news": errors.New("provider timeout"),
		},
	}
	h := NewHandler(provider, Config{}, zap.NewNop())

	results := h.Search(context.Background(), testQueries())

	require.Len(t, results, 1)
	assert.Equal(t, "https://canada.ca/strategy", results[0].URL)
}

func TestSearchDeduplicatesURLs(t *testing.T) {
	shared := websearch.Item{Title: "Shared report", URL: "https://canada.ca/report"}
	provider := &fakeProvider{responses: map[string][]websearch.Item{
		"housing policy background": {shared},
		"housing recent news":       {shared},
	}}
	h := NewHandler(provider, Config{}, zap.NewNop())

	results := h.Search(context.Background(), testQueries())

	require.Len(t, results, 1)
}

func TestSearchDropsNearDuplicateTitles(t *testing.T) {
	provider := &fakeProvider{responses: map[string][]websearch.Item{
		"housing policy background": {
			{Title: "National Housing Strategy Annual Report", URL: "https://canada.ca/a"},
		},
		"housing recent news": {
			{Title: "national housing strategy annual report", URL: "https://canada.ca/b"},
			{Title: "Completely different transit study", URL: "https://canada.ca/c"},
		},
	}}
	h := NewHandler(provider, Config{}, zap.NewNop())

	results := h.Search(context.Background(), testQueries())

	require.Len(t, results, 2)
	assert.Equal(t, "https://canada.ca/a", results[0].URL)
	assert.Equal(t, "https://canada.ca/c", results[1].URL)
}

func TestSearchCapsAndPerQueryLimit(t *testing.T) {
	// 8 trusted hits per query so per-query keep (5) and total cap both bind.
	makeItems := func(tag string) []websearch.Item {
		items := make([]websearch.Item, 8)
		for i := range items {
			items[i] = websearch.Item{
				Title: fmt.Sprintf("%s report volume %d issue %d", tag, i, i*7),
				URL:   fmt.Sprintf("https://canada.ca/%s/%d", tag, i),
			}
		}
		return items
	}
	provider := &fakeProvider{responses: map[string][]websearch.Item{
		"housing policy background": makeItems("background"),
		"housing recent news":       makeItems("recent"),
		"housing official report":   makeItems("official"),
	}}
	h := NewHandler(provider, Config{}, zap.NewNop())

	results := h.Search(context.Background(), testQueries())

	assert.Len(t, results, 15)
	seen := make(map[string]bool)
	for _, r := range results {
		assert.False(t, seen[r.URL], "duplicate URL %s", r.URL)
		seen[r.URL] = true
		assert.Greater(t, r.TrustScore, 0)
	}
	// query order preserved: first five from the background query
	for i := 0; i < 5; i++ {
		assert.Contains(t, results[i].URL, "/background/")
	}
}

func TestIsDocumentLink(t *testing.T) {
	assert.True(t, isDocumentLink("https://canada.ca/report.pdf"))
	assert.True(t, isDocumentLink("https://canada.ca/report.PDF"))
	assert.True(t, isDocumentLink("https://canada.ca/data.xlsx?lang=en"))
	assert.True(t, isDocumentLink("https://canada.ca/brief.docx#page=2"))
	assert.False(t, isDocumentLink("https://canada.ca/report"))
	assert.False(t, isDocumentLink("https://canada.ca/pdf-guidance.html"))
}
