package models

import (
	"fmt"
	"strings"
	"time"
)

// QueryCategory classifies a generated search query by research intent.
type QueryCategory string

const (
	CategoryBackground QueryCategory = "background"
	CategoryRecent     QueryCategory = "recent"
	CategoryPolicy     QueryCategory = "policy"
)

// Categories lists every query category in canonical order. Each pipeline
// run produces exactly one query per category.
var Categories = []QueryCategory{CategoryBackground, CategoryRecent, CategoryPolicy}

// Valid reports whether c is a known category.
func (c QueryCategory) Valid() bool {
	switch c {
	case CategoryBackground, CategoryRecent, CategoryPolicy:
		return true
	}
	return false
}

// SearchQuery is one provider query produced by the query generator.
type SearchQuery struct {
	Text     string        `json:"text"`
	Category QueryCategory `json:"category"`
}

// QuerySet is the fixed set of three queries for one request, one per
// category.
type QuerySet [3]SearchQuery

// Validate checks the one-query-per-category invariant.
func (qs QuerySet) Validate() error {
	seen := make(map[QueryCategory]bool, 3)
	for _, q := range qs {
		if !q.Category.Valid() {
			return fmt.Errorf("unknown query category %q", q.Category)
		}
		if q.Text == "" {
			return fmt.Errorf("empty query text for category %q", q.Category)
		}
		if seen[q.Category] {
			return fmt.Errorf("duplicate query category %q", q.Category)
		}
		seen[q.Category] = true
	}
	return nil
}

// SearchResult is a single ranked provider hit that survived filtering.
// URL uniquely identifies a result within a set; Domain is the lowercased
// host component of URL.
type SearchResult struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	Snippet    string `json:"snippet"`
	Domain     string `json:"domain"`
	TrustScore int    `json:"trust_score"`
}

// ExtractedContent is the cleaned readable text of one fetched page.
type ExtractedContent struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Content     string    `json:"content"`
	Domain      string    `json:"domain"`
	WordCount   int       `json:"word_count"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// NewExtractedContent builds an ExtractedContent with WordCount derived
// from the cleaned text, preserving the WordCount == len(Fields(Content))
// invariant.
func NewExtractedContent(title, url, content, domain string, at time.Time) ExtractedContent {
	return ExtractedContent{
		Title:       title,
		URL:         url,
		Content:     content,
		Domain:      domain,
		WordCount:   len(strings.Fields(content)),
		ExtractedAt: at,
	}
}

// SourceSummary is the per-source bullet summary. Bullets always holds 3 or
// 4 entries; the summarizer pads or truncates before construction.
type SourceSummary struct {
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	Domain     string    `json:"domain"`
	Bullets    []string  `json:"bullets"`
	AccessedAt time.Time `json:"accessed_at"`
}

// Synthesis is the cross-source unified brief: 5 to 7 thematic statements.
type Synthesis []string

// BriefResult is the full pipeline output. It is structurally complete for
// any input, including total dependency outage: Queries always holds three
// entries, Sources may be empty, Synthesis is never empty.
type BriefResult struct {
	Queries        QuerySet        `json:"queries"`
	Sources        []SourceSummary `json:"sources"`
	Synthesis      Synthesis       `json:"synthesis"`
	ElapsedSeconds float64         `json:"elapsed_seconds"`
}
