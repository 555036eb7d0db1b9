package queries

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/draftdesk/research-orchestrator/internal/llm"
	"github.com/draftdesk/research-orchestrator/internal/metrics"
	"github.com/draftdesk/research-orchestrator/internal/models"
)

// Request is a drafting request to research.
type Request struct {
	Subject      string
	Purpose      string
	Jurisdiction string
}

// Generator turns a drafting request into exactly three categorized search
// queries. The language model proposes them; a deterministic template takes
// over on any model or parse failure, so Generate never fails.
type Generator struct {
	completer llm.Completer
	model     string
	logger    *zap.Logger
}

// NewGenerator builds a Generator using the given completion model.
func NewGenerator(completer llm.Completer, model string, logger *zap.Logger) *Generator {
	return &Generator{completer: completer, model: model, logger: logger}
}

const systemPrompt = "You are a research assistant that generates precise search queries " +
	"for government document research. Always return valid JSON."

// Generate returns one query per category for the request.
func (g *Generator) Generate(ctx context.Context, req Request) models.QuerySet {
	reply, err := g.completer.Complete(ctx, llm.CompletionRequest{
		Model:       g.model,
		System:      systemPrompt,
		User:        buildPrompt(req),
		Temperature: 0.7,
		MaxTokens:   300,
	})
	if err != nil {
		g.logger.Warn("Query generation call failed, using template fallback", zap.Error(err))
		metrics.QueryGenerations.WithLabelValues("fallback").Inc()
		return FallbackQueries(req)
	}

	qs, err := parseQueryReply(reply)
	if err != nil {
		g.logger.Warn("Query reply unusable, using template fallback",
			zap.Error(err),
			zap.Int("reply_len", len(reply)),
		)
		metrics.QueryGenerations.WithLabelValues("fallback").Inc()
		return FallbackQueries(req)
	}

	metrics.QueryGenerations.WithLabelValues("llm").Inc()
	for i, q := range qs {
		g.logger.Info("Generated search query",
			zap.Int("index", i+1),
			zap.String("category", string(q.Category)),
			zap.String("query", q.Text),
		)
	}
	return qs
}

func buildPrompt(req Request) string {
	jurisdiction := req.Jurisdiction
	if jurisdiction == "" {
		jurisdiction = "General"
	}
	jurisdictionContext := ""
	if req.Jurisdiction != "" {
		jurisdictionContext = " in " + req.Jurisdiction
	}

	var sb strings.Builder
	sb.WriteString("You are an expert researcher helping government workers find relevant information for document drafting.\n\n")
	sb.WriteString("Generate exactly 3 search queries for the following document:\n")
	fmt.Fprintf(&sb, "- Subject: %s\n", req.Subject)
	fmt.Fprintf(&sb, "- Purpose: %s\n", req.Purpose)
	fmt.Fprintf(&sb, "- Jurisdiction: %s\n\n", jurisdiction)
	sb.WriteString("Create one query for each category:\n")
	fmt.Fprintf(&sb, "1. BACKGROUND: Historical context, definitions, established policies%s\n", jurisdictionContext)
	fmt.Fprintf(&sb, "2. RECENT: Recent news, changes, updates, current developments%s\n", jurisdictionContext)
	fmt.Fprintf(&sb, "3. POLICY: Government reports, official documents, regulatory information%s\n\n", jurisdictionContext)
	sb.WriteString(`Focus on:
- Government and official sources (.gov, .gc.ca, official reports)
- Factual, authoritative information
- Relevant to government document drafting

Return as JSON array with objects containing "query" and "category" fields.

Example format:
[
  {"query": "housing affordability policy framework Canada 2025", "category": "background"},
  {"query": "recent housing initiatives federal government 2025", "category": "recent"},
  {"query": "CMHC housing strategy report government", "category": "policy"}
]

Generate queries now:
`)
	return sb.String()
}

// parseQueryReply extracts a QuerySet from the model reply. It requires
// exactly three queries, one per category; anything else is an error and
// the caller falls back to templates.
func parseQueryReply(reply string) (models.QuerySet, error) {
	var qs models.QuerySet

	var parsed []struct {
		Query    string `json:"query"`
		Category string `json:"category"`
	}
	if err := json.Unmarshal([]byte(StripCodeFences(reply)), &parsed); err != nil {
		return qs, fmt.Errorf("parse query JSON: %w", err)
	}

	byCategory := make(map[models.QueryCategory]string, 3)
	for _, item := range parsed {
		cat := models.QueryCategory(strings.ToLower(strings.TrimSpace(item.Category)))
		text := strings.TrimSpace(item.Query)
		if !cat.Valid() || text == "" {
			continue
		}
		byCategory[cat] = text
	}
	if len(byCategory) != 3 || len(parsed) != 3 {
		return qs, fmt.Errorf("expected 3 queries covering all categories, got %d entries", len(parsed))
	}

	for i, cat := range models.Categories {
		qs[i] = models.SearchQuery{Text: byCategory[cat], Category: cat}
	}
	return qs, nil
}

// FallbackQueries builds the deterministic template queries. Pure string
// construction: it cannot fail.
func FallbackQueries(req Request) models.QuerySet {
	suffix := " government"
	if req.Jurisdiction != "" {
		suffix = " " + req.Jurisdiction
	}
	year := time.Now().UTC().Year()

	return models.QuerySet{
		{
			Text:     fmt.Sprintf("%s policy background%s", req.Subject, suffix),
			Category: models.CategoryBackground,
		},
		{
			Text:     fmt.Sprintf("%s recent news updates %d%s", req.Subject, year, suffix),
			Category: models.CategoryRecent,
		},
		{
			Text:     fmt.Sprintf("%s official report government policy", req.Subject),
			Category: models.CategoryPolicy,
		},
	}
}

// StripCodeFences unwraps a reply that arrived inside markdown code fences.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "```json") {
		parts := strings.SplitN(s, "```json", 2)
		s = parts[1]
		if idx := strings.Index(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	} else if strings.Contains(s, "```") {
		parts := strings.SplitN(s, "```", 3)
		if len(parts) >= 2 {
			s = parts[1]
		}
	}
	return strings.TrimSpace(s)
}
