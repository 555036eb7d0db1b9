package extract

import (
	"strings"

	"go.uber.org/zap"

	"github.com/draftdesk/research-orchestrator/internal/config"
	"github.com/draftdesk/research-orchestrator/internal/metrics"
	"github.com/draftdesk/research-orchestrator/internal/models"
)

const (
	minGateWords      = 100
	minUniqueness     = 0.30
	minKeywordMatches = 2
)

// Rejection reasons, reported as metric labels.
const (
	RejectWordCount  = "word_count"
	RejectUniqueness = "uniqueness"
	RejectRelevance  = "relevance"
)

// PassesGate applies the three-part quality gate to an extracted document:
// at least 100 words, a unique-word ratio of at least 0.30, and at least
// two distinct relevance keywords present. Pure function; the empty reason
// means the document passed.
func PassesGate(doc models.ExtractedContent, relevanceKeywords []string) (bool, string) {
	words := strings.Fields(strings.ToLower(doc.Content))
	if len(words) < minGateWords {
		return false, RejectWordCount
	}

	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[w] = struct{}{}
	}
	if float64(len(unique))/float64(len(words)) < minUniqueness {
		return false, RejectUniqueness
	}

	lower := strings.ToLower(doc.Content)
	matches := 0
	for _, kw := range relevanceKeywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			matches++
			if matches >= minKeywordMatches {
				return true, ""
			}
		}
	}
	return false, RejectRelevance
}

// ApplyGate filters extracted documents through the quality gate, counting
// rejections by reason. Order is preserved.
func ApplyGate(docs []models.ExtractedContent, profile *config.SourceProfile, logger *zap.Logger) []models.ExtractedContent {
	kept := make([]models.ExtractedContent, 0, len(docs))
	for _, d := range docs {
		ok, reason := PassesGate(d, profile.RelevanceKeywords)
		if !ok {
			metrics.GateRejections.WithLabelValues(reason).Inc()
			logger.Debug("Quality gate rejected source",
				zap.String("url", d.URL),
				zap.String("reason", reason),
				zap.Int("word_count", d.WordCount))
			continue
		}
		kept = append(kept, d)
	}
	return kept
}
