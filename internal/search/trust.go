package search

import (
	"strings"

	"github.com/draftdesk/research-orchestrator/internal/config"
)

// Trust scores by tier. A score of zero means the domain is dropped.
const (
	TrustNational = 10
	TrustRegional = 8
	TrustAcademic = 6
	TrustNews     = 4
	TrustNone     = 0
)

// TrustScore ranks a domain's reliability for government research. It is a
// pure function of the domain string and the configured tiers: the same
// domain always yields the same score.
func TrustScore(domain string, tiers config.TrustTiers) int {
	d := strings.ToLower(domain)
	if matchesAny(d, tiers.National) {
		return TrustNational
	}
	if matchesAny(d, tiers.Regional) {
		return TrustRegional
	}
	if matchesAny(d, tiers.Academic) {
		return TrustAcademic
	}
	if matchesAny(d, tiers.News) {
		return TrustNews
	}
	return TrustNone
}

func matchesAny(domain string, substrings []string) bool {
	for _, s := range substrings {
		if s != "" && strings.Contains(domain, s) {
			return true
		}
	}
	return false
}

// IsSpamDomain applies the low-quality domain heuristics: spam keyword
// substrings, a digit-heavy name, hyphen stuffing, a too-short name, or a
// suspicious TLD. Pure function of the domain string and heuristics.
func IsSpamDomain(domain string, h config.SpamHeuristics) bool {
	d := strings.ToLower(strings.TrimPrefix(domain, "www."))
	if d == "" {
		return true
	}

	for _, kw := range h.Keywords {
		if kw != "" && strings.Contains(d, kw) {
			return true
		}
	}
	for _, tld := range h.SuspiciousTLDs {
		if tld != "" && strings.HasSuffix(d, tld) {
			return true
		}
	}

	// Remaining checks look at the registrable name without its TLD.
	name := d
	if idx := strings.LastIndex(d, "."); idx > 0 {
		name = d[:idx]
	}
	if h.MinLength > 0 && len(name) < h.MinLength {
		return true
	}
	if h.MaxHyphens > 0 && strings.Count(name, "-") > h.MaxHyphens {
		return true
	}
	if h.MaxDigitRatio > 0 {
		digits := 0
		for _, r := range name {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		if len(name) > 0 && float64(digits)/float64(len(name)) > h.MaxDigitRatio {
			return true
		}
	}
	return false
}

// TitleSimilarity returns the Jaccard word-set overlap of two titles in
// [0,1]. Case-insensitive; used to drop near-duplicate results that point
// at mirrored or syndicated pages.
func TitleSimilarity(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	intersection := 0
	for w := range wordsA {
		if wordsB[w] {
			intersection++
		}
	}
	union := len(wordsA) + len(wordsB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = true
	}
	return set
}
