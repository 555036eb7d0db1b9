package config

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// TrustTiers maps trust scores to domain substrings. A domain is scored by
// the highest tier whose substrings match it; non-matching domains score 0
// and are dropped by the search handler.
type TrustTiers struct {
	National  []string `yaml:"national"`  // score 10
	Regional  []string `yaml:"regional"`  // score 8
	Academic  []string `yaml:"academic"`  // score 6
	News      []string `yaml:"news"`      // score 4
}

// SpamHeuristics configures the low-quality domain filter.
type SpamHeuristics struct {
	Keywords       []string `yaml:"keywords"`
	SuspiciousTLDs []string `yaml:"suspicious_tlds"`
	MaxDigitRatio  float64  `yaml:"max_digit_ratio"`
	MaxHyphens     int      `yaml:"max_hyphens"`
	MinLength      int      `yaml:"min_length"`
}

// SourceProfile is the research-domain tuning file: which domains to trust,
// what counts as spam, which keywords mark a page as relevant, and which
// boilerplate phrases to strip from extracted text. It hot-reloads via the
// config Manager so tier changes apply without a restart.
type SourceProfile struct {
	SiteFilter        string         `yaml:"site_filter"`
	TrustTiers        TrustTiers     `yaml:"trust_tiers"`
	Spam              SpamHeuristics `yaml:"spam"`
	RelevanceKeywords []string       `yaml:"relevance_keywords"`
	BoilerplateRegex  []string       `yaml:"boilerplate_patterns"`
}

var (
	profileMu     sync.RWMutex
	activeProfile *SourceProfile
)

// DefaultSourceProfile returns the built-in profile, tuned for Canadian
// government document research.
func DefaultSourceProfile() *SourceProfile {
	return &SourceProfile{
		SiteFilter: "(site:.gov OR site:.gc.ca OR site:canada.ca)",
		TrustTiers: TrustTiers{
			National: []string{".gov", ".gc.ca", "canada.ca"},
			Regional: []string{".ca", "ontario.ca", "toronto.ca"},
			Academic: []string{".edu", ".ac.", "statcan", "parl.gc.ca"},
			News:     []string{"cbc.ca", "globalnews.ca", "ctvnews.ca"},
		},
		Spam: SpamHeuristics{
			Keywords:       []string{"casino", "pills", "loans", "crypto-win", "free-money", "adult", "xxx"},
			SuspiciousTLDs: []string{".xyz", ".top", ".click", ".loan", ".win", ".bid"},
			MaxDigitRatio:  0.30,
			MaxHyphens:     3,
			MinLength:      4,
		},
		RelevanceKeywords: []string{
			"policy", "government", "minister", "department", "regulation",
			"legislation", "parliament", "federal", "provincial", "municipal",
			"public", "service", "report", "budget", "strategy", "framework",
			"initiative", "program", "act", "bill", "committee", "council",
			"administration", "agency", "authority", "commission",
		},
		BoilerplateRegex: []string{
			`Skip to main content`,
			`Skip to content`,
			`Subscribe to newsletter`,
			`Follow us on \w+`,
			`Copyright \d{4}.*?(?:\.|$)`,
			`All rights reserved.*?(?:\.|$)`,
			`Privacy Policy`,
			`Terms of Service`,
			`Cookie Policy`,
			`Sign up for.*?newsletter`,
			`Share this.*?(?:\.|$)`,
			`Print this page`,
			`Email this page`,
			`Last updated:.*?(?:\.|$)`,
			`Date modified:.*?(?:\.|$)`,
		},
	}
}

// LoadSourceProfile reads sources.yaml from the given path and merges it
// over the defaults. A missing file yields the defaults; a malformed file
// is an error so a bad edit never silently reverts tiers.
func LoadSourceProfile(path string) (*SourceProfile, error) {
	profile := DefaultSourceProfile()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return profile, nil
		}
		return nil, fmt.Errorf("read source profile %s: %w", path, err)
	}

	var loaded SourceProfile
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parse source profile %s: %w", path, err)
	}
	mergeProfile(profile, &loaded)
	return profile, nil
}

func mergeProfile(dst, src *SourceProfile) {
	if src.SiteFilter != "" {
		dst.SiteFilter = src.SiteFilter
	}
	if len(src.TrustTiers.National) > 0 {
		dst.TrustTiers.National = src.TrustTiers.National
	}
	if len(src.TrustTiers.Regional) > 0 {
		dst.TrustTiers.Regional = src.TrustTiers.Regional
	}
	if len(src.TrustTiers.Academic) > 0 {
		dst.TrustTiers.Academic = src.TrustTiers.Academic
	}
	if len(src.TrustTiers.News) > 0 {
		dst.TrustTiers.News = src.TrustTiers.News
	}
	if len(src.Spam.Keywords) > 0 {
		dst.Spam.Keywords = src.Spam.Keywords
	}
	if len(src.Spam.SuspiciousTLDs) > 0 {
		dst.Spam.SuspiciousTLDs = src.Spam.SuspiciousTLDs
	}
	if src.Spam.MaxDigitRatio > 0 {
		dst.Spam.MaxDigitRatio = src.Spam.MaxDigitRatio
	}
	if src.Spam.MaxHyphens > 0 {
		dst.Spam.MaxHyphens = src.Spam.MaxHyphens
	}
	if src.Spam.MinLength > 0 {
		dst.Spam.MinLength = src.Spam.MinLength
	}
	if len(src.RelevanceKeywords) > 0 {
		dst.RelevanceKeywords = src.RelevanceKeywords
	}
	if len(src.BoilerplateRegex) > 0 {
		dst.BoilerplateRegex = src.BoilerplateRegex
	}
}

// SetActiveProfile swaps the process-wide profile. Called at startup and by
// the hot-reload manager.
func SetActiveProfile(p *SourceProfile) {
	profileMu.Lock()
	defer profileMu.Unlock()
	activeProfile = p
}

// ActiveProfile returns the current profile, falling back to defaults when
// nothing has been loaded yet.
func ActiveProfile() *SourceProfile {
	profileMu.RLock()
	defer profileMu.RUnlock()
	if activeProfile == nil {
		return DefaultSourceProfile()
	}
	return activeProfile
}
