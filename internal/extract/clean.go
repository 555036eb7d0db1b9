package extract

import (
	"regexp"
	"strings"
	"sync"

	"github.com/draftdesk/research-orchestrator/internal/config"
)

var (
	whitespacePattern = regexp.MustCompile(`\s+`)
	urlPattern        = regexp.MustCompile(`https?://\S+`)
	emailPattern      = regexp.MustCompile(`\S+@\S+\.\S+`)
	// Everything outside the allowed character set is dropped so downstream
	// prompts stay free of control characters and markup remnants. Letters
	// and digits match across scripts so accented characters survive.
	charsetPattern = regexp.MustCompile(`[^\p{L}\p{N}_\s.,;:!?()-]`)
)

// Boilerplate patterns come from the hot-reloadable source profile, so the
// compiled set is cached per profile instance instead of per page.
var boilerplateCache struct {
	mu       sync.Mutex
	profile  *config.SourceProfile
	patterns []*regexp.Regexp
}

func boilerplatePatterns(p *config.SourceProfile) []*regexp.Regexp {
	boilerplateCache.mu.Lock()
	defer boilerplateCache.mu.Unlock()
	if boilerplateCache.profile == p {
		return boilerplateCache.patterns
	}

	patterns := make([]*regexp.Regexp, 0, len(p.BoilerplateRegex))
	for _, expr := range p.BoilerplateRegex {
		re, err := regexp.Compile("(?i)" + expr)
		if err != nil {
			continue
		}
		patterns = append(patterns, re)
	}
	boilerplateCache.profile = p
	boilerplateCache.patterns = patterns
	return patterns
}

// CleanText normalizes raw extracted text: whitespace is collapsed,
// boilerplate phrases, URLs, and email addresses are stripped, characters
// outside the allowed set are dropped, and the result is truncated to
// maxLength with a trailing ellipsis.
func CleanText(text string, profile *config.SourceProfile, maxLength int) string {
	text = whitespacePattern.ReplaceAllString(text, " ")
	for _, re := range boilerplatePatterns(profile) {
		text = re.ReplaceAllString(text, " ")
	}
	text = urlPattern.ReplaceAllString(text, "")
	text = emailPattern.ReplaceAllString(text, "")
	text = charsetPattern.ReplaceAllString(text, "")
	text = strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))

	if maxLength > 0 && len(text) > maxLength {
		text = text[:maxLength] + "..."
	}
	return text
}
