package summarize

import (
	"fmt"
	"strings"
)

const (
	minSourceBullets = 3
	maxSourceBullets = 4
	minSynthesis     = 5
	maxSynthesis     = 7

	// Unprefixed reply lines shorter than this are treated as noise.
	minBareLineLen = 20
)

// Model replies sometimes open with a framing line instead of a bullet.
var preamblePrefixes = []string{"Here are", "Summary:", "Key points:"}

// ParseBullets extracts bullet points from a model reply. Lines starting
// with a bullet marker have the marker stripped; bare lines are kept when
// long enough and not a preamble. Pure function.
func ParseBullets(reply string) []string {
	var bullets []string
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if marked, ok := stripMarker(line); ok {
			if marked != "" {
				bullets = append(bullets, marked)
			}
			continue
		}
		if len(line) > minBareLineLen && !isPreamble(line) {
			bullets = append(bullets, line)
		}
	}
	return bullets
}

func stripMarker(line string) (string, bool) {
	for _, marker := range []string{"•", "-", "*"} {
		if rest, ok := strings.CutPrefix(line, marker); ok {
			return strings.TrimSpace(rest), true
		}
	}
	return "", false
}

func isPreamble(line string) bool {
	for _, p := range preamblePrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// normalizeSourceBullets enforces the 3-to-4 bullet shape for one source,
// padding with a generic context line and truncating the excess.
func normalizeSourceBullets(bullets []string, domain string) []string {
	if len(bullets) > maxSourceBullets {
		bullets = bullets[:maxSourceBullets]
	}
	for len(bullets) < minSourceBullets {
		bullets = append(bullets, fmt.Sprintf("Additional context from %s", domain))
	}
	return bullets
}

// fallbackSourceBullets is the per-source summary used when every model
// call for that source failed. The source stays in the brief with exactly
// one bullet noting unavailability; the 3-to-4 shape does not apply here.
func fallbackSourceBullets(domain string) []string {
	return []string{fmt.Sprintf("Summary unavailable for content from %s", domain)}
}

// fallbackSynthesis is the fixed brief used when synthesis cannot run at
// all: no summaries, or the model is unreachable.
func fallbackSynthesis(subject, purpose string, sourceCount int) []string {
	return []string{
		fmt.Sprintf("Research on %s gathered material from %d sources.", subject, sourceCount),
		fmt.Sprintf("The collected sources were selected for relevance to %s.", purpose),
		"Per-source summaries are available for individual review.",
		"A cross-source synthesis could not be produced for this run.",
		"Re-run the research brief to attempt synthesis again.",
	}
}

// synthesisPadding supplies filler statements when the model returns fewer
// than the minimum synthesis bullets.
func synthesisPadding(subject, purpose string, sourceCount int) []string {
	return []string{
		fmt.Sprintf("These findings draw on %d sources relevant to %s.", sourceCount, subject),
		fmt.Sprintf("The material was gathered to support %s.", purpose),
		"Individual source summaries provide further detail on each point.",
		"Official sources were prioritized during collection and ranking.",
	}
}
