package summarize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/draftdesk/research-orchestrator/internal/llm"
	"github.com/draftdesk/research-orchestrator/internal/metrics"
	"github.com/draftdesk/research-orchestrator/internal/models"
)

const sourceSystemPrompt = "You are a policy analyst preparing research notes for government document drafters. Summarize source material into concise, factual bullet points. Reply with bullet points only, one per line."

const synthesisSystemPrompt = "You are a policy analyst synthesizing research findings for government document drafters. Group related points into themes, prioritize recent developments and official positions, and stay strictly factual. Reply with bullet points only, one per line."

// Config tunes the summarization stage.
type Config struct {
	Model      string
	ChunkSize  int
	BatchSize  int
	BatchPause time.Duration
}

// Summarizer turns extracted documents into per-source bullet summaries and
// a cross-source synthesis. Sources are processed in batches to keep
// request pressure on the completion backend bounded.
type Summarizer struct {
	completer llm.Completer
	cfg       Config
	limiter   *rate.Limiter
	logger    *zap.Logger
}

func NewSummarizer(completer llm.Completer, cfg Config, logger *zap.Logger) *Summarizer {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 4000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if cfg.BatchPause <= 0 {
		cfg.BatchPause = time.Second
	}
	return &Summarizer{
		completer: completer,
		cfg:       cfg,
		limiter:   rate.NewLimiter(rate.Every(cfg.BatchPause), 1),
		logger:    logger,
	}
}

// SummarizeSources produces one summary per document, in document order.
// Documents within a batch are summarized concurrently; the limiter spaces
// batches out. A source whose model calls fail keeps its place with
// fallback bullets, so the output length always equals the input length.
func (s *Summarizer) SummarizeSources(ctx context.Context, contents []models.ExtractedContent) []models.SourceSummary {
	summaries := make([]models.SourceSummary, len(contents))

	for start := 0; start < len(contents); start += s.cfg.BatchSize {
		// On a cancelled context the per-source calls below fail fast and
		// every remaining source gets fallback bullets.
		_ = s.limiter.Wait(ctx)

		end := min(start+s.cfg.BatchSize, len(contents))
		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error {
				summaries[i] = s.summarizeSource(gctx, contents[i])
				return nil
			})
		}
		_ = g.Wait()
	}
	return summaries
}

func (s *Summarizer) summarizeSource(ctx context.Context, doc models.ExtractedContent) models.SourceSummary {
	bullets, err := s.sourceBullets(ctx, doc)
	if err != nil {
		metrics.SourcesSummarized.WithLabelValues("fallback").Inc()
		s.logger.Warn("Source summarization failed",
			zap.String("url", doc.URL),
			zap.Error(err))
		bullets = fallbackSourceBullets(doc.Domain)
	} else {
		metrics.SourcesSummarized.WithLabelValues("ok").Inc()
	}
	return models.SourceSummary{
		Title:      doc.Title,
		URL:        doc.URL,
		Domain:     doc.Domain,
		Bullets:    bullets,
		AccessedAt: doc.ExtractedAt,
	}
}

// sourceBullets summarizes one document: a single chunk goes straight to a
// 3-4 bullet call, multi-chunk documents get per-chunk calls followed by a
// consolidation pass.
func (s *Summarizer) sourceBullets(ctx context.Context, doc models.ExtractedContent) ([]string, error) {
	chunks := ChunkText(doc.Content, s.cfg.ChunkSize)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("empty content for %s", doc.URL)
	}

	if len(chunks) == 1 {
		reply, err := s.complete(ctx, sourceSystemPrompt, summaryPrompt(doc.Title, chunks[0]), 400)
		if err != nil {
			return nil, err
		}
		return normalizeSourceBullets(ParseBullets(reply), doc.Domain), nil
	}

	var collected []string
	for i, chunk := range chunks {
		reply, err := s.complete(ctx, sourceSystemPrompt, chunkPrompt(doc.Title, i+1, len(chunks), chunk), 400)
		if err != nil {
			return nil, err
		}
		collected = append(collected, ParseBullets(reply)...)
	}
	reply, err := s.complete(ctx, sourceSystemPrompt, consolidatePrompt(doc.Title, collected), 400)
	if err != nil {
		return nil, err
	}
	return normalizeSourceBullets(ParseBullets(reply), doc.Domain), nil
}

// Synthesize merges per-source bullets into a 5-7 statement brief. It never
// returns an empty result: an empty summary list or an unusable model reply
// yields the fixed fallback brief.
func (s *Summarizer) Synthesize(ctx context.Context, summaries []models.SourceSummary, subject, purpose string) models.Synthesis {
	if len(summaries) == 0 {
		metrics.SynthesisRuns.WithLabelValues("fallback").Inc()
		return fallbackSynthesis(subject, purpose, 0)
	}

	tagged := make([]string, 0, len(summaries)*maxSourceBullets)
	for _, sum := range summaries {
		for _, b := range sum.Bullets {
			tagged = append(tagged, fmt.Sprintf("[%s] %s", sum.Domain, b))
		}
	}

	reply, err := s.complete(ctx, synthesisSystemPrompt, synthesisPrompt(subject, purpose, tagged), 700)
	if err != nil {
		metrics.SynthesisRuns.WithLabelValues("fallback").Inc()
		return fallbackSynthesis(subject, purpose, len(summaries))
	}

	bullets := ParseBullets(reply)
	if len(bullets) == 0 {
		metrics.SynthesisRuns.WithLabelValues("fallback").Inc()
		return fallbackSynthesis(subject, purpose, len(summaries))
	}

	if len(bullets) > maxSynthesis {
		bullets = bullets[:maxSynthesis]
	}
	for _, pad := range synthesisPadding(subject, purpose, len(summaries)) {
		if len(bullets) >= minSynthesis {
			break
		}
		bullets = append(bullets, pad)
	}
	metrics.SynthesisRuns.WithLabelValues("ok").Inc()
	return bullets
}

func (s *Summarizer) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	return s.completer.Complete(ctx, llm.CompletionRequest{
		Model:       s.cfg.Model,
		System:      system,
		User:        user,
		Temperature: 0.3,
		MaxTokens:   maxTokens,
	})
}

func summaryPrompt(title, content string) string {
	return fmt.Sprintf(
		"Summarize the following source in 3-4 bullet points covering its key facts, figures, and positions.\n\nTitle: %s\n\nContent:\n%s",
		title, content)
}

func chunkPrompt(title string, part, total int, content string) string {
	return fmt.Sprintf(
		"Summarize part %d of %d of the following source in 2-3 bullet points covering its key facts, figures, and positions.\n\nTitle: %s\n\nContent:\n%s",
		part, total, title, content)
}

func consolidatePrompt(title string, bullets []string) string {
	return fmt.Sprintf(
		"Consolidate the following partial summaries of one source into 3-4 bullet points, removing repetition.\n\nTitle: %s\n\nPartial summaries:\n%s",
		title, strings.Join(bullets, "\n"))
}

func synthesisPrompt(subject, purpose string, tagged []string) string {
	return fmt.Sprintf(
		"Synthesize the research findings below into 5-7 thematic bullet points of 2-3 sentences each. Group related points, prioritize recent developments and official government positions, and keep every statement factual.\n\nSubject: %s\nPurpose: %s\n\nFindings (tagged by source domain):\n%s",
		subject, purpose, strings.Join(tagged, "\n"))
}
