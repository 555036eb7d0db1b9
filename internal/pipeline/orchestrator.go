package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/draftdesk/research-orchestrator/internal/config"
	"github.com/draftdesk/research-orchestrator/internal/extract"
	"github.com/draftdesk/research-orchestrator/internal/metrics"
	"github.com/draftdesk/research-orchestrator/internal/models"
	"github.com/draftdesk/research-orchestrator/internal/queries"
	"github.com/draftdesk/research-orchestrator/internal/search"
	"github.com/draftdesk/research-orchestrator/internal/summarize"
	"github.com/draftdesk/research-orchestrator/internal/tracing"
)

// Request describes one research brief.
type Request struct {
	Subject      string `json:"subject"`
	Purpose      string `json:"purpose"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
}

// Orchestrator runs the research pipeline: query generation, web search,
// content extraction, per-source summarization, and cross-source synthesis.
// Each stage completes before the next starts; stage degradation narrows
// the output but never aborts the run.
type Orchestrator struct {
	generator  *queries.Generator
	searcher   *search.Handler
	extractor  *extract.Extractor
	summarizer *summarize.Summarizer
	logger     *zap.Logger
}

func NewOrchestrator(
	generator *queries.Generator,
	searcher *search.Handler,
	extractor *extract.Extractor,
	summarizer *summarize.Summarizer,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		generator:  generator,
		searcher:   searcher,
		extractor:  extractor,
		summarizer: summarizer,
		logger:     logger,
	}
}

// GenerateQueries runs only the first stage, for callers that want to
// preview queries without paying for a full research run.
func (o *Orchestrator) GenerateQueries(ctx context.Context, req Request) models.QuerySet {
	return o.generator.Generate(ctx, queries.Request{
		Subject:      req.Subject,
		Purpose:      req.Purpose,
		Jurisdiction: req.Jurisdiction,
	})
}

// RunPipeline executes the full pipeline and always returns a structurally
// complete BriefResult: three queries, zero or more sources, and a
// non-empty synthesis. The error return is reserved for internal faults;
// dependency outages degrade the result instead.
func (o *Orchestrator) RunPipeline(ctx context.Context, req Request) (models.BriefResult, error) {
	runID := uuid.New().String()
	logger := o.logger.With(zap.String("run_id", runID))
	start := time.Now()

	ctx, span := tracing.StartSpan(ctx, "pipeline.run")
	defer span.End()

	logger.Info("Pipeline started",
		zap.String("subject", req.Subject),
		zap.String("purpose", req.Purpose))

	querySet := o.stageQueries(ctx, logger, req)
	results := o.stageSearch(ctx, logger, querySet)
	docs := o.stageExtract(ctx, logger, results)
	summaries := o.stageSummarize(ctx, logger, docs)
	synthesis := o.stageSynthesize(ctx, logger, summaries, req)

	elapsed := time.Since(start)
	metrics.PipelineRuns.WithLabelValues("ok").Inc()
	metrics.PipelineDuration.Observe(elapsed.Seconds())
	logger.Info("Pipeline finished",
		zap.Int("sources", len(summaries)),
		zap.Int("synthesis_bullets", len(synthesis)),
		zap.Duration("elapsed", elapsed))

	return models.BriefResult{
		Queries:        querySet,
		Sources:        summaries,
		Synthesis:      synthesis,
		ElapsedSeconds: elapsed.Seconds(),
	}, nil
}

func (o *Orchestrator) stageQueries(ctx context.Context, logger *zap.Logger, req Request) models.QuerySet {
	ctx, span := tracing.StartSpan(ctx, "pipeline.queries")
	defer span.End()
	defer observeStage("queries", time.Now())

	qs := o.GenerateQueries(ctx, req)
	logger.Info("Queries generated",
		zap.String("background", qs[0].Text),
		zap.String("recent", qs[1].Text),
		zap.String("policy", qs[2].Text))
	return qs
}

func (o *Orchestrator) stageSearch(ctx context.Context, logger *zap.Logger, qs models.QuerySet) []models.SearchResult {
	ctx, span := tracing.StartSpan(ctx, "pipeline.search")
	defer span.End()
	defer observeStage("search", time.Now())

	results := o.searcher.Search(ctx, qs[:])
	logger.Info("Search complete", zap.Int("results", len(results)))
	return results
}

func (o *Orchestrator) stageExtract(ctx context.Context, logger *zap.Logger, results []models.SearchResult) []models.ExtractedContent {
	ctx, span := tracing.StartSpan(ctx, "pipeline.extract")
	defer span.End()
	defer observeStage("extract", time.Now())

	docs := o.extractor.ExtractAll(ctx, results)
	kept := extract.ApplyGate(docs, config.ActiveProfile(), logger)
	logger.Info("Extraction complete",
		zap.Int("fetched", len(docs)),
		zap.Int("passed_gate", len(kept)))
	return kept
}

func (o *Orchestrator) stageSummarize(ctx context.Context, logger *zap.Logger, docs []models.ExtractedContent) []models.SourceSummary {
	ctx, span := tracing.StartSpan(ctx, "pipeline.summarize")
	defer span.End()
	defer observeStage("summarize", time.Now())

	summaries := o.summarizer.SummarizeSources(ctx, docs)
	logger.Info("Summarization complete", zap.Int("sources", len(summaries)))
	return summaries
}

func (o *Orchestrator) stageSynthesize(ctx context.Context, logger *zap.Logger, summaries []models.SourceSummary, req Request) models.Synthesis {
	ctx, span := tracing.StartSpan(ctx, "pipeline.synthesize")
	defer span.End()
	defer observeStage("synthesize", time.Now())

	synthesis := o.summarizer.Synthesize(ctx, summaries, req.Subject, req.Purpose)
	logger.Info("Synthesis complete", zap.Int("bullets", len(synthesis)))
	return synthesis
}

func observeStage(stage string, start time.Time) {
	metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
