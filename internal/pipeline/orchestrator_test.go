package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/draftdesk/research-orchestrator/internal/config"
	"github.com/draftdesk/research-orchestrator/internal/extract"
	"github.com/draftdesk/research-orchestrator/internal/llm"
	"github.com/draftdesk/research-orchestrator/internal/models"
	"github.com/draftdesk/research-orchestrator/internal/queries"
	"github.com/draftdesk/research-orchestrator/internal/search"
	"github.com/draftdesk/research-orchestrator/internal/summarize"
	"github.com/draftdesk/research-orchestrator/internal/websearch"
)

type fakeCompleter struct {
	reply string
	err   error
}

func (f *fakeCompleter) Complete(_ context.Context, _ llm.CompletionRequest) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeProvider struct {
	items []websearch.Item
	err   error
}

func (f *fakeProvider) Search(_ context.Context, _ websearch.Request) ([]websearch.Item, error) {
	return f.items, f.err
}

// useTestProfile installs a profile that trusts the httptest host and
// restores the default when the test ends.
func useTestProfile(t *testing.T, serverURL string) {
	t.Helper()
	u, err := url.Parse(serverURL)
	require.NoError(t, err)

	p := config.DefaultSourceProfile()
	p.SiteFilter = ""
	p.TrustTiers.National = append(p.TrustTiers.National, u.Hostname())
	// Loopback hosts are digit-heavy; keep only the keyword and TLD checks.
	p.Spam = config.SpamHeuristics{
		Keywords:       []string{"casino"},
		SuspiciousTLDs: []string{".xyz"},
	}
	config.SetActiveProfile(p)
	t.Cleanup(func() { config.SetActiveProfile(config.DefaultSourceProfile()) })
}

func newTestOrchestrator(provider websearch.Provider, queryC, summaryC llm.Completer) *Orchestrator {
	logger := zap.NewNop()
	return NewOrchestrator(
		queries.NewGenerator(queryC, "gpt-4o-mini", logger),
		search.NewHandler(provider, search.Config{}, logger),
		extract.NewExtractor(extract.Config{FetchTimeout: 5 * time.Second}, logger),
		summarize.NewSummarizer(summaryC, summarize.Config{BatchPause: time.Millisecond}, logger),
		logger,
	)
}

func servePage(t *testing.T, words int) *httptest.Server {
	t.Helper()
	var b strings.Builder
	b.WriteString("policy government framework report. ")
	for i := 0; i < words; i++ {
		fmt.Fprintf(&b, "finding%d ", i)
	}
	body := fmt.Sprintf(
		`<html><head><title>Program Review</title></head><body><main>%s</main></body></html>`,
		b.String())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

const summaryReply = "• First key finding from the source.\n" +
	"• Second key finding from the source.\n" +
	"• Third key finding from the source.\n" +
	"• Fourth key finding from the source.\n" +
	"• Fifth key finding from the source."

func TestRunPipelineFiltersUntrustedSources(t *testing.T) {
	srv := servePage(t, 200)
	useTestProfile(t, srv.URL)

	provider := &fakeProvider{items: []websearch.Item{
		{Title: "Casino winnings guide", URL: "https://big-casino.xyz/win"},
		{Title: "Program review", URL: srv.URL + "/review"},
		{Title: "Unknown blog", URL: "https://randomblog.example.net/post"},
	}}
	o := newTestOrchestrator(provider,
		&fakeCompleter{err: errors.New("queries offline")},
		&fakeCompleter{reply: summaryReply},
	)

	result, err := o.RunPipeline(context.Background(), Request{
		Subject: "transit funding", Purpose: "a briefing note",
	})

	require.NoError(t, err)
	require.NoError(t, result.Queries.Validate())
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "Program Review", result.Sources[0].Title)
	assert.Contains(t, result.Sources[0].URL, srv.URL)
	assert.Len(t, result.Sources[0].Bullets, 4)
	assert.GreaterOrEqual(t, len(result.Synthesis), 5)
	assert.LessOrEqual(t, len(result.Synthesis), 7)
	assert.GreaterOrEqual(t, result.ElapsedSeconds, 0.0)
}

func TestRunPipelineExcludesThinContent(t *testing.T) {
	// 50 words clears the 200-char extraction floor but fails the
	// 100-word quality gate.
	srv := servePage(t, 46)
	useTestProfile(t, srv.URL)

	provider := &fakeProvider{items: []websearch.Item{
		{Title: "Thin page", URL: srv.URL + "/thin"},
	}}
	o := newTestOrchestrator(provider,
		&fakeCompleter{err: errors.New("queries offline")},
		&fakeCompleter{reply: summaryReply},
	)

	result, err := o.RunPipeline(context.Background(), Request{
		Subject: "transit funding", Purpose: "a briefing note",
	})

	require.NoError(t, err)
	assert.Empty(t, result.Sources)
	require.Len(t, result.Synthesis, 5)
	assert.Contains(t, result.Synthesis[0], "0 sources")
}

func TestRunPipelineSurvivesTotalModelOutage(t *testing.T) {
	srv := servePage(t, 200)
	useTestProfile(t, srv.URL)

	provider := &fakeProvider{items: []websearch.Item{
		{Title: "Program review", URL: srv.URL + "/review"},
	}}
	down := &fakeCompleter{err: errors.New("model backend down")}
	o := newTestOrchestrator(provider, down, down)

	result, err := o.RunPipeline(context.Background(), Request{
		Subject: "transit funding", Purpose: "a briefing note", Jurisdiction: "Ontario",
	})

	require.NoError(t, err)
	require.NoError(t, result.Queries.Validate())
	assert.Contains(t, result.Queries[0].Text, "transit funding")

	require.Len(t, result.Sources, 1)
	require.Len(t, result.Sources[0].Bullets, 1)
	assert.Contains(t, result.Sources[0].Bullets[0], "Summary unavailable")

	require.Len(t, result.Synthesis, 5)
	assert.Contains(t, result.Synthesis[0], "1 sources")
}

func TestRunPipelineSearchOutage(t *testing.T) {
	provider := &fakeProvider{err: errors.New("search provider down")}
	o := newTestOrchestrator(provider,
		&fakeCompleter{err: errors.New("queries offline")},
		&fakeCompleter{reply: summaryReply},
	)

	result, err := o.RunPipeline(context.Background(), Request{
		Subject: "transit funding", Purpose: "a briefing note",
	})

	require.NoError(t, err)
	require.NoError(t, result.Queries.Validate())
	assert.Empty(t, result.Sources)
	require.Len(t, result.Synthesis, 5)
}

func TestGenerateQueriesOnly(t *testing.T) {
	o := newTestOrchestrator(&fakeProvider{},
		&fakeCompleter{err: errors.New("offline")},
		&fakeCompleter{reply: summaryReply},
	)

	qs := o.GenerateQueries(context.Background(), Request{
		Subject: "water quality", Purpose: "a report",
	})

	require.NoError(t, qs.Validate())
	for i, cat := range models.Categories {
		assert.Equal(t, cat, qs[i].Category)
	}
}
