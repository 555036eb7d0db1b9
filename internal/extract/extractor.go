package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/draftdesk/research-orchestrator/internal/config"
	"github.com/draftdesk/research-orchestrator/internal/metrics"
	"github.com/draftdesk/research-orchestrator/internal/models"
)

// Extraction engines. The selector cascade is the default; readability is a
// config-gated alternative for pages with unusual markup.
const (
	EngineSelectors   = "selectors"
	EngineReadability = "readability"
)

const (
	maxBodyBytes  = 10 << 20 // refuse to buffer more than 10 MiB of HTML
	maxTitleRunes = 100
)

// Elements that never carry readable content.
const strippedSelectors = "script, style, nav, header, footer, aside, form, iframe, noscript, svg, canvas, advertisement, ads"

// Page chrome removed from <body> before the full-body fallback.
const chromeSelectors = "nav, .nav, .sidebar, .menu, .navigation, .breadcrumbs, .footer, .header"

// contentSelectors is the cascade tried in order; the first selector whose
// element has any text wins.
var contentSelectors = []string{
	"main",
	"article",
	`[role="main"]`,
	".content",
	"#content",
	".main-content",
	".article-content",
	".post-content",
	".entry-content",
	".page-content",
}

// Config tunes page fetching and content extraction.
type Config struct {
	FetchTimeout   time.Duration
	MaxConcurrency int
	MinLength      int
	MaxLength      int
	Engine         string
	UserAgent      string
}

// Extractor fetches result pages and reduces them to clean readable text.
type Extractor struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

func NewExtractor(cfg Config, logger *zap.Logger) *Extractor {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 8
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = 200
	}
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = 50000
	}
	if cfg.Engine == "" {
		cfg.Engine = EngineSelectors
	}
	return &Extractor{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.FetchTimeout},
		logger: logger,
	}
}

// ExtractAll fetches every result concurrently, bounded by MaxConcurrency.
// A page that cannot be fetched or yields too little text is skipped; the
// returned documents preserve result order.
func (e *Extractor) ExtractAll(ctx context.Context, results []models.SearchResult) []models.ExtractedContent {
	docs := make([]*models.ExtractedContent, len(results))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.MaxConcurrency)
	for i, r := range results {
		g.Go(func() error {
			doc, err := e.Extract(gctx, r)
			if err != nil {
				e.logger.Debug("Source skipped",
					zap.String("url", r.URL),
					zap.Error(err))
				return nil
			}
			docs[i] = doc
			return nil
		})
	}
	_ = g.Wait()

	out := make([]models.ExtractedContent, 0, len(results))
	for _, d := range docs {
		if d != nil {
			out = append(out, *d)
		}
	}
	return out
}

// Extract fetches a single result page and returns its cleaned content, or
// an error when the page is unreachable, not HTML, or too thin to use.
func (e *Extractor) Extract(ctx context.Context, result models.SearchResult) (*models.ExtractedContent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, result.URL, nil)
	if err != nil {
		metrics.PageFetches.WithLabelValues("fetch_error").Inc()
		return nil, fmt.Errorf("build request for %s: %w", result.URL, err)
	}
	req.Header.Set("User-Agent", e.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.client.Do(req)
	if err != nil {
		metrics.PageFetches.WithLabelValues("fetch_error").Inc()
		return nil, fmt.Errorf("fetch %s: %w", result.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.PageFetches.WithLabelValues("http_error").Inc()
		return nil, fmt.Errorf("fetch %s: status %d", result.URL, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" &&
		!strings.Contains(ct, "text/html") && !strings.Contains(ct, "application/xhtml") {
		metrics.PageFetches.WithLabelValues("non_html").Inc()
		return nil, fmt.Errorf("fetch %s: unsupported content type %q", result.URL, ct)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.PageFetches.WithLabelValues("fetch_error").Inc()
		return nil, fmt.Errorf("read %s: %w", result.URL, err)
	}
	metrics.PageFetches.WithLabelValues("ok").Inc()

	var title, text string
	if e.cfg.Engine == EngineReadability {
		title, text, err = extractReadable(body, result.URL)
	} else {
		title, text, err = extractSelectors(body)
	}
	if err != nil {
		return nil, err
	}

	text = CleanText(text, config.ActiveProfile(), e.cfg.MaxLength)
	if len(text) < e.cfg.MinLength {
		return nil, fmt.Errorf("content too short (%d chars) at %s", len(text), result.URL)
	}
	if title == "" {
		title = result.Title
	}

	doc := models.NewExtractedContent(title, result.URL, text, result.Domain, time.Now().UTC())
	return &doc, nil
}

// extractSelectors strips non-content elements and walks the selector
// cascade, falling back to the de-chromed <body> when nothing matches.
func extractSelectors(body []byte) (title, text string, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", "", fmt.Errorf("parse html: %w", err)
	}
	for _, n := range doc.Nodes {
		removeComments(n)
	}
	doc.Find(strippedSelectors).Remove()

	title = normalizeTitle(doc.Find("title").First().Text())

	for _, sel := range contentSelectors {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		if t := s.Text(); strings.TrimSpace(t) != "" {
			return title, t, nil
		}
	}

	pageBody := doc.Find("body").First()
	pageBody.Find(chromeSelectors).Remove()
	return title, pageBody.Text(), nil
}

func extractReadable(body []byte, pageURL string) (string, string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", "", fmt.Errorf("parse url %s: %w", pageURL, err)
	}
	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return "", "", fmt.Errorf("readability parse %s: %w", pageURL, err)
	}
	return normalizeTitle(article.Title), article.TextContent, nil
}

func removeComments(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.CommentNode {
			n.RemoveChild(c)
		} else {
			removeComments(c)
		}
		c = next
	}
}

func normalizeTitle(title string) string {
	title = strings.Join(strings.Fields(title), " ")
	if utf8.RuneCountInString(title) > maxTitleRunes {
		title = string([]rune(title)[:maxTitleRunes]) + "..."
	}
	return title
}
