package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/draftdesk/research-orchestrator/internal/circuitbreaker"
	"github.com/draftdesk/research-orchestrator/internal/tracing"
)

const defaultEndpoint = "https://api.bing.microsoft.com/v7.0/search"

// BingConfig holds the Bing Web Search v7 client settings.
type BingConfig struct {
	APIKey    string
	Endpoint  string
	UserAgent string
	Timeout   time.Duration
}

// BingClient implements Provider against the Bing Web Search v7 API.
type BingClient struct {
	cfg     BingConfig
	http    *http.Client
	breaker *circuitbreaker.Breaker
	logger  *zap.Logger
}

// NewBingClient builds a BingClient. The API key is required: a handler
// without credentials cannot degrade, it must refuse to start.
func NewBingClient(cfg BingConfig, logger *zap.Logger) (*BingClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("bing search API key is required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (compatible; DraftdeskResearchBot/1.0)"
	}
	return &BingClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: circuitbreaker.New("websearch", circuitbreaker.DefaultConfig(), logger),
		logger:  logger,
	}, nil
}

// bingResponse is the subset of the v7 payload the handler consumes.
type bingResponse struct {
	WebPages struct {
		Value []struct {
			Name    string `json:"name"`
			URL     string `json:"url"`
			Snippet string `json:"snippet"`
		} `json:"value"`
	} `json:"webPages"`
}

// Search issues one provider query. Strict safe-search and raw text format
// keep the payload predictable for downstream parsing.
func (c *BingClient) Search(ctx context.Context, req Request) ([]Item, error) {
	count := req.Count
	if count <= 0 {
		count = 10
	}
	market := req.Market
	if market == "" {
		market = "en-CA"
	}

	params := url.Values{}
	params.Set("q", req.Query)
	params.Set("count", strconv.Itoa(count))
	params.Set("offset", "0")
	params.Set("mkt", market)
	params.Set("safeSearch", "Strict")
	params.Set("textDecorations", "false")
	params.Set("textFormat", "Raw")

	var items []Item
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		ctx, span := tracing.StartHTTPSpan(ctx, http.MethodGet, c.cfg.Endpoint)
		defer span.End()

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+"?"+params.Encode(), nil)
		if err != nil {
			return fmt.Errorf("build search request: %w", err)
		}
		httpReq.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.APIKey)
		httpReq.Header.Set("User-Agent", c.cfg.UserAgent)
		tracing.InjectTraceparent(ctx, httpReq)

		resp, err := c.http.Do(httpReq)
		if err != nil {
			return fmt.Errorf("search request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("search provider returned status %d", resp.StatusCode)
		}

		var payload bingResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return fmt.Errorf("decode search response: %w", err)
		}

		items = make([]Item, 0, len(payload.WebPages.Value))
		for _, v := range payload.WebPages.Value {
			items = append(items, Item{Title: v.Name, URL: v.URL, Snippet: v.Snippet})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
