package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ReachabilityChecker verifies that an HTTP dependency answers at all. Any
// HTTP status counts as reachable; auth failures still prove the endpoint
// is up, which is all a probe needs to know.
type ReachabilityChecker struct {
	name     string
	url      string
	critical bool
	client   *http.Client
	logger   *zap.Logger
	timeout  time.Duration
}

// NewReachabilityChecker creates a checker that probes the given URL.
func NewReachabilityChecker(name, url string, critical bool, logger *zap.Logger) *ReachabilityChecker {
	timeout := 5 * time.Second
	return &ReachabilityChecker{
		name:     name,
		url:      url,
		critical: critical,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
		timeout:  timeout,
	}
}

func (c *ReachabilityChecker) Name() string           { return c.name }
func (c *ReachabilityChecker) IsCritical() bool       { return c.critical }
func (c *ReachabilityChecker) Timeout() time.Duration { return c.timeout }

func (c *ReachabilityChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{
		Component: c.name,
		Critical:  c.critical,
		Timestamp: start,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.url, nil)
	if err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
		result.Duration = time.Since(start)
		return result
	}

	resp, err := c.client.Do(req)
	result.Duration = time.Since(start)
	if err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
		result.Message = fmt.Sprintf("%s unreachable", c.name)
		return result
	}
	resp.Body.Close()

	if result.Duration > 2*time.Second {
		result.Status = StatusDegraded
		result.Message = fmt.Sprintf("%s responding slowly", c.name)
	} else {
		result.Status = StatusHealthy
		result.Message = fmt.Sprintf("%s reachable", c.name)
	}
	result.Details = map[string]any{
		"latency_ms":  result.Duration.Milliseconds(),
		"http_status": resp.StatusCode,
	}
	return result
}

// CredentialChecker verifies required credentials are still configured.
// Creds only change with a restart, so this check is cheap and local.
type CredentialChecker struct {
	name     string
	validate func() error
}

func NewCredentialChecker(name string, validate func() error) *CredentialChecker {
	return &CredentialChecker{name: name, validate: validate}
}

func (c *CredentialChecker) Name() string           { return c.name }
func (c *CredentialChecker) IsCritical() bool       { return true }
func (c *CredentialChecker) Timeout() time.Duration { return time.Second }

func (c *CredentialChecker) Check(_ context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{
		Component: c.name,
		Critical:  true,
		Timestamp: start,
		Duration:  time.Since(start),
	}
	if err := c.validate(); err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
		result.Message = "required credentials missing"
		return result
	}
	result.Status = StatusHealthy
	result.Message = "credentials configured"
	return result
}

// CustomChecker wraps an arbitrary check function.
type CustomChecker struct {
	name     string
	critical bool
	timeout  time.Duration
	checkFn  func(ctx context.Context) CheckResult
}

func NewCustomChecker(name string, critical bool, timeout time.Duration, checkFn func(ctx context.Context) CheckResult) *CustomChecker {
	return &CustomChecker{name: name, critical: critical, timeout: timeout, checkFn: checkFn}
}

func (c *CustomChecker) Name() string           { return c.name }
func (c *CustomChecker) IsCritical() bool       { return c.critical }
func (c *CustomChecker) Timeout() time.Duration { return c.timeout }

func (c *CustomChecker) Check(ctx context.Context) CheckResult {
	return c.checkFn(ctx)
}
