package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/wonny/dividend-seeker/internal/contracts"
	"github.com/wonny/dividend-seeker/pkg/config"
	"github.com/wonny/dividend-seeker/pkg/httputil"
	"github.com/wonny/dividend-seeker/pkg/logger"
	"github.com/wonny/dividend-seeker/pkg/redis"
)

const (
	crumbKey = "crumb"
	crumbTTL = 30 * time.Minute
)

// Client fetches per-ticker quotes from Yahoo Finance quoteSummary
// ⭐ SSOT: Yahoo Finance 호출은 이 클라이언트에서만
// FetchQuote makes one attempt; retry policy belongs to the scan orchestrator.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cfg        config.YahooConfig

	// crumb + cookie session
	session   *cache.Cache
	sessionMu sync.Mutex
}

// NewClient creates a Yahoo client over an HTTP client that does not retry
func NewClient(cfg config.YahooConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("yahoo"),
		cfg:        cfg,
		session:    cache.New(crumbTTL, time.Hour),
	}
}

// NewHTTPClient builds the HTTP client used for Yahoo: retry off, per-process
// token bucket, optional Redis window shared with other scanner processes.
func NewHTTPClient(cfg *config.Config, log *logger.Logger, shared *redis.RateLimiter) *httputil.Client {
	client := httputil.NewWithTimeout(cfg, log, cfg.Scan.FetchTimeout).
		DisableRetry().
		WithRateLimit(cfg.Yahoo.RateLimit)

	if shared != nil {
		client.WithSharedRateLimiter(shared, redis.YahooRateLimit(cfg.Yahoo.RateLimit))
	}
	return client
}

// FetchQuote returns the RawQuote of one ticker
// Errors are *contracts.FetchError of kind DataUnavailable, ProviderError or MalformedData.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (*contracts.RawQuote, error) {
	crumb, err := c.crumb(ctx)
	if err != nil {
		return nil, contracts.NewFetchError(symbol, contracts.ErrProviderError, err)
	}

	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s&crumb=%s",
		c.cfg.BaseURL, url.PathEscape(symbol), summaryModules, url.QueryEscape(crumb))

	resp, err := c.httpClient.Get(ctx, endpoint)
	if err != nil {
		return nil, contracts.NewFetchError(symbol, contracts.ErrProviderError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, contracts.NewFetchError(symbol, contracts.ErrProviderError, fmt.Errorf("read body: %w", err))
	}

	if kind := classifyStatus(resp.StatusCode); kind != nil {
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			// 세션 만료: 다음 시도에서 crumb 재발급
			c.invalidateCrumb()
		}
		return nil, contracts.NewFetchError(symbol, kind, fmt.Errorf("status %d", resp.StatusCode))
	}

	var envelope quoteSummaryResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, contracts.NewFetchError(symbol, contracts.ErrMalformedData, fmt.Errorf("decode quoteSummary: %w", err))
	}

	if e := envelope.QuoteSummary.Error; e != nil {
		if strings.EqualFold(e.Code, "Not Found") {
			return nil, contracts.NewFetchError(symbol, contracts.ErrDataUnavailable, errors.New(e.Description))
		}
		return nil, contracts.NewFetchError(symbol, contracts.ErrProviderError, fmt.Errorf("%s: %s", e.Code, e.Description))
	}

	if len(envelope.QuoteSummary.Result) == 0 {
		return nil, contracts.NewFetchError(symbol, contracts.ErrDataUnavailable, errors.New("empty result"))
	}

	quote, err := envelope.QuoteSummary.Result[0].toRawQuote(symbol)
	if err != nil {
		return nil, contracts.NewFetchError(symbol, contracts.ErrMalformedData, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": symbol,
		"price":  quote.Price,
		"yield":  contracts.Value(quote.DividendYield),
	}).Debug("Quote fetched")

	return quote, nil
}

// classifyStatus maps a non-200 status to an error kind; nil means OK
func classifyStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return contracts.ErrDataUnavailable
	default:
		// 401/403 (세션), 429, 5xx 및 기타 상태는 일시적 오류로 취급
		return contracts.ErrProviderError
	}
}

// crumb returns the cached crumb, establishing a session when needed
func (c *Client) crumb(ctx context.Context) (string, error) {
	if v, ok := c.session.Get(crumbKey); ok {
		return v.(string), nil
	}

	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()

	// Double-check after acquiring lock
	if v, ok := c.session.Get(crumbKey); ok {
		return v.(string), nil
	}

	// 쿠키 발급용 요청: 상태 코드와 무관하게 cookie jar에 저장됨
	if c.cfg.SessionURL != "" {
		if resp, err := c.httpClient.Get(ctx, c.cfg.SessionURL); err == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		} else {
			c.logger.WithError(err).Debug("Session cookie request failed")
		}
	}

	resp, err := c.httpClient.Get(ctx, c.cfg.BaseURL+"/v1/test/getcrumb")
	if err != nil {
		return "", fmt.Errorf("crumb request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read crumb: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("crumb request failed with status %d", resp.StatusCode)
	}

	crumb := strings.TrimSpace(string(body))
	if crumb == "" || strings.ContainsAny(crumb, "<{") {
		return "", errors.New("crumb response was empty or not a crumb")
	}

	c.session.Set(crumbKey, crumb, cache.DefaultExpiration)
	c.logger.Info("Yahoo session initialized")
	return crumb, nil
}

func (c *Client) invalidateCrumb() {
	c.session.Delete(crumbKey)
}
