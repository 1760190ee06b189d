package sharedhttp

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/avast/retry-go"
	"github.com/rs/zerolog"
)

const (
	UserAgent      = "mangadex-dl"
	DefaultTimeout = 60 * time.Second

	defaultRetryAfter = 60 * time.Second
)

var Transport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	ForceAttemptHTTP2:     true,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   10,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ReadBufferSize:        65536,
	WriteBufferSize:       65536,
	TLSClientConfig: &tls.Config{
		MinVersion: tls.VersionTLS12,
	},
}

// CheckStatusCode classifies a non-200 status. Errors wrapped with
// retry.Unrecoverable should not be retried by callers that retry.
func CheckStatusCode(statusCode int) error {
	switch statusCode {
	case http.StatusOK:

	case http.StatusUnauthorized, http.StatusForbidden:
		return retry.Unrecoverable(fmt.Errorf("unauthorized: status code %d", statusCode))

	case http.StatusMethodNotAllowed:
		return retry.Unrecoverable(fmt.Errorf("method not allowed: status code %d", statusCode))

	case http.StatusNotFound:
		return fmt.Errorf("not found: status code %d", statusCode)

	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusInternalServerError:
		return fmt.Errorf("server error: status code %d", statusCode)

	default:
		return retry.Unrecoverable(fmt.Errorf("unexpected status code %d", statusCode))
	}

	return nil
}

// Client performs GET requests against MangaDex and its image servers. A 429
// response blocks until the server's rate limit window resets and the request
// is issued again, for as long as the server keeps answering 429.
type Client struct {
	HTTP *http.Client
	Log  zerolog.Logger

	// Sleep and Now are replaced in tests.
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

func NewClient(log zerolog.Logger) *Client {
	return &Client{
		HTTP: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: Transport,
		},
		Log:   log,
		Sleep: sleepContext,
		Now:   time.Now,
	}
}

// Get returns the response for url with a 200 status. The caller closes the body.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("User-Agent", UserAgent)

		resp, err := c.HTTP.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			wait := retryAfter(resp.Header, c.Now())
			drain(resp)

			c.Log.Warn().Str("url", url).Msgf("exceeded rate-limit, waiting %s", wait)

			if err := c.Sleep(ctx, wait); err != nil {
				return nil, err
			}

			continue
		}

		// returned unwrapped, retry.IsRecoverable does not look through wrapping
		if err := CheckStatusCode(resp.StatusCode); err != nil {
			drain(resp)
			return nil, err
		}

		if err := c.Sleep(ctx, throttle(resp.Header)); err != nil {
			resp.Body.Close()
			return nil, err
		}

		return resp, nil
	}
}

// retryAfter reads X-RateLimit-Retry-After, a unix timestamp in seconds.
func retryAfter(header http.Header, now time.Time) time.Duration {
	raw := header.Get("X-RateLimit-Retry-After")
	if raw == "" {
		return defaultRetryAfter
	}

	at, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return defaultRetryAfter
	}

	wait := time.Unix(at, 0).Sub(now)
	if wait < 0 {
		return 0
	}

	return wait
}

// throttle spaces requests evenly over the minute when the server announces
// its per-minute limit.
func throttle(header http.Header) time.Duration {
	limit, err := strconv.Atoi(header.Get("X-RateLimit-Limit"))
	if err != nil || limit <= 0 {
		return 0
	}

	return time.Minute / time.Duration(limit)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
