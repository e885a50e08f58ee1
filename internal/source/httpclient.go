package source

import (
	"log/slog"
	"time"

	"resty.dev/v3"
)

const (
	retryCount       = 2
	retryWaitTime    = 500 * time.Millisecond
	retryMaxWaitTime = 3 * time.Second

	// The fund endpoints reject clients that do not look like a browser.
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// NewHTTPClient creates the HTTP client a source adapter fetches through.
// Retries with backoff live here so adapters never loop themselves; the
// per-source context deadline still bounds the whole attempt sequence.
func NewHTTPClient(baseURL string) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", browserUserAgent).
		SetHeader("Accept", "application/json, text/javascript, */*; q=0.01").
		SetHeader("Accept-Language", "zh-CN,zh;q=0.9").
		SetRetryCount(retryCount).
		SetRetryWaitTime(retryWaitTime).
		SetRetryMaxWaitTime(retryMaxWaitTime).
		AddRetryConditions(shouldRetry).
		AddRetryHooks(logRetry)
}

// shouldRetry retries transport failures and the retryable statuses (5xx,
// 429, 408). Any other 4xx is the provider refusing this particular request;
// asking again will not change its mind.
func shouldRetry(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	status := r.StatusCode()
	return status >= 500 || status == 429 || status == 408
}

func logRetry(r *resty.Response, err error) {
	slog.Debug("retrying upstream request",
		"url", r.Request.URL,
		"attempt", r.Request.Attempt,
		"status_code", r.StatusCode(),
		"error", err)
}
