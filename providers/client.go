package providers

import (
	"time"

	"github.com/go-resty/resty/v2"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// newHTTPClient builds the resty client shared by HTTP providers.
// Retries here cover transient transport errors only; the chain itself
// never re-runs a provider that returned a failure.
func newHTTPClient(timeout time.Duration) *resty.Client {
	return resty.New().
		SetHeader("User-Agent", browserUserAgent).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return r.StatusCode() == 429 || (r.StatusCode() >= 500 && r.StatusCode() <= 504)
		})
}
