package utils

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPClient is a wrapper around the resty.Client HTTP client.
// It embeds *resty.Client to expose all of its methods directly.
//
// Example usage:
//
//	client := utils.NewHTTPClient("https://www.googleapis.com", 30*time.Second)
//	resp, err := client.R().Get("/drive/v3/files")
type HTTPClient struct {
	*resty.Client
}

// NewHTTPClient creates an independent client bound to baseURL. Requests
// time out after timeout and transient failures (transport errors, 429 and
// 5xx responses) are retried twice with backoff.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == 429 || r.StatusCode() >= 500
		})

	return &HTTPClient{Client: client}
}
