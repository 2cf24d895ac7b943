// Package httpclient wraps net/http with request/response logging. The API
// layer constructs one client per timeout class: quick metadata calls and
// the long-running analyze call never share a deadline.
package httpclient

import (
	"net/http"
	"time"

	"cv-analyzer-client/internal/common/logger"
)

type Client struct {
	httpClient *http.Client
	log        logger.Logger
}

func NewClient(timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	c.log.Debug("api request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("api request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"duration": time.Since(start).String(),
			"error":    err.Error(),
		})
		return nil, err
	}

	c.log.Debug("api response", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	})
	return resp, nil
}
