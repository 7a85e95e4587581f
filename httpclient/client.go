// Package httpclient sends the outbound requests of video providers.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	gomedia "github.com/shoraid/go-mediaprovider"
)

// ErrUnexpectedStatus is returned for non 2xx responses.
var ErrUnexpectedStatus = errors.New("media: unexpected http status")

// Config tunes timeouts and retries.
type Config struct {
	Timeout         time.Duration // per attempt, 10s when zero
	MaxRetries      uint64        // retries after the first attempt
	InitialInterval time.Duration // first backoff interval, 200ms when zero
	UserAgent       string
}

// Client implements gomedia.HTTPClient over net/http. Transport errors and
// 5xx responses are retried with exponential backoff, 4xx responses are not.
type Client struct {
	http   *http.Client
	config Config
}

var _ gomedia.HTTPClient = (*Client)(nil)

func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 200 * time.Millisecond
	}

	return &Client{
		http:   &http.Client{Timeout: cfg.Timeout},
		config: cfg,
	}
}

func (c *Client) SendRequest(ctx context.Context, method, url string) ([]byte, error) {
	var body []byte

	operation := func() error {
		data, err := c.do(ctx, method, url)
		if err != nil {
			return err
		}
		body = data
		return nil
	}

	notify := func(err error, wait time.Duration) {
		log.Debug().Err(err).Str("url", url).Dur("wait", wait).Msg("retrying request")
	}

	if err := backoff.RetryNotify(operation, c.backoff(ctx), notify); err != nil {
		log.Error().Err(err).Str("method", method).Str("url", url).Msg("request failed")
		return nil, err
	}

	return body, nil
}

func (c *Client) backoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.config.InitialInterval
	b.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(b, c.config.MaxRetries), ctx)
}

func (c *Client) do(ctx context.Context, method, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
		if resp.StatusCode < 500 {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	return data, nil
}
