package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/jjenkins/motreport/internal/model"
)

const (
	defaultTimeout = 30 * time.Second
	maxRetries     = 3
	initialBackoff = 1 * time.Second
)

// providerClient performs requests against one provider and decodes JSON payloads
type providerClient struct {
	provider Provider
	client   *http.Client
	backoff  time.Duration
	check    func(model.Payload) error
}

func newProviderClient(provider Provider, timeout time.Duration) providerClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return providerClient{
		provider: provider,
		client:   &http.Client{Timeout: timeout},
		backoff:  initialBackoff,
		check:    payloadCheck(provider),
	}
}

func payloadCheck(provider Provider) func(model.Payload) error {
	if provider == ProviderVES {
		return checkVESPayload
	}
	return checkMOTPayload
}

// fetchWithRetry sends the request built by newRequest with exponential backoff.
// Rate limits, server errors and transport failures are retried. Any other
// non-2xx response fails with an *UpstreamError.
func (c *providerClient) fetchWithRetry(ctx context.Context, newRequest func(ctx context.Context) (*http.Request, error)) (model.Payload, error) {
	var lastErr error
	backoff := c.backoff

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
		}

		req, err := newRequest(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()

		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (HTTP 429)")
			continue
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			lastErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
			continue
		}

		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			return nil, c.statusError(resp.StatusCode, body)
		}

		payload, err := decodePayload(body)
		if err != nil {
			return nil, &MissingDataError{Provider: c.provider, Reason: err.Error()}
		}
		return payload, nil
	}

	return nil, fmt.Errorf("%s: failed after %d attempts: %w", c.provider, maxRetries, lastErr)
}

// statusError describes a rejected request, preferring the provider's own
// error marker when the body carries one
func (c *providerClient) statusError(status int, body []byte) error {
	code := strconv.Itoa(status)

	if payload, err := decodePayload(body); err == nil {
		var upErr *UpstreamError
		if errors.As(c.check(payload), &upErr) {
			if upErr.Code == "" {
				upErr.Code = code
			}
			return upErr
		}
	}

	return &UpstreamError{Provider: c.provider, Code: code, Message: http.StatusText(status)}
}

// decodePayload decodes a JSON object, keeping numbers as json.Number
func decodePayload(body []byte) (model.Payload, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var payload model.Payload
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if payload == nil {
		return nil, fmt.Errorf("failed to parse response: not a JSON object")
	}

	return payload, nil
}
