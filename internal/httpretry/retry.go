// Package httpretry implements the shared retry policy for provider
// adapters: exponential backoff on 429, 5xx and transport failures, a single
// forced-reauth retry on 401, immediate failure on any other non-2xx status.
package httpretry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Policy bounds the backoff loop.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
}

// DefaultPolicy returns the adapter default: 3 attempts, 2s initial delay,
// doubling.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, InitialDelay: 2 * time.Second, Multiplier: 2}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 3
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = 2 * time.Second
	}
	if p.Multiplier < 1 {
		p.Multiplier = 2
	}
	return p
}

// StatusError reports a non-2xx response that exhausted the policy. Body
// carries a bounded snippet for diagnostics.
type StatusError struct {
	Code int
	Body string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.Code, e.Body)
}

// Options customizes one Do call.
type Options struct {
	Policy Policy

	// OnUnauthorized is invoked once on the first 401 (token invalidation
	// for token-based providers); the request is then retried a single time.
	// When nil, a 401 fails immediately.
	OnUnauthorized func()

	Log *logrus.Logger
}

// Do executes the request with the retry policy applied. build is called per
// attempt so request bodies can be re-created. On success the response is
// returned with its body unread; all failure paths drain and close.
func Do(ctx context.Context, client *http.Client, build func(ctx context.Context) (*http.Request, error), opts Options) (*http.Response, error) {
	policy := opts.Policy.normalized()

	delay := policy.InitialDelay
	reauthed := false

	var lastErr error

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, delay); err != nil {
				return nil, err
			}

			delay = time.Duration(float64(delay) * policy.Multiplier)
		}

		req, err := build(ctx)
		if err != nil {
			return nil, fmt.Errorf("building request: %w", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			lastErr = err
			if opts.Log != nil {
				opts.Log.WithError(err).WithField("attempt", attempt).Warn("request transport failure")
			}

			continue
		}

		switch {
		case resp.StatusCode < 300:
			return resp, nil

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = &StatusError{Code: resp.StatusCode, Body: readSnippet(resp)}
			if opts.Log != nil {
				opts.Log.WithFields(logrus.Fields{
					"status":  resp.StatusCode,
					"attempt": attempt,
				}).Warn("retryable provider response")
			}

		case resp.StatusCode == http.StatusUnauthorized && opts.OnUnauthorized != nil && !reauthed:
			// Invalidate cached credentials and retry exactly once without
			// consuming a backoff attempt.
			reauthed = true
			lastErr = &StatusError{Code: resp.StatusCode, Body: readSnippet(resp)}
			opts.OnUnauthorized()
			attempt--

		default:
			return nil, &StatusError{Code: resp.StatusCode, Body: readSnippet(resp)}
		}
	}

	return nil, lastErr
}

// readSnippet drains the response, keeping a bounded prefix of the body.
func readSnippet(resp *http.Response) string {
	const maxSnippet = 2048

	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxSnippet)) //nolint:errcheck // diagnostics only.
	drain(resp)

	return string(b)
}

// drain discards the remaining body so the connection can be reused.
func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20)) //nolint:errcheck // best-effort drain before close.
	resp.Body.Close()
}

// sleep waits for d or until the context is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
