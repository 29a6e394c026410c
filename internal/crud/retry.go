package crud

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
)

// retryRead retries read-only calls that failed with a ClientError. A
// rejection by the CRUD service is final.
func retryRead[T any](ctx context.Context, c *Client, read func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	if c.retryInterval > 0 {
		b.InitialInterval = c.retryInterval
	}

	op := func() (T, error) {
		v, err := read()
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	notify := func(err error, wait time.Duration) {
		zerolog.Ctx(ctx).Warn().Err(err).Dur("wait", wait).Msg("retrying crud read")
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.readRetries+1),
		backoff.WithNotify(notify),
	)
}
