package api

import (
	"context"
	"time"
)

const (
	DefaultPollAttempts = 10
	DefaultPollInterval = 2 * time.Second
)

type PollOptions struct {
	MaxAttempts int
	Interval    time.Duration
}

func (o PollOptions) normalized() PollOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultPollAttempts
	}
	if o.Interval <= 0 {
		o.Interval = DefaultPollInterval
	}
	return o
}

// Poll calls fn until it reports done, at most MaxAttempts times with a fixed
// Interval between calls. Errors from fn count as a failed attempt. Only
// context cancellation is returned as an error.
func Poll[T any](ctx context.Context, opts PollOptions, fn func(context.Context) (T, bool, error)) (T, bool, error) {
	var zero T
	opts = opts.normalized()
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, false, err
		}
		v, done, err := fn(ctx)
		if err == nil && done {
			return v, true, nil
		}
		if attempt == opts.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return zero, false, ctx.Err()
		case <-time.After(opts.Interval):
		}
	}
	return zero, false, nil
}
