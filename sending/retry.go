package sending

import (
	"context"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/casualjim/roost/api"
	"github.com/casualjim/roost/pkg/slogx"
)

// RetryPolicy bounds the retries of a throttled call.
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
	Clock      clock.Clock
}

// RetryOnThrottle calls action until it is not throttled. Between attempts
// it waits policy.Delay. action gets the attempt number, starting at zero,
// and must build new broker messages for every attempt. The throttle error
// is returned once MaxRetries retries are used up.
func RetryOnThrottle(ctx context.Context, logger *slog.Logger, policy RetryPolicy, action func(ctx context.Context, attempt int) error) error {
	clk := policy.Clock
	if clk == nil {
		clk = clock.New()
	}
	for attempt := 0; ; attempt++ {
		err := action(ctx, attempt)
		if err == nil || !api.IsServerBusy(err) {
			return err
		}
		if attempt >= policy.MaxRetries {
			logger.ErrorContext(ctx, "still throttled, giving up", slog.Int("attempts", attempt+1), slogx.Error(err))
			return err
		}

		logger.WarnContext(ctx, "we are throttled, backing off",
			slog.Duration("delay", policy.Delay),
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", policy.MaxRetries),
		)
		timer := clk.Timer(policy.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
