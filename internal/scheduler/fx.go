package scheduler

import (
	"context"

	"go.uber.org/fx"
)

var Module = fx.Module("scheduler",
	fx.Provide(New),
)

// Background attaches the periodic run loop to the fx lifecycle. The
// monolith and the standalone scheduler binary both include it; an
// API-only deployment leaves it out and triggers runs over the cron
// endpoint instead.
var Background = fx.Module("scheduler.background",
	fx.Invoke(registerLoop),
)

func registerLoop(lc fx.Lifecycle, s *Scheduler) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				s.RunForever(ctx)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}
