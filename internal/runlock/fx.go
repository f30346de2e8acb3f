package runlock

import (
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/collecta/internal/config"
	"go.uber.org/fx"
)

// Module provides the optional run locker. With no REDIS_ADDR configured
// the locker is nil and callers fall back to single-instance behavior.
var Module = fx.Module("runlock",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config) *Locker {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	return New(client)
}
