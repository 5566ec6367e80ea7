package state

import (
	"context"
	"log/slog"
	"strings"

	"gatekeeper/config"
	"gatekeeper/internal/domain/service"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Params holds dependencies for the state store, injected by Fx
type Params struct {
	fx.In

	Lc     fx.Lifecycle
	Config *config.Config
	Logger *slog.Logger
}

// New selects the store named by oauthState.driver. The redis client is
// pinged on start and closed on stop.
func New(params Params) (service.StateStore, error) {
	cfg := params.Config.OAuthState
	driver := DriverMemory
	prefix := ""
	if cfg != nil {
		if cfg.Driver != "" {
			driver = strings.ToLower(cfg.Driver)
		}
		prefix = cfg.KeyPrefix
	}

	switch driver {
	case DriverMemory:
		params.Logger.Info("Using in-memory oauth state store")

		return NewMemoryStore(), nil
	case DriverRedis:
		if params.Config.Redis == nil || params.Config.Redis.Addr == "" {
			return nil, errors.New("redis address is required for the redis state store")
		}

		client := redis.NewClient(&redis.Options{
			Addr:     params.Config.Redis.Addr,
			Password: params.Config.Redis.Password,
			DB:       params.Config.Redis.DB,
		})
		params.Lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := client.Ping(ctx).Err(); err != nil {
					return errors.Wrap(err, "failed to reach redis")
				}
				params.Logger.Info("Using redis oauth state store", slog.String("addr", params.Config.Redis.Addr))

				return nil
			},
			OnStop: func(context.Context) error {
				return client.Close()
			},
		})

		return NewRedisStore(client, prefix), nil
	default:
		return nil, errors.Errorf("unknown oauth state driver: %s", driver)
	}
}
