package app

import (
	"context"
	"fmt"
	"time"

	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/config"
	"github.com/cleanmatch/mono-repo/backend/shared/go-utils"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

const (
	maxRetries     = 5
	connectTimeout = 5 * time.Second
	initialBackoff = 500 * time.Millisecond
)

// App owns the process-wide connections. Nothing else opens a pool;
// repositories receive these handles explicitly.
type App struct {
	Config *config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client // nil unless BLACKLIST_BACKEND=redis
}

func NewApp(cfg *config.Config) (*App, error) {
	var (
		dbPool  *pgxpool.Pool
		err     error
		backoff = initialBackoff
	)

	for i := 1; i <= maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		dbPool, err = newDBPool(ctx, cfg.DBUrl)
		cancel()
		if err == nil {
			utils.Logger.Infof("Successfully connected to database on attempt %d", i)
			break
		}

		utils.Logger.WithError(err).Warnf(
			"Failed to connect to database on attempt %d/%d. Retrying in %v...",
			i, maxRetries, backoff,
		)

		if i == maxRetries {
			return nil, fmt.Errorf("unable to connect to database after %d attempts: %w", maxRetries, err)
		}

		time.Sleep(backoff)
		backoff *= 2
	}

	application := &App{
		Config: cfg,
		DB:     dbPool,
	}

	if cfg.BlacklistBackend == config.BlacklistBackendRedis {
		client, rErr := newRedisClient(cfg.RedisUrl)
		if rErr != nil {
			dbPool.Close()
			return nil, rErr
		}
		application.Redis = client
	}

	return application, nil
}

func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			utils.Logger.WithError(err).Warn("Error closing Redis client")
		} else {
			utils.Logger.Info("Redis connection closed.")
		}
	}
	if a.DB != nil {
		a.DB.Close()
		utils.Logger.Info("Database connection closed.")
	}
}

// Ping checks every backing store the service depends on.
func (a *App) Ping(ctx context.Context) error {
	if err := a.DB.Ping(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	if a.Redis != nil {
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis unreachable: %w", err)
		}
	}
	return nil
}

// newDBPool constructs the pgx pool with production‑safe settings.
//
//   - MaxConnIdleTime   – closes idle sockets before a proxy does (≈60 s)
//   - HealthCheckPeriod – background ping keeps every conn warm
func newDBPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	cfg.MaxConnIdleTime = 2 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	return pgxpool.ConnectConfig(ctx, cfg)
}

// newRedisClient accepts either a redis:// URL or a bare host:port.
func newRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		opts = &redis.Options{Addr: redisURL}
	}
	opts.DialTimeout = connectTimeout
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("unable to connect to redis: %w", err)
	}
	utils.Logger.Info("Successfully connected to Redis")
	return client, nil
}
