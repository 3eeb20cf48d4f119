package cli

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"quiz-round/internal/app"
	"quiz-round/internal/config"
	"quiz-round/internal/domain"
	"quiz-round/internal/infra/csvfile"
	"quiz-round/internal/infra/memory"
	pgstore "quiz-round/internal/infra/postgres"
	redisstore "quiz-round/internal/infra/redis"
)

var errPostgresRequired = errors.New("postgres url not configured")

// backends holds the storage clients a command opened from config.
type backends struct {
	pool    *pgxpool.Pool
	redis   *redis.Client
	results app.ResultStore
}

// openBackends picks the result store: Postgres (behind the Redis snapshot
// cache when Redis is also configured), then a Redis list, then memory.
func openBackends(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*backends, error) {
	b := &backends{}
	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.pool = pool
	}

	switch {
	case b.pool != nil:
		var store app.ResultStore = pgstore.NewResultStore(b.pool)
		if b.redis != nil {
			ttl := config.Duration(cfg.Redis.TTL, time.Minute)
			store = redisstore.NewRankedCache(b.redis, store, ttl, cfg.Redis.Prefix, logger)
		}
		b.results = store
	case b.redis != nil:
		b.results = redisstore.NewResultStore(b.redis, cfg.Redis.Prefix)
	default:
		logger.Warn().Msg("no postgres or redis configured, results are kept in memory for this process only")
		b.results = memory.NewResultStore()
	}
	return b, nil
}

// questionLoader resolves where play reads its questions from.
func (b *backends) questionLoader(opts playOptions, logger zerolog.Logger) (app.QuestionLoader, string, error) {
	switch {
	case opts.demo:
		return memory.NewStaticQuestionLoader(map[string][]domain.Question{
			memory.DemoSet: memory.SampleQuestions(),
		}), memory.DemoSet, nil
	case opts.set != "":
		if b.pool == nil {
			return nil, "", errPostgresRequired
		}
		return pgstore.NewQuestionSetStore(b.pool), opts.set, nil
	default:
		return csvfile.NewLoader(logger), opts.questions, nil
	}
}

func (b *backends) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
	if b.redis != nil {
		_ = b.redis.Close()
	}
}
