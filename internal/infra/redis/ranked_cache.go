package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"quiz-round/internal/app"
	"quiz-round/internal/domain"
)

var errSnapshotStale = errors.New("leaderboard changed during fill")

// RankedCache fronts a result store with a cached leaderboard snapshot.
//
// Every save bumps {prefix}:leaderboard:ver. A snapshot at {prefix}:leaderboard
// records the version it was built from and is served only while that version
// is current, so a fill that raced a save can never hide the saved result.
type RankedCache struct {
	client *redis.Client
	store  app.ResultStore
	ttl    time.Duration
	prefix string
	logger zerolog.Logger
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

type snapshot struct {
	Version int64                     `json:"version"`
	Entries []domain.LeaderboardEntry `json:"entries"`
}

func NewRankedCache(client *redis.Client, store app.ResultStore, ttl time.Duration, prefix string, logger zerolog.Logger) *RankedCache {
	if prefix == "" {
		prefix = "quiz"
	}
	return &RankedCache{
		client: client,
		store:  store,
		ttl:    ttl,
		prefix: prefix,
		logger: logger.With().Str("component", "ranked-cache").Logger(),
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Save persists through the backing store, then invalidates the snapshot.
// The result is saved once the store accepts it; a cache that cannot be
// invalidated is logged, not returned.
func (c *RankedCache) Save(ctx context.Context, result domain.SessionResult) error {
	if err := c.store.Save(ctx, result); err != nil {
		return err
	}
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, c.versionKey())
	pipe.Del(ctx, c.key())
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Error().Err(err).Str("round", result.RoundID).Msg("leaderboard cache not invalidated")
	}
	return nil
}

func (c *RankedCache) FetchRanked(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	ver, err := c.version(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("leaderboard cache unavailable, reading store")
		return c.store.FetchRanked(ctx)
	}
	if entries, ok := c.cached(ctx, ver); ok {
		return entries, nil
	}

	// Callers that saw different versions never share a fill.
	result, err, _ := c.sf.Do(strconv.FormatInt(ver, 10), func() (interface{}, error) {
		if entries, ok := c.cached(ctx, ver); ok {
			return entries, nil
		}
		entries, err := c.store.FetchRanked(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.fill(ctx, ver, entries); err != nil {
			if errors.Is(err, errSnapshotStale) || errors.Is(err, redis.TxFailedErr) {
				c.logger.Debug().Int64("version", ver).Msg("leaderboard changed during fill, snapshot skipped")
			} else {
				c.logger.Warn().Err(err).Msg("leaderboard snapshot not cached")
			}
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return copyEntries(result.([]domain.LeaderboardEntry)), nil
}

// fill stores entries as the snapshot for ver, unless a save has moved the
// version on since ver was read.
func (c *RankedCache) fill(ctx context.Context, ver int64, entries []domain.LeaderboardEntry) error {
	data, err := json.Marshal(snapshot{Version: ver, Entries: entries})
	if err != nil {
		return err
	}
	return c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readVersion(tx.Get(ctx, c.versionKey()))
		if err != nil {
			return err
		}
		if current != ver {
			return errSnapshotStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key(), data, c.ttlWithJitter())
			return nil
		})
		return err
	}, c.versionKey())
}

func (c *RankedCache) cached(ctx context.Context, ver int64) ([]domain.LeaderboardEntry, bool) {
	raw, err := c.client.Get(ctx, c.key()).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Msg("leaderboard cache read failed")
		}
		return nil, false
	}
	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil || snap.Version != ver {
		return nil, false
	}
	return snap.Entries, true
}

func (c *RankedCache) version(ctx context.Context) (int64, error) {
	return readVersion(c.client.Get(ctx, c.versionKey()))
}

func readVersion(cmd *redis.StringCmd) (int64, error) {
	v, err := cmd.Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return v, err
}

func (c *RankedCache) key() string {
	return c.prefix + ":leaderboard"
}

func (c *RankedCache) versionKey() string {
	return c.prefix + ":leaderboard:ver"
}

func (c *RankedCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func copyEntries(in []domain.LeaderboardEntry) []domain.LeaderboardEntry {
	out := make([]domain.LeaderboardEntry, len(in))
	copy(out, in)
	return out
}
