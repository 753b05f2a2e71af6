package scheduler

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultGuardTTL = 36 * time.Hour

// SweepGuard lets exactly one process claim a day's sweep across restarts and replicas.
type SweepGuard struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewSweepGuard(rdb *redis.Client, prefix string) *SweepGuard {
	if prefix == "" {
		prefix = "outreach:dm_drafts:sweep:"
	}
	return &SweepGuard{rdb: rdb, prefix: prefix, ttl: defaultGuardTTL}
}

// Claim reports whether the caller won day. The claim expires after the guard TTL.
func (g *SweepGuard) Claim(ctx context.Context, day string) (bool, error) {
	return g.rdb.SetNX(ctx, g.prefix+day, time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
}

// Release gives up a claim so a later tick can retry the day.
func (g *SweepGuard) Release(ctx context.Context, day string) error {
	return g.rdb.Del(ctx, g.prefix+day).Err()
}
