package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/MrSnakeDoc/demo-api/internal/ratelimit"
)

var _ ratelimit.Recorder = (*Store)(nil)

// Record counts one decision in the totals hash, the minute bucket and the
// per-route hash, in a single round trip. Client identities are never
// written to keep key cardinality bounded.
func (s *Store) Record(ctx context.Context, ev ratelimit.Event) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	field := ev.Decision.String()

	pipe := s.client.Pipeline()
	pipe.HIncrBy(ctx, StatsTotalKey(), field, 1)

	bucket := StatsMinuteKey(at)
	pipe.HIncrBy(ctx, bucket, field, 1)
	pipe.Expire(ctx, bucket, s.statsTTL)

	if ev.Route != "" {
		pipe.HIncrBy(ctx, StatsRouteKey(), ev.Route+":"+field, 1)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record rate limit decision: %w", err)
	}
	return nil
}

var _ ratelimit.StatsReader = (*Store)(nil)

// DecisionTotals returns the cumulative counters.
func (s *Store) DecisionTotals(ctx context.Context) (ratelimit.Counts, error) {
	return s.readCounts(ctx, StatsTotalKey())
}

// DecisionsAt returns the counters of the UTC minute containing t.
func (s *Store) DecisionsAt(ctx context.Context, t time.Time) (ratelimit.Counts, error) {
	return s.readCounts(ctx, StatsMinuteKey(t))
}

func (s *Store) readCounts(ctx context.Context, key string) (ratelimit.Counts, error) {
	vals, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return ratelimit.Counts{}, fmt.Errorf("failed to read %s: %w", key, err)
	}
	c, err := parseCounts(vals)
	if err != nil {
		return ratelimit.Counts{}, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return c, nil
}

// parseCounts reads the allow/reject fields of a stats hash. Missing
// fields count as zero.
func parseCounts(vals map[string]string) (ratelimit.Counts, error) {
	var c ratelimit.Counts
	for field, dst := range map[string]*int64{
		ratelimit.Allow.String():  &c.Allowed,
		ratelimit.Reject.String(): &c.Rejected,
	} {
		v, ok := vals[field]
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return ratelimit.Counts{}, fmt.Errorf("invalid %s counter %q: %w", field, v, err)
		}
		*dst = n
	}
	return c, nil
}
