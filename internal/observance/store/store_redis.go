package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"altar/internal/observance"
	"altar/pkg/platform/sentinel"
)

const (
	dayMarkerKeyPrefix = "obs:day:"
	totalsKeyPrefix    = "obs:totals:"
	logKeyPrefix       = "obs:log:"

	fieldPoints = "points"
	fieldCount  = "count"
	fieldLast   = "last_ns"

	defaultMarkerTTL = 24 * time.Hour
)

// setMaxScript stores ARGV[2] in hash field ARGV[1] unless the field already
// holds a larger non-negative integer. Values are compared as decimal strings
// so nanosecond timestamps keep full precision.
var setMaxScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], ARGV[1])
local v = ARGV[2]
if not cur or #v > #cur or (#v == #cur and v > cur) then
	redis.call('HSET', KEYS[1], ARGV[1], v)
end
return 1
`)

// RedisStore keeps per-user totals in a hash, the observance log in a sorted
// set scored by record time, and one expiring marker per (user, rule, day)
// that enforces the once-per-day rule.
type RedisStore struct {
	client    *redis.Client
	markerTTL time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithMarkerTTL sets how long day markers outlive the end of their day.
func WithMarkerTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.markerTTL = ttl
		}
	}
}

func NewRedis(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, markerTTL: defaultMarkerTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func dayMarkerKey(userID string, ruleID int, day string) string {
	return dayMarkerKeyPrefix + userID + ":" + day + ":" + strconv.Itoa(ruleID)
}

// Record claims the day marker with SETNX and then updates totals and the log
// in one MULTI/EXEC. A failed update releases the marker so the call can be
// retried.
func (s *RedisStore) Record(ctx context.Context, o *observance.Observance) error {
	marker := dayMarkerKey(o.UserID, o.RuleID, o.Day)
	ttl := time.Until(endOfDay(o.RecordedAt)) + s.markerTTL
	claimed, err := s.client.SetNX(ctx, marker, o.ID, ttl).Result()
	if err != nil {
		return fmt.Errorf("claim observance marker: %w", err)
	}
	if !claimed {
		return fmt.Errorf("rule %d already observed on %s: %w", o.RuleID, o.Day, sentinel.ErrConflict)
	}

	member, err := json.Marshal(o)
	if err != nil {
		_ = s.client.Del(ctx, marker).Err()
		return fmt.Errorf("marshal observance: %w", err)
	}

	totals := totalsKeyPrefix + o.UserID
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, totals, fieldPoints, int64(o.Points))
		pipe.HIncrBy(ctx, totals, fieldCount, 1)
		setMaxScript.Eval(ctx, pipe, []string{totals}, fieldLast, strconv.FormatInt(o.RecordedAt.UnixNano(), 10))
		pipe.ZAdd(ctx, logKeyPrefix+o.UserID, redis.Z{
			Score:  float64(o.RecordedAt.UnixMilli()),
			Member: member,
		})
		return nil
	})
	if err != nil {
		_ = s.client.Del(ctx, marker).Err()
		return fmt.Errorf("record observance: %w", err)
	}
	return nil
}

func (s *RedisStore) Totals(ctx context.Context, userID string) (observance.Totals, error) {
	values, err := s.client.HGetAll(ctx, totalsKeyPrefix+userID).Result()
	if err != nil {
		return observance.Totals{}, fmt.Errorf("read observance totals: %w", err)
	}
	var t observance.Totals
	if t.Points, err = atoiOrZero(values[fieldPoints]); err != nil {
		return observance.Totals{}, err
	}
	if t.Observances, err = atoiOrZero(values[fieldCount]); err != nil {
		return observance.Totals{}, err
	}
	if raw := values[fieldLast]; raw != "" {
		ns, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return observance.Totals{}, fmt.Errorf("parse last observance time: %w", err)
		}
		t.LastRecorded = time.Unix(0, ns).UTC()
	}
	return t, nil
}

// ListByUser returns up to limit observances, most recent first.
func (s *RedisStore) ListByUser(ctx context.Context, userID string, limit int) ([]*observance.Observance, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	members, err := s.client.ZRevRange(ctx, logKeyPrefix+userID, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("list observances: %w", err)
	}
	out := make([]*observance.Observance, 0, len(members))
	for _, m := range members {
		var o observance.Observance
		if err := json.Unmarshal([]byte(m), &o); err != nil {
			return nil, fmt.Errorf("decode observance: %w", err)
		}
		out = append(out, &o)
	}
	return out, nil
}

// ObservedOn returns which of ruleIDs the user observed on day, ascending.
func (s *RedisStore) ObservedOn(ctx context.Context, userID, day string, ruleIDs []int) ([]int, error) {
	ids := slices.Clone(ruleIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	if len(ids) == 0 {
		return []int{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.IntCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Exists(ctx, dayMarkerKey(userID, id, day))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("check observance markers: %w", err)
	}

	out := []int{}
	for i, cmd := range cmds {
		if cmd.Val() > 0 {
			out = append(out, ids[i])
		}
	}
	return out, nil
}

func atoiOrZero(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse observance counter %q: %w", s, err)
	}
	return n, nil
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}
