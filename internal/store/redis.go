package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Redis keeps quota counters as plain INCR keys and history as a list per
// user, trimmed to the retention window after every push. Redis executes
// commands one at a time, so INCR and the pipelined RPUSH+LTRIM are atomic
// per key without extra locking.
type Redis struct {
	inner  *redis.Client
	window int
}

func NewRedis(addr, password string, db, window int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return &Redis{inner: client, window: window}, nil
}

func historyKey(userID int64) string { return fmt.Sprintf("hist:%d", userID) }
func quotaKey(userID int64) string   { return fmt.Sprintf("quota:%d", userID) }
func seqKey(userID int64) string     { return fmt.Sprintf("seq:%d", userID) }

func (r *Redis) LoadHistory(ctx context.Context, userID int64) ([]Entry, error) {
	raw, err := r.inner.LRange(ctx, historyKey(userID), int64(-r.window), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: load history: %v", ErrUnavailable, err)
	}
	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("%w: decode entry: %v", ErrUnavailable, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// appendHistoryScript assigns seq values, pushes the entries and trims the
// window in one script, so two concurrent appends for the same user can
// never interleave between claiming seqs and landing in the list. Entries
// arrive as role/content pairs; the JSON layout matches Entry's tags.
var appendHistoryScript = redis.NewScript(`
local trimmed = tonumber(ARGV[1])
for i = 2, #ARGV, 2 do
	local seq = redis.call('INCR', KEYS[2])
	redis.call('RPUSH', KEYS[1], cjson.encode({role = ARGV[i], content = ARGV[i+1], seq = seq}))
end
redis.call('LTRIM', KEYS[1], -trimmed, -1)
return redis.call('LLEN', KEYS[1])
`)

func (r *Redis) AppendHistory(ctx context.Context, userID int64, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	args := make([]interface{}, 0, 1+2*len(entries))
	args = append(args, r.window)
	for _, e := range entries {
		args = append(args, e.Role, e.Content)
	}
	err := appendHistoryScript.Run(ctx, r.inner,
		[]string{historyKey(userID), seqKey(userID)}, args...).Err()
	if err != nil {
		return fmt.Errorf("%w: append history: %v", ErrUnavailable, err)
	}
	return nil
}

func (r *Redis) UsageCount(ctx context.Context, userID int64) (int, error) {
	val, err := r.inner.Get(ctx, quotaKey(userID)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: read usage: %v", ErrUnavailable, err)
	}
	count, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%w: decode usage: %v", ErrUnavailable, err)
	}
	return count, nil
}

// incrUsageScript charges one message only while the counter is below the
// limit, so check and increment stay atomic without a round trip.
var incrUsageScript = redis.NewScript(`
local c = tonumber(redis.call('GET', KEYS[1]) or '0')
if c >= tonumber(ARGV[1]) then
	return {c, 0}
end
return {redis.call('INCR', KEYS[1]), 1}
`)

func (r *Redis) IncrementUsage(ctx context.Context, userID int64, limit int) (int, bool, error) {
	res, err := incrUsageScript.Run(ctx, r.inner, []string{quotaKey(userID)}, limit).Int64Slice()
	if err != nil {
		return 0, false, fmt.Errorf("%w: increment usage: %v", ErrUnavailable, err)
	}
	if len(res) != 2 {
		return 0, false, fmt.Errorf("%w: increment usage: unexpected script reply", ErrUnavailable)
	}
	return int(res[0]), res[1] == 1, nil
}

func (r *Redis) Users(ctx context.Context) ([]int64, error) {
	var ids []int64
	iter := r.inner.Scan(ctx, 0, "quota:*", 0).Iterator()
	for iter.Next(ctx) {
		id, err := strconv.ParseInt(iter.Val()[len("quota:"):], 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: list users: %v", ErrUnavailable, err)
	}
	return ids, nil
}

func (r *Redis) Close() error { return r.inner.Close() }
