// Package quota enforces per-organization usage counters: seconds generated
// today, seconds generated this month, and concurrently active jobs. The
// counters live in Redis and are reserved with a single Lua script so that
// two requests admitted at the same instant cannot both slip under a limit.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"server/internal/domain"
)

const (
	dayKeyTTL   = 48 * time.Hour
	monthKeyTTL = 35 * 24 * time.Hour
)

// reserveScript checks all three counters and increments them only when
// every one stays under its limit. Return codes: 0 ok, 1 daily, 2 monthly,
// 3 concurrency.
const reserveScript = `
local day = tonumber(redis.call('GET', KEYS[1]) or '0')
local month = tonumber(redis.call('GET', KEYS[2]) or '0')
local active = tonumber(redis.call('GET', KEYS[3]) or '0')
local secs = tonumber(ARGV[1])
if day + secs > tonumber(ARGV[2]) then return 1 end
if month + secs > tonumber(ARGV[3]) then return 2 end
if active + 1 > tonumber(ARGV[4]) then return 3 end
redis.call('INCRBY', KEYS[1], secs)
redis.call('EXPIRE', KEYS[1], tonumber(ARGV[5]))
redis.call('INCRBY', KEYS[2], secs)
redis.call('EXPIRE', KEYS[2], tonumber(ARGV[6]))
redis.call('INCR', KEYS[3])
return 0
`

// releaseScript refunds seconds and/or the concurrency slot, clamped at zero.
const releaseScript = `
local function dec(key, n)
  if redis.call('DECRBY', key, n) < 0 then
    redis.call('SET', key, '0')
  end
end
local secs = tonumber(ARGV[1])
if secs > 0 then
  dec(KEYS[1], secs)
  dec(KEYS[2], secs)
end
if tonumber(ARGV[2]) == 1 then
  dec(KEYS[3], 1)
end
return 0
`

// Rediser is the slice of go-redis the enforcer needs. *redis.Client
// satisfies it; tests substitute a fake.
type Rediser interface {
	Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
}

// Enforcer reserves and releases per-organization quota.
type Enforcer struct {
	rdb Rediser
	now func() time.Time
}

// NewEnforcer creates an Enforcer over the given Redis client.
func NewEnforcer(rdb Rediser) *Enforcer {
	return &Enforcer{rdb: rdb, now: time.Now}
}

func (e *Enforcer) keys(orgID string) (day, month, active string) {
	now := e.now().UTC()
	day = fmt.Sprintf("quota:%s:day:%s", orgID, now.Format("2006-01-02"))
	month = fmt.Sprintf("quota:%s:month:%s", orgID, now.Format("2006-01"))
	active = fmt.Sprintf("quota:%s:active", orgID)
	return day, month, active
}

// Reserve atomically reserves seconds against the daily and monthly counters
// and one concurrency slot. On rejection nothing is consumed and the error
// names the exhausted limit.
func (e *Enforcer) Reserve(ctx context.Context, limits *domain.QuotaLimits, seconds int) error {
	if limits == nil {
		return fmt.Errorf("quota: limits are required")
	}
	if seconds <= 0 {
		return fmt.Errorf("quota: seconds must be positive")
	}
	day, month, active := e.keys(limits.OrgID)
	res, err := e.rdb.Eval(ctx, reserveScript,
		[]string{day, month, active},
		seconds,
		limits.DailySecondsLimit,
		limits.MonthlySecondsLimit,
		limits.MaxConcurrentJobs,
		int(dayKeyTTL.Seconds()),
		int(monthKeyTTL.Seconds()),
	).Int64()
	if err != nil {
		return fmt.Errorf("quota: reserve: %w", err)
	}
	switch res {
	case 0:
		return nil
	case 1:
		return domain.ErrDailyQuotaExceeded
	case 2:
		return domain.ErrMonthlyQuotaExceeded
	case 3:
		return domain.ErrConcurrencyLimitReached
	}
	return fmt.Errorf("quota: unexpected reserve result %d", res)
}

// ReleaseReservation fully refunds a reservation that never became a job:
// the seconds and the concurrency slot.
func (e *Enforcer) ReleaseReservation(ctx context.Context, orgID string, seconds int) error {
	return e.release(ctx, orgID, seconds, true)
}

// ReleaseSlot frees the concurrency slot when a job reaches a terminal
// state. Consumed seconds stay consumed.
func (e *Enforcer) ReleaseSlot(ctx context.Context, orgID string) error {
	return e.release(ctx, orgID, 0, true)
}

func (e *Enforcer) release(ctx context.Context, orgID string, seconds int, slot bool) error {
	day, month, active := e.keys(orgID)
	slotFlag := 0
	if slot {
		slotFlag = 1
	}
	if err := e.rdb.Eval(ctx, releaseScript, []string{day, month, active}, seconds, slotFlag).Err(); err != nil {
		return fmt.Errorf("quota: release: %w", err)
	}
	return nil
}

// Usage returns a snapshot of the organization's counters alongside its
// limits.
func (e *Enforcer) Usage(ctx context.Context, limits *domain.QuotaLimits) (*domain.QuotaUsage, error) {
	if limits == nil {
		return nil, fmt.Errorf("quota: limits are required")
	}
	day, month, active := e.keys(limits.OrgID)
	vals, err := e.rdb.MGet(ctx, day, month, active).Result()
	if err != nil {
		return nil, fmt.Errorf("quota: usage: %w", err)
	}
	usage := &domain.QuotaUsage{
		OrgID:               limits.OrgID,
		DailySecondsLimit:   limits.DailySecondsLimit,
		MonthlySecondsLimit: limits.MonthlySecondsLimit,
		MaxConcurrentJobs:   limits.MaxConcurrentJobs,
	}
	counters := []*int{&usage.UsedSecondsToday, &usage.UsedSecondsMonth, &usage.ConcurrentJobsActive}
	for i, v := range vals {
		if i >= len(counters) {
			break
		}
		*counters[i] = toInt(v)
	}
	return usage, nil
}

func toInt(v any) int {
	switch t := v.(type) {
	case string:
		var n int
		_, _ = fmt.Sscanf(t, "%d", &n)
		return n
	case int64:
		return int(t)
	case int:
		return t
	}
	return 0
}
