package ratelimit

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campuspool/backend/pkg/config"
)

// IdentityType distinguishes authenticated callers from anonymous ones
type IdentityType int

const (
	IdentityAnonymous IdentityType = iota
	IdentityAuthenticated
)

// Rule is the effective limit applied to a single request
type Rule struct {
	Limit  int
	Burst  int
	Window time.Duration
}

// Result describes the outcome of a rate limit check
type Result struct {
	Allowed      bool
	Remaining    int
	RetryAfter   time.Duration
	Limit        int
	Window       time.Duration
	ResetAfter   time.Duration
	IdentityKey  string
	EndpointKey  string
	IdentityType IdentityType
}

// GCRA implemented in Lua so the check-and-update is atomic in Redis.
// Returns {allowed, remaining, retry_after_seconds, reset_after_seconds}.
const gcraScript = `
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local window = tonumber(ARGV[3])
local now = tonumber(ARGV[4])

local emission = window / limit
local burst_offset = emission * burst

local tat = tonumber(redis.call("GET", key))
if tat == nil or tat < now then
	tat = now
end

local allow_at = tat - burst_offset
if now < allow_at then
	local retry_after = allow_at - now
	local reset_after = tat - now
	return {0, 0, tostring(retry_after), tostring(reset_after)}
end

local new_tat = tat + emission
redis.call("SET", key, new_tat, "EX", math.ceil(new_tat - now + window))

local remaining = math.floor((burst_offset - (new_tat - now)) / emission)
if remaining < 0 then
	remaining = 0
end
local reset_after = new_tat - now
return {1, remaining, "0", tostring(reset_after)}
`

// Limiter is a Redis-backed GCRA rate limiter
type Limiter struct {
	client redis.Cmdable
	cfg    config.RateLimitConfig
	script *redis.Script
	now    func() time.Time
}

// NewLimiter creates a limiter from configuration
func NewLimiter(client redis.Cmdable, cfg config.RateLimitConfig) *Limiter {
	return &Limiter{
		client: client,
		cfg:    cfg,
		script: redis.NewScript(gcraScript),
		now:    time.Now,
	}
}

// WithNow replaces the time source (tests)
func (l *Limiter) WithNow(now func() time.Time) {
	l.now = now
}

// RuleFor resolves the effective rule for an endpoint and identity type,
// applying per-endpoint overrides when configured.
func (l *Limiter) RuleFor(endpoint string, identity IdentityType) Rule {
	rule := Rule{Window: l.cfg.Window()}

	if identity == IdentityAuthenticated {
		rule.Limit = l.cfg.DefaultLimit
		rule.Burst = l.cfg.DefaultBurst
	} else {
		rule.Limit = l.cfg.AnonymousLimit
		rule.Burst = l.cfg.AnonymousBurst
	}

	if override, ok := l.cfg.EndpointOverrides[endpoint]; ok {
		if identity == IdentityAuthenticated {
			if override.AuthenticatedLimit > 0 {
				rule.Limit = override.AuthenticatedLimit
			}
			rule.Burst = override.AuthenticatedBurst
		} else {
			if override.AnonymousLimit > 0 {
				rule.Limit = override.AnonymousLimit
			}
			rule.Burst = override.AnonymousBurst
		}
		if override.WindowSeconds > 0 {
			rule.Window = time.Duration(override.WindowSeconds) * time.Second
		}
	}

	if rule.Burst < 0 {
		rule.Burst = 0
	}

	return rule
}

// Allow checks whether the request identified by endpoint+identity is within
// its rate limit. Disabled limiters and non-positive limits always allow.
func (l *Limiter) Allow(ctx context.Context, endpoint, identity string, rule Rule, identityType IdentityType) (Result, error) {
	result := Result{
		Allowed:      true,
		Remaining:    rule.Limit,
		Limit:        rule.Limit,
		Window:       rule.Window,
		IdentityKey:  identity,
		EndpointKey:  endpoint,
		IdentityType: identityType,
	}

	if !l.cfg.Enabled || rule.Limit <= 0 {
		return result, nil
	}

	window := rule.Window
	if window <= 0 {
		window = l.cfg.Window()
	}

	key := fmt.Sprintf("%s:%s:%s", l.cfg.RedisPrefix, endpoint, identity)
	nowSeconds := float64(l.now().UnixNano()) / float64(time.Second)

	raw, err := l.script.Run(ctx, l.client, []string{key},
		rule.Limit,
		rule.Burst,
		formatFloat(window.Seconds()),
		formatFloat(nowSeconds),
	).Result()
	if err != nil {
		// Fail open: a Redis outage must not block bookings
		return result, err
	}

	values, ok := raw.([]interface{})
	if !ok || len(values) != 4 {
		return result, fmt.Errorf("unexpected rate limit script result: %v", raw)
	}

	result.Allowed = toInt(values[0]) == 1
	result.Remaining = toInt(values[1])
	result.RetryAfter = time.Duration(toFloat(values[2]) * float64(time.Second))
	result.ResetAfter = time.Duration(toFloat(values[3]) * float64(time.Second))

	return result, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 10, 64)
}

func toInt(v interface{}) int {
	switch value := v.(type) {
	case int64:
		return int(value)
	case int:
		return value
	case float64:
		return int(math.Trunc(value))
	case string:
		i, err := strconv.Atoi(value)
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}

func toFloat(v interface{}) float64 {
	switch value := v.(type) {
	case float64:
		return value
	case int64:
		return float64(value)
	case int:
		return float64(value)
	case string:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
