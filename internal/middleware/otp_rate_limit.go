package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const (
	otpRateKeyPrefix    = "rl:otp:"
	verifyRateKeyPrefix = "rl:otp-verify:"
	loginRateKeyPrefix  = "rl:login:"
	rateLimitWindow     = time.Hour
)

// OTPRateLimit caps code requests per email (or client IP when the body has
// no email) to perHour. Counters live in Redis when cache is set, otherwise
// in a per-process token bucket. Redis failures fail open.
func OTPRateLimit(cache *redis.Client, perHour int, logger *slog.Logger) fiber.Handler {
	return emailRateLimit(cache, otpRateKeyPrefix, perHour, "too many OTP requests, try again later", logger)
}

// OTPVerifyRateLimit caps verification attempts per email the same way, so a
// pending code cannot be guessed within its lifetime.
func OTPVerifyRateLimit(cache *redis.Client, perHour int, logger *slog.Logger) fiber.Handler {
	return emailRateLimit(cache, verifyRateKeyPrefix, perHour, "too many verification attempts, try again later", logger)
}

// LoginRateLimit caps visitor login attempts per email.
func LoginRateLimit(cache *redis.Client, perHour int, logger *slog.Logger) fiber.Handler {
	return emailRateLimit(cache, loginRateKeyPrefix, perHour, "too many login attempts, try again later", logger)
}

func emailRateLimit(cache *redis.Client, prefix string, perHour int, message string, logger *slog.Logger) fiber.Handler {
	if perHour <= 0 {
		perHour = 5
	}
	local := newLocalLimiter(perHour)

	return func(c *fiber.Ctx) error {
		var req struct {
			Email string `json:"email"`
		}
		_ = c.BodyParser(&req)
		subject := strings.ToLower(strings.TrimSpace(req.Email))
		if subject == "" {
			subject = c.IP()
		}

		if cache == nil {
			if !local.allow(subject) {
				return tooManyRequests(c, message)
			}
			return c.Next()
		}

		ctx := c.UserContext()
		cnt, err := incrWindow(ctx, cache, prefix+subject)
		if err != nil {
			logger.WarnContext(ctx, "rate limit lookup failed", "prefix", prefix, "error", err)
			return c.Next()
		}
		if cnt > int64(perHour) {
			return tooManyRequests(c, message)
		}
		return c.Next()
	}
}

// incrWindow counts a hit and makes sure the counter expires. EXPIRE NX runs on
// every hit so a counter left without a TTL heals instead of blocking forever.
func incrWindow(ctx context.Context, cache *redis.Client, key string) (int64, error) {
	var incr *redis.IntCmd
	_, err := cache.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, rateLimitWindow)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func tooManyRequests(c *fiber.Ctx, message string) error {
	c.Set(fiber.HeaderRetryAfter, fmt.Sprint(int(rateLimitWindow.Seconds())))
	return fiber.NewError(http.StatusTooManyRequests, message)
}

type localLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newLocalLimiter(perHour int) *localLimiter {
	return &localLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Every(rateLimitWindow / time.Duration(perHour)),
		burst:    perHour,
	}
}

func (l *localLimiter) allow(subject string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[subject]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[subject] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}
