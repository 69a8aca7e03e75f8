package middleware

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dutchthrift_server/services"

	"github.com/MonkyMars/gecho"
)

// limitFor picks the budget for a request path. Intake submissions and login
// attempts get their own, tighter buckets.
func (mw *Middleware) limitFor(path string) (bucket string, limit int, window time.Duration) {
	rl := mw.cfg.RateLimit
	switch {
	case strings.HasPrefix(path, "/api/intake"):
		return "intake", rl.IntakeLimit, rl.IntakeWindow
	case strings.HasPrefix(path, "/api/auth"):
		return "auth", rl.AuthLimit, rl.AuthWindow
	default:
		return "general", rl.GeneralLimit, rl.GeneralWindow
	}
}

// clientIP relies on chi's RealIP having rewritten RemoteAddr
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware counts requests per client and bucket in Redis with a
// fixed window. It fails open when Redis is disabled or unreachable.
func (mw *Middleware) RateLimitMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !mw.cfg.RateLimit.Enabled || strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r)
			bucket, limit, window := mw.limitFor(r.URL.Path)

			count, err := mw.cacheService.IncrementRateLimit(r.Context(), ip, bucket, window)
			if err != nil {
				if !errors.Is(err, services.ErrCacheDisabled) {
					mw.logger.Warn("Rate limit cache error, allowing request",
						gecho.Field("error", err),
						gecho.Field("ip", ip),
						gecho.Field("bucket", bucket),
					)
				}
				next.ServeHTTP(w, r)
				return
			}

			reset := strconv.FormatInt(time.Now().Add(window).Unix(), 10)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Reset", reset)

			if count > limit {
				mw.logger.Warn("Rate limit exceeded",
					gecho.Field("ip", ip),
					gecho.Field("bucket", bucket),
					gecho.Field("count", count),
					gecho.Field("limit", limit),
				)
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				gecho.TooManyRequests(w,
					gecho.WithMessage("Rate limit exceeded. Please try again later."),
					gecho.WithData(map[string]any{
						"limit":       limit,
						"window":      window.String(),
						"retry_after": int(window.Seconds()),
					}),
					gecho.Send(),
				)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(0, limit-count)))
			next.ServeHTTP(w, r)
		})
	}
}
