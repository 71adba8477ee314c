// SPDX-License-Identifier: GPL-3.0-only

package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// fixedWindowStore counts requests per client address inside a fixed window.
// All counters reset together when the window rolls over.
type fixedWindowStore struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	started time.Time
	counts  map[string]int
}

func (s *fixedWindowStore) Allow(identifier string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if now.Sub(s.started) >= s.window {
		s.started = now
		s.counts = make(map[string]int)
	}

	s.counts[identifier]++
	return s.counts[identifier] <= s.limit, nil
}

// RateLimiter throttles a route class to limit requests per window per
// client address, e.g. RateLimiter(10, time.Minute) on login routes.
func RateLimiter(limit int, window time.Duration) echo.MiddlewareFunc {
	store := &fixedWindowStore{
		limit:   limit,
		window:  window,
		started: time.Now(),
		counts:  make(map[string]int),
	}
	return middleware.RateLimiterWithConfig(rateLimiterConfig(store))
}

// DefaultRateLimiter is the coarse server-wide limiter applied to every
// route; stricter per-route limiters stack on top of it.
func DefaultRateLimiter() echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Every(time.Hour / 50),
		Burst:     50,
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(rateLimiterConfig(store))
}

func rateLimiterConfig(store middleware.RateLimiterStore) middleware.RateLimiterConfig {
	return middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return &echo.HTTPError{
				Code:    http.StatusForbidden,
				Message: "Unable to identify client for rate limiting",
			}
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return &echo.HTTPError{
				Code:    http.StatusTooManyRequests,
				Message: "Rate limit exceeded, please try again later",
			}
		},
	}
}
