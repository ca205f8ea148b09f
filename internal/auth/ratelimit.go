package auth

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultLoginWindow is the minimum spacing between login attempts for the
// same email.
const DefaultLoginWindow = 5 * time.Second

// LoginLimiter bounds login attempts per credential subject. Check is a
// single check-and-stamp: an admitted attempt consumes the window
// immediately, before the downstream result is known, so failed and
// successful attempts are throttled identically.
type LoginLimiter interface {
	Check(email string) error
}

// NewLoginLimiter returns an in-process LoginLimiter admitting one attempt
// per key per window. Keys are normalized emails; the map grows without
// bound for the process lifetime, an accepted tradeoff for login-shaped
// cardinality.
func NewLoginLimiter(window time.Duration) LoginLimiter {
	if window <= 0 {
		window = DefaultLoginWindow
	}
	return &keyedLimiter{
		window: window,
		perKey: make(map[string]*rate.Limiter),
	}
}

type keyedLimiter struct {
	window time.Duration
	mu     sync.Mutex
	perKey map[string]*rate.Limiter
}

// Check admits or rejects an attempt for the given email. The per-key
// rate.Limiter serializes concurrent reservations, so two simultaneous
// attempts for the same key can never both be admitted.
func (l *keyedLimiter) Check(email string) error {
	key := strings.ToLower(strings.TrimSpace(email))

	l.mu.Lock()
	lim, ok := l.perKey[key]
	if !ok {
		lim = rate.NewLimiter(rate.Every(l.window), 1)
		l.perKey[key] = lim
	}
	l.mu.Unlock()

	res := lim.Reserve()
	if delay := res.Delay(); delay > 0 {
		res.Cancel()
		return &RateLimitedError{RetryAfter: ceilSeconds(delay)}
	}
	return nil
}

func ceilSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
