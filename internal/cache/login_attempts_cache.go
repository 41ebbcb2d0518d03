package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/authmodule/authmodule-api/pkg/logger"
	"github.com/authmodule/authmodule-api/pkg/metrics"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const loginAttemptsCacheName = "login_attempts"

// LoginAttemptsCacheInterface tracks failed logins per account
type LoginAttemptsCacheInterface interface {
	IsLocked(email string) (bool, time.Duration)
	RegisterFailure(email string) (locked bool)
	Reset(email string)
}

type attempts struct {
	failures    int
	lockedUntil time.Time
}

// LoginAttemptsCache counts failed password logins and locks an account for
// lockout once maxFailures is reached. Counters expire after the lockout window,
// so a quiet account starts from zero again.
type LoginAttemptsCache struct {
	cache       *gocache.Cache
	mu          sync.Mutex
	maxFailures int
	lockout     time.Duration
	now         func() time.Time
}

// NewLoginAttemptsCache creates a new login attempts cache
func NewLoginAttemptsCache(maxFailures int, lockout time.Duration) *LoginAttemptsCache {
	return &LoginAttemptsCache{
		cache:       gocache.New(lockout, lockout),
		maxFailures: maxFailures,
		lockout:     lockout,
		now:         time.Now,
	}
}

func attemptsKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsLocked reports whether the account is locked and for how much longer
func (c *LoginAttemptsCache) IsLocked(email string) (bool, time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, found := c.cache.Get(attemptsKey(email))
	if !found {
		return false, 0
	}
	a, ok := data.(attempts)
	if !ok {
		c.cache.Delete(attemptsKey(email))
		return false, 0
	}

	remaining := a.lockedUntil.Sub(c.now())
	if remaining <= 0 {
		return false, 0
	}
	return true, remaining
}

// RegisterFailure records a failed attempt and reports whether it locked the account
func (c *LoginAttemptsCache) RegisterFailure(email string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := attemptsKey(email)
	var a attempts
	if data, found := c.cache.Get(key); found {
		if existing, ok := data.(attempts); ok {
			a = existing
		}
	}

	a.failures++
	locked := false
	if a.failures >= c.maxFailures {
		a.failures = 0
		a.lockedUntil = c.now().Add(c.lockout)
		locked = true
		logger.Warn("Account locked after repeated login failures",
			zap.Int("max_failures", c.maxFailures),
			zap.Duration("lockout", c.lockout))
	}

	c.cache.Set(key, a, c.lockout)
	metrics.CacheSize.WithLabelValues(loginAttemptsCacheName).Set(float64(c.cache.ItemCount()))
	return locked
}

// Reset forgets failures for the account after a successful login
func (c *LoginAttemptsCache) Reset(email string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Delete(attemptsKey(email))
	metrics.CacheSize.WithLabelValues(loginAttemptsCacheName).Set(float64(c.cache.ItemCount()))
}
