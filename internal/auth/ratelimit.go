package auth

import (
	"sync"
	"time"
)

// LoginLimiter throttles login attempts per client address and username
// pair using a sliding window with a lockout once the window fills up.
type LoginLimiter struct {
	mu          sync.Mutex
	attempts    map[string]*loginAttempts
	maxAttempts int
	window      time.Duration
	lockout     time.Duration
	stopCleanup chan struct{}
	// now is swappable so window and lockout tests can pin the clock.
	now func() time.Time
}

type loginAttempts struct {
	count       int
	windowStart time.Time
	lockedUntil time.Time
}

// LoginLimitConfig bounds the login attempt rate.
type LoginLimitConfig struct {
	MaxAttempts     int           // attempts allowed inside the window
	Window          time.Duration // sliding window for counting failures
	Lockout         time.Duration // lockout once the window fills
	CleanupInterval time.Duration // how often stale records are dropped
}

// DefaultLoginLimitConfig returns the limits applied to the login form.
func DefaultLoginLimitConfig() LoginLimitConfig {
	return LoginLimitConfig{
		MaxAttempts:     5,
		Window:          15 * time.Minute,
		Lockout:         30 * time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

// NewLoginLimiter creates a limiter and starts its cleanup loop.
func NewLoginLimiter(cfg LoginLimitConfig) *LoginLimiter {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	if cfg.Lockout <= 0 {
		cfg.Lockout = 30 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}

	limiter := &LoginLimiter{
		attempts:    make(map[string]*loginAttempts),
		maxAttempts: cfg.MaxAttempts,
		window:      cfg.Window,
		lockout:     cfg.Lockout,
		stopCleanup: make(chan struct{}),
		now:         time.Now,
	}

	go limiter.cleanupLoop(cfg.CleanupInterval)

	return limiter
}

// Stop ends the background cleanup goroutine.
func (ll *LoginLimiter) Stop() {
	close(ll.stopCleanup)
}

func limiterKey(ip, username string) string {
	return ip + ":" + username
}

// Allow reports whether a login attempt from this address for this account
// may proceed, and for how long to wait when it may not.
func (ll *LoginLimiter) Allow(ip, username string) (bool, time.Duration) {
	now := ll.now()

	ll.mu.Lock()
	defer ll.mu.Unlock()

	record, exists := ll.attempts[limiterKey(ip, username)]
	if !exists {
		return true, 0
	}
	if !record.lockedUntil.IsZero() && now.Before(record.lockedUntil) {
		return false, record.lockedUntil.Sub(now)
	}
	if now.Sub(record.windowStart) > ll.window {
		return true, 0
	}
	if record.count < ll.maxAttempts {
		return true, 0
	}
	return false, ll.lockout
}

// RecordFailure counts a failed attempt and locks the pair out once the
// window fills.
func (ll *LoginLimiter) RecordFailure(ip, username string) {
	now := ll.now()
	key := limiterKey(ip, username)

	ll.mu.Lock()
	defer ll.mu.Unlock()

	record, exists := ll.attempts[key]
	if !exists {
		record = &loginAttempts{windowStart: now}
		ll.attempts[key] = record
	}

	if now.Sub(record.windowStart) > ll.window {
		record.count = 0
		record.windowStart = now
		record.lockedUntil = time.Time{}
	}

	record.count++
	if record.count >= ll.maxAttempts {
		record.lockedUntil = now.Add(ll.lockout)
	}
}

// RecordSuccess clears the failure record after a successful login.
func (ll *LoginLimiter) RecordSuccess(ip, username string) {
	ll.mu.Lock()
	delete(ll.attempts, limiterKey(ip, username))
	ll.mu.Unlock()
}

func (ll *LoginLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ll.cleanup()
		case <-ll.stopCleanup:
			return
		}
	}
}

// cleanup drops records whose window and lockout have both expired.
func (ll *LoginLimiter) cleanup() {
	now := ll.now()
	expiry := ll.window + ll.lockout

	ll.mu.Lock()
	defer ll.mu.Unlock()

	for key, record := range ll.attempts {
		windowExpired := now.Sub(record.windowStart) > expiry
		lockoutExpired := record.lockedUntil.IsZero() || now.After(record.lockedUntil)
		if windowExpired && lockoutExpired {
			delete(ll.attempts, key)
		}
	}
}
