// Package throttle limits how often one client may hit an endpoint.
package throttle

import (
	"sync"
	"time"

	"github.com/Laisky/errors/v2"
	"golang.org/x/time/rate"
)

// KeyedThrottleCfg configuration for KeyedThrottle
type KeyedThrottleCfg struct {
	// NPerMinute is the sustained rate allowed for each key.
	NPerMinute int
	// Burst is how many requests a key may make at once.
	Burst int
	// IdleTTL drops a key's limiter after it has been unused this long.
	IdleTTL time.Duration
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedThrottle keeps one token bucket per key, e.g. per client ip.
type KeyedThrottle struct {
	sync.Mutex
	cfg     KeyedThrottleCfg
	keys    map[string]*entry
	now     func() time.Time
	checked time.Time
}

// NewKeyedThrottle create new KeyedThrottle
func NewKeyedThrottle(cfg KeyedThrottleCfg) (*KeyedThrottle, error) {
	if cfg.NPerMinute <= 0 {
		return nil, errors.New("NPerMinute must bigger than 0")
	}
	if cfg.Burst < 1 {
		return nil, errors.New("burst must bigger than 0")
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}

	return &KeyedThrottle{
		cfg:  cfg,
		keys: map[string]*entry{},
		now:  time.Now,
	}, nil
}

// Allow reports whether key may proceed now, consuming one token when it may.
func (t *KeyedThrottle) Allow(key string) bool {
	t.Lock()
	defer t.Unlock()

	now := t.now()
	t.evictLocked(now)

	e, ok := t.keys[key]
	if !ok {
		e = &entry{
			limiter: rate.NewLimiter(rate.Limit(float64(t.cfg.NPerMinute)/60), t.cfg.Burst),
		}
		t.keys[key] = e
	}
	e.lastSeen = now

	return e.limiter.AllowN(now, 1)
}

// evictLocked drops idle keys, at most once per IdleTTL.
func (t *KeyedThrottle) evictLocked(now time.Time) {
	if now.Sub(t.checked) < t.cfg.IdleTTL {
		return
	}
	t.checked = now

	for k, e := range t.keys {
		if now.Sub(e.lastSeen) >= t.cfg.IdleTTL {
			delete(t.keys, k)
		}
	}
}

// Len returns the number of tracked keys.
func (t *KeyedThrottle) Len() int {
	t.Lock()
	defer t.Unlock()
	return len(t.keys)
}
