package rate

import (
	"sync"
	"time"
)

const (
	defaultMemoryMaxEntries    = 10000
	defaultMemorySweepInterval = time.Minute
)

type memoryWindow struct {
	startedAt time.Time
	expiresAt time.Time
}

// memoryWindows is the in-process fallback layer. It is bounded: a
// periodic sweep drops expired windows, and when the hard cap is still
// exceeded the oldest entries are evicted.
type memoryWindows struct {
	mu            sync.Mutex
	windows       map[string]memoryWindow
	maxEntries    int
	sweepInterval time.Duration
	lastSweep     time.Time
}

func newMemoryWindows(maxEntries int, sweepInterval time.Duration) *memoryWindows {
	if maxEntries <= 0 {
		maxEntries = defaultMemoryMaxEntries
	}
	if sweepInterval <= 0 {
		sweepInterval = defaultMemorySweepInterval
	}
	return &memoryWindows{
		windows:       make(map[string]memoryWindow),
		maxEntries:    maxEntries,
		sweepInterval: sweepInterval,
	}
}

func (m *memoryWindows) allow(key string, window time.Duration, now time.Time) (bool, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.maybeSweep(now)

	if w, ok := m.windows[key]; ok && now.Before(w.expiresAt) {
		return false, w.expiresAt.Sub(now)
	}

	if len(m.windows) >= m.maxEntries {
		m.evictOldest(len(m.windows) - m.maxEntries + 1)
	}

	m.windows[key] = memoryWindow{startedAt: now, expiresAt: now.Add(window)}
	return true, 0
}

func (m *memoryWindows) reset(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.windows, key)
}

// maybeSweep drops expired windows, at most once per sweep interval
// regardless of call volume. Caller holds the lock.
func (m *memoryWindows) maybeSweep(now time.Time) {
	if now.Sub(m.lastSweep) < m.sweepInterval {
		return
	}
	m.lastSweep = now

	for key, w := range m.windows {
		if !now.Before(w.expiresAt) {
			delete(m.windows, key)
		}
	}
}

// evictOldest removes the n windows with the earliest start times.
// Emergency valve for when the map hits the hard cap between sweeps.
// Caller holds the lock.
func (m *memoryWindows) evictOldest(n int) {
	for ; n > 0 && len(m.windows) > 0; n-- {
		var (
			oldestKey string
			oldestAt  time.Time
			first     = true
		)
		for key, w := range m.windows {
			if first || w.startedAt.Before(oldestAt) {
				oldestKey = key
				oldestAt = w.startedAt
				first = false
			}
		}
		delete(m.windows, oldestKey)
	}
}

// size reports the current entry count. Test hook.
func (m *memoryWindows) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}
