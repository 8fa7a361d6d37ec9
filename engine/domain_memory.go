package engine

import (
	"sync"
	"time"
)

type hostEntry struct {
	engine    string
	expiresAt time.Time
}

// DomainMemory remembers which engine last won for a host. Note pages on
// one host behave alike, so a login wall seen by the http engine is likely
// to be seen again until the entry expires.
type DomainMemory struct {
	mu      sync.Mutex
	entries map[string]hostEntry
	ttl     time.Duration
	now     func() time.Time

	stopOnce sync.Once
	done     chan struct{}
}

// NewDomainMemory creates a DomainMemory whose entries live for ttl. A
// background goroutine prunes expired entries every prune interval until
// Stop is called; prune <= 0 disables it.
func NewDomainMemory(ttl, prune time.Duration) *DomainMemory {
	dm := &DomainMemory{
		entries: make(map[string]hostEntry),
		ttl:     ttl,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	if prune > 0 {
		go dm.pruneLoop(prune)
	}
	return dm
}

// Get returns the remembered engine for host, or "" if none is live.
// A nil DomainMemory remembers nothing.
func (dm *DomainMemory) Get(host string) string {
	if dm == nil {
		return ""
	}
	dm.mu.Lock()
	defer dm.mu.Unlock()
	e, ok := dm.entries[host]
	if !ok {
		return ""
	}
	if dm.now().After(e.expiresAt) {
		delete(dm.entries, host)
		return ""
	}
	return e.engine
}

func (dm *DomainMemory) Set(host, engine string) {
	if dm == nil || host == "" {
		return
	}
	dm.mu.Lock()
	dm.entries[host] = hostEntry{engine: engine, expiresAt: dm.now().Add(dm.ttl)}
	dm.mu.Unlock()
}

func (dm *DomainMemory) Delete(host string) {
	if dm == nil {
		return
	}
	dm.mu.Lock()
	delete(dm.entries, host)
	dm.mu.Unlock()
}

// Len reports the number of stored entries, expired or not.
func (dm *DomainMemory) Len() int {
	if dm == nil {
		return 0
	}
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return len(dm.entries)
}

// Stop ends the prune goroutine. It is safe to call more than once.
func (dm *DomainMemory) Stop() {
	if dm == nil {
		return
	}
	dm.stopOnce.Do(func() { close(dm.done) })
}

func (dm *DomainMemory) prune() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	now := dm.now()
	for host, e := range dm.entries {
		if now.After(e.expiresAt) {
			delete(dm.entries, host)
		}
	}
}

func (dm *DomainMemory) pruneLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-dm.done:
			return
		case <-ticker.C:
			dm.prune()
		}
	}
}
