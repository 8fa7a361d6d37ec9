package engine

import (
	"testing"
	"time"
)

func TestDomainMemory_Expiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	dm := NewDomainMemory(time.Minute, 0)
	dm.now = func() time.Time { return now }

	dm.Set("www.xiaohongshu.com", "rod")
	if got := dm.Get("www.xiaohongshu.com"); got != "rod" {
		t.Fatalf("Get = %q, want rod", got)
	}

	now = now.Add(2 * time.Minute)
	if got := dm.Get("www.xiaohongshu.com"); got != "" {
		t.Errorf("Get after expiry = %q, want empty", got)
	}
	if dm.Len() != 0 {
		t.Errorf("Len = %d, want 0", dm.Len())
	}
}

func TestDomainMemory_Prune(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	dm := NewDomainMemory(time.Minute, 0)
	dm.now = func() time.Time { return now }

	dm.Set("a", "http")
	now = now.Add(30 * time.Second)
	dm.Set("b", "rod")
	now = now.Add(45 * time.Second)

	dm.prune()
	if dm.Len() != 1 || dm.Get("b") != "rod" {
		t.Errorf("after prune: len=%d b=%q", dm.Len(), dm.Get("b"))
	}
}

func TestDomainMemory_NilAndStop(t *testing.T) {
	var dm *DomainMemory
	dm.Set("a", "http")
	if dm.Get("a") != "" || dm.Len() != 0 {
		t.Error("nil memory should remember nothing")
	}
	dm.Stop()

	live := NewDomainMemory(time.Minute, time.Hour)
	live.Stop()
	live.Stop()
}
