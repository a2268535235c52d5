package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/Kell-C/amazon-scraper/models"
)

func TestKey_NormalizesKeyword(t *testing.T) {
	if Key("Laptop") != Key("  laptop ") {
		t.Error("case and whitespace should not change the cache key")
	}
	if Key("laptop") == Key("keyboard") {
		t.Error("different keywords should produce different keys")
	}
}

func TestGetSet_RoundTrip(t *testing.T) {
	c := New(10)
	resp := &models.SearchResponse{Success: true, Count: 2}

	c.Set(Key("laptop"), resp)

	got, hit := c.Get(Key("laptop"), 60_000)
	if !hit {
		t.Fatal("expected cache hit")
	}
	if got.Count != 2 {
		t.Errorf("count = %d, want 2", got.Count)
	}
}

func TestGet_MaxAgeZeroDisablesLookup(t *testing.T) {
	c := New(10)
	c.Set(Key("laptop"), &models.SearchResponse{Success: true})

	if _, hit := c.Get(Key("laptop"), 0); hit {
		t.Error("maxAge 0 should disable cache lookup")
	}
}

func TestGet_ExpiredEntryMisses(t *testing.T) {
	c := New(10)
	c.Set(Key("laptop"), &models.SearchResponse{Success: true})

	// Backdate the entry past the caller's max age.
	c.mu.Lock()
	c.store[Key("laptop")].createdAt = time.Now().Add(-time.Minute)
	c.mu.Unlock()

	if _, hit := c.Get(Key("laptop"), 1000); hit {
		t.Error("entry older than maxAge should miss")
	}
}

func TestSet_EvictsAtCapacity(t *testing.T) {
	c := New(3)
	for i := 0; i < 5; i++ {
		c.Set(Key(fmt.Sprintf("kw-%d", i)), &models.SearchResponse{})
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.store) > 3 {
		t.Errorf("cache exceeded capacity: %d entries", len(c.store))
	}
}
