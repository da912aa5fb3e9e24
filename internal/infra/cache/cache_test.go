package cache_test

import (
	"testing"
	"time"

	"github.com/boddenberg/finance-dashboard-go/internal/domain"
	"github.com/boddenberg/finance-dashboard-go/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[[]domain.Transaction](5 * time.Minute)
	defer c.Close()

	txns := []domain.Transaction{{ID: "tx-1", Category: "Food"}}
	c.Set("cust-1", txns)

	got, ok := c.Get("cust-1")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if len(got) != 1 || got[0].ID != "tx-1" {
		t.Errorf("unexpected cached value: %+v", got)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	if _, ok := c.Get("nonexistent"); ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)
	defer c.Close()

	c.Set("key1", "value1")
	time.Sleep(100 * time.Millisecond)

	if _, ok := c.Get("key1"); ok {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestCache_SweepRemovesExpired(t *testing.T) {
	c := cache.New[string](20 * time.Millisecond)
	defer c.Close()

	c.Set("key1", "value1")
	time.Sleep(80 * time.Millisecond)

	if n := c.Len(); n != 0 {
		t.Errorf("expected sweeper to drop expired entry, %d left", n)
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	c.Set("key1", "value1")
	c.Delete("key1")

	if _, ok := c.Get("key1"); ok {
		t.Fatal("expected key to be deleted")
	}
}

func TestCache_ZeroTTLDisablesCaching(t *testing.T) {
	c := cache.New[string](0)
	defer c.Close()

	c.Set("key1", "value1")
	if _, ok := c.Get("key1"); ok {
		t.Fatal("expected no caching with zero ttl")
	}
}

func TestCache_CloseTwice(t *testing.T) {
	c := cache.New[string](time.Minute)
	c.Close()
	c.Close()
}
