package cache

import (
	"context"
	"testing"
	"time"

	"github.com/xraph/depot/id"
	"github.com/xraph/depot/session"
)

func newSession(token string, userID id.UserID) *session.Session {
	return &session.Session{ID: id.NewSessionID(), Token: token, UserID: userID}
}

func TestMemoryCacheHitMiss(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(time.Minute))
	s := newSession("tok-1", id.NewUserID())

	// Miss
	if _, ok := c.Get(ctx, "tok-1"); ok {
		t.Fatal("expected cache miss")
	}

	// Set + Hit
	c.Set(ctx, s)
	got, ok := c.Get(ctx, "tok-1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.ID != s.ID {
		t.Fatal("cached session mismatch")
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(1 * time.Millisecond))

	c.Set(ctx, newSession("tok-1", id.NewUserID()))
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get(ctx, "tok-1"); ok {
		t.Fatal("expected cache miss after TTL expiry")
	}
	if c.Len() != 0 {
		t.Fatal("expired entry should be removed on read")
	}
}

func TestMemoryCacheInvalidateToken(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	c.Set(ctx, newSession("tok-1", id.NewUserID()))

	c.InvalidateToken(ctx, "tok-1")
	if _, ok := c.Get(ctx, "tok-1"); ok {
		t.Fatal("expected miss after invalidation")
	}
	c.InvalidateToken(ctx, "tok-unknown")
}

func TestMemoryCacheInvalidateSession(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	s := newSession("tok-1", id.NewUserID())
	c.Set(ctx, s)
	c.Set(ctx, newSession("tok-2", id.NewUserID()))

	c.InvalidateSession(ctx, s.ID.String())
	if _, ok := c.Get(ctx, "tok-1"); ok {
		t.Fatal("expected miss after session invalidation")
	}
	if _, ok := c.Get(ctx, "tok-2"); !ok {
		t.Fatal("other sessions must stay cached")
	}
}

func TestMemoryCacheInvalidateUser(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	u1, u2 := id.NewUserID(), id.NewUserID()
	c.Set(ctx, newSession("a", u1))
	c.Set(ctx, newSession("b", u1))
	c.Set(ctx, newSession("c", u2))

	c.InvalidateUser(ctx, u1)
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", c.Len())
	}
	if _, ok := c.Get(ctx, "c"); !ok {
		t.Fatal("expected u2 session to remain")
	}
}

func TestMemoryCacheMaxSize(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithMaxSize(2))
	uid := id.NewUserID()

	c.Set(ctx, newSession("a", uid))
	c.Set(ctx, newSession("b", uid))
	c.Set(ctx, newSession("c", uid))

	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
	if _, ok := c.Get(ctx, "c"); !ok {
		t.Fatal("newest entry must be cached")
	}
}

func TestMemoryCacheReturnsCopy(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	c.Set(ctx, newSession("a", id.NewUserID()))

	got, _ := c.Get(ctx, "a")
	got.Token = "mutated"
	again, _ := c.Get(ctx, "a")
	if again.Token != "a" {
		t.Fatal("cache must not share session values")
	}
}
