package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mgrendahl/tackle/pkg/auth"
)

func testIdentity(id, login string) *auth.Identity {
	return &auth.Identity{Provider: "github", ID: id, Login: login}
}

func TestNew(t *testing.T) {
	sess, err := New("token-123", testIdentity("42", "jane"), time.Hour)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if sess.ID == "" {
		t.Error("New should generate a session ID")
	}
	if sess.AccessToken != "token-123" {
		t.Errorf("AccessToken = %q, want token-123", sess.AccessToken)
	}
	if sess.IsExpired() {
		t.Error("fresh session should not be expired")
	}
	if sess.UserID() != "github:42" {
		t.Errorf("UserID() = %q, want github:42", sess.UserID())
	}
}

func TestSessionUserID(t *testing.T) {
	var nilSess *Session
	if got := nilSess.UserID(); got != "" {
		t.Errorf("nil session UserID() = %q, want empty", got)
	}
	noUser := &Session{ID: "x"}
	if got := noUser.UserID(); got != "" {
		t.Errorf("no-user session UserID() = %q, want empty", got)
	}
}

func TestGenerateIDUnique(t *testing.T) {
	a, err := GenerateID()
	if err != nil {
		t.Fatalf("GenerateID error: %v", err)
	}
	b, err := GenerateID()
	if err != nil {
		t.Fatalf("GenerateID error: %v", err)
	}
	if a == b {
		t.Error("GenerateID should not repeat")
	}
	// 32 random bytes base64-encoded
	if len(a) != 44 {
		t.Errorf("GenerateID length = %d, want 44", len(a))
	}
}

func TestDevSession(t *testing.T) {
	sess := Dev()
	if sess.IsExpired() {
		t.Error("dev session should not expire")
	}
	if sess.UserID() != "static:local" {
		t.Errorf("UserID() = %q, want static:local", sess.UserID())
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	// Missing session: nil, nil
	sess, err := store.Get(ctx, "nope")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if sess != nil {
		t.Error("Get of missing session should return nil")
	}

	// Roundtrip
	live, err := New("token", testIdentity("42", "jane"), time.Hour)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if err := store.Set(ctx, live); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	got, err := store.Get(ctx, live.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got == nil || got.AccessToken != "token" {
		t.Errorf("Get returned %+v, want the stored session", got)
	}

	// Expired session: ErrExpired, then gone
	expired, err := New("old", testIdentity("42", "jane"), -time.Minute)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if err := store.Set(ctx, expired); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if _, err := store.Get(ctx, expired.ID); !errors.Is(err, ErrExpired) {
		t.Errorf("Get expired = %v, want ErrExpired", err)
	}
	if sess, _ := store.Get(ctx, expired.ID); sess != nil {
		t.Error("expired session should have been removed")
	}

	// Delete
	if err := store.Delete(ctx, live.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if sess, _ := store.Get(ctx, live.ID); sess != nil {
		t.Error("deleted session should be gone")
	}
	// Deleting again is fine
	if err := store.Delete(ctx, live.ID); err != nil {
		t.Errorf("second Delete error: %v", err)
	}
}

func TestMemoryStoreList(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	mk := func(id string, user *auth.Identity, age time.Duration) *Session {
		return &Session{
			ID:        id,
			User:      user,
			CreatedAt: base.Add(-age),
			ExpiresAt: time.Now().Add(time.Hour),
		}
	}
	jane := testIdentity("42", "jane")
	other := testIdentity("7", "sam")

	for _, sess := range []*Session{
		mk("older", jane, 2*time.Hour),
		mk("newer", jane, 0),
		mk("foreign", other, time.Hour),
	} {
		if err := store.Set(ctx, sess); err != nil {
			t.Fatalf("Set error: %v", err)
		}
	}
	// Expired sessions never show up in the list
	dead := mk("dead", jane, time.Hour)
	dead.ExpiresAt = time.Now().Add(-time.Minute)
	if err := store.Set(ctx, dead); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	got, err := store.List(ctx, "github:42")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List returned %d sessions, want 2", len(got))
	}
	if got[0].ID != "newer" || got[1].ID != "older" {
		t.Errorf("List order = [%s %s], want [newer older]", got[0].ID, got[1].ID)
	}
}

func TestMemoryStoreCleanup(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	live, _ := New("token", testIdentity("42", "jane"), time.Hour)
	dead, _ := New("token", testIdentity("42", "jane"), -time.Minute)
	store.Set(ctx, live)
	store.Set(ctx, dead)

	if err := store.Cleanup(ctx); err != nil {
		t.Fatalf("Cleanup error: %v", err)
	}

	if sess, _ := store.Get(ctx, live.ID); sess == nil {
		t.Error("Cleanup should keep live sessions")
	}
	store.mu.RLock()
	_, stillThere := store.sessions[dead.ID]
	store.mu.RUnlock()
	if stillThere {
		t.Error("Cleanup should remove expired sessions")
	}
}

func TestMemoryStateStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStateStore()

	state, err := store.Generate(ctx, time.Minute)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if state == "" {
		t.Fatal("Generate returned empty state")
	}

	// First validation succeeds
	ok, err := store.Validate(ctx, state)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if !ok {
		t.Error("first Validate should succeed")
	}

	// Second validation fails: single-use
	ok, err = store.Validate(ctx, state)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if ok {
		t.Error("state tokens must be single-use")
	}

	// Unknown token fails
	ok, _ = store.Validate(ctx, "made-up")
	if ok {
		t.Error("unknown state should not validate")
	}
}

func TestMemoryStateStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStateStore()

	state, err := store.Generate(ctx, -time.Minute)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	// Negative TTL falls back to the default, so this one is valid.
	if ok, _ := store.Validate(ctx, state); !ok {
		t.Error("default-TTL state should validate")
	}

	// Force an expired entry and make sure Cleanup drops it.
	store.mu.Lock()
	store.tokens["stale"] = time.Now().Add(-time.Hour)
	store.mu.Unlock()
	if err := store.Cleanup(ctx); err != nil {
		t.Fatalf("Cleanup error: %v", err)
	}
	store.mu.Lock()
	_, stillThere := store.tokens["stale"]
	store.mu.Unlock()
	if stillThere {
		t.Error("Cleanup should remove expired state tokens")
	}
}
