package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return "sess:" + accessID
}

func newTestManager() (*Manager, *mockStore) {
	store := newMockStore()
	return &Manager{store: store, keyer: store, ttl: time.Hour}, store
}

func TestManagerGenerateAndRotate(t *testing.T) {
	manager, store := newTestManager()
	ctx := context.Background()
	userID := uuid.New()
	accessID := "access-123"

	token, err := manager.Generate(ctx, accessID, userID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if stored := store.data[store.AccessSessionKey(accessID)]; !strings.HasSuffix(stored, ":"+token) {
		t.Fatalf("expected stored value to carry token %q, got %q", token, stored)
	}

	if _, _, err := manager.Rotate(ctx, accessID, userID, "wrong"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected invalid refresh token error, got %v", err)
	}
	if _, _, err := manager.Rotate(ctx, accessID, uuid.New(), token); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected token bound to another user to be rejected, got %v", err)
	}

	newAccessID, newToken, err := manager.Rotate(ctx, accessID, userID, token)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if _, exists := store.data[store.AccessSessionKey(accessID)]; exists {
		t.Fatalf("old access key left behind")
	}
	if ok, _ := manager.HasSession(ctx, newAccessID); !ok {
		t.Fatalf("expected new session to exist")
	}
	if _, _, err := manager.Rotate(ctx, accessID, userID, token); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected replayed refresh token to be rejected, got %v", err)
	}
	if newToken == token {
		t.Fatalf("expected refresh token to change on rotation")
	}
}

func TestManagerRevokeAndHasSession(t *testing.T) {
	manager, _ := newTestManager()
	ctx := context.Background()

	if _, err := manager.Generate(ctx, "a1", uuid.New()); err != nil {
		t.Fatalf("generate: %v", err)
	}
	ok, err := manager.HasSession(ctx, "a1")
	if err != nil || !ok {
		t.Fatalf("expected session present, ok=%v err=%v", ok, err)
	}
	if err := manager.Revoke(ctx, "a1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, err = manager.HasSession(ctx, "a1")
	if err != nil || ok {
		t.Fatalf("expected session gone, ok=%v err=%v", ok, err)
	}
	if _, err := manager.HasSession(ctx, " "); err == nil {
		t.Fatalf("expected error for blank access id")
	}
}

func TestDecodeValueRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "no-separator", "not-a-uuid:token", uuid.NewString() + ":"} {
		if _, _, ok := decodeValue(raw); ok {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}
