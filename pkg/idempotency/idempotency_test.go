package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeStore struct {
	keys    map[string]string
	setErr  error
	deleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{keys: map[string]string{}}
}

func (s *fakeStore) Get(_ context.Context, key string) (string, error) {
	return s.keys[key], nil
}

func (s *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if s.setErr != nil {
		return false, s.setErr
	}
	if _, exists := s.keys[key]; exists {
		return false, nil
	}
	s.keys[key] = "1"
	return true, nil
}

func (s *fakeStore) IdempotencyKey(scope, id string) string {
	return "sp:idempotency:" + scope + ":" + id
}

func (s *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.keys, key)
		s.deleted = append(s.deleted, key)
	}
	return nil
}

func TestCheckAndMarkProcessed(t *testing.T) {
	store := newFakeStore()
	manager, err := NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	eventID := uuid.New()

	already, err := manager.CheckAndMarkProcessed(context.Background(), "recon-worker", eventID)
	if err != nil {
		t.Fatalf("first check: %v", err)
	}
	if already {
		t.Fatal("first observation must not report already processed")
	}

	already, err = manager.CheckAndMarkProcessed(context.Background(), "recon-worker", eventID)
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if !already {
		t.Fatal("second observation must report already processed")
	}
}

func TestDeleteAllowsRetry(t *testing.T) {
	store := newFakeStore()
	manager, _ := NewManager(store, time.Hour)
	eventID := uuid.New()

	if _, err := manager.CheckAndMarkProcessed(context.Background(), "recon-worker", eventID); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if err := manager.Delete(context.Background(), "recon-worker", eventID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	already, err := manager.CheckAndMarkProcessed(context.Background(), "recon-worker", eventID)
	if err != nil {
		t.Fatalf("re-check: %v", err)
	}
	if already {
		t.Fatal("deleted marker must allow reprocessing")
	}
}

func TestManagerValidation(t *testing.T) {
	if _, err := NewManager(nil, time.Hour); err == nil {
		t.Fatal("nil store must be rejected")
	}
	store := newFakeStore()
	manager, _ := NewManager(store, time.Hour)
	if _, err := manager.CheckAndMarkProcessed(context.Background(), "", uuid.New()); err == nil {
		t.Fatal("empty consumer must be rejected")
	}
	if _, err := manager.CheckAndMarkProcessed(context.Background(), "recon-worker", uuid.Nil); err == nil {
		t.Fatal("nil event id must be rejected")
	}
}
