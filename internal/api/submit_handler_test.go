package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shaiso/relaygate/internal/config"
	"github.com/shaiso/relaygate/internal/domain"
	"github.com/shaiso/relaygate/internal/repo"
)

// fakeActivityStore — in-memory реализация activityStore для тестов,
// без зависимости от Postgres.
type fakeActivityStore struct {
	mu         sync.Mutex
	activities map[uuid.UUID]domain.Activity
	insertErr  error
}

func newFakeActivityStore() *fakeActivityStore {
	return &fakeActivityStore{activities: make(map[uuid.UUID]domain.Activity)}
}

func (s *fakeActivityStore) Insert(ctx context.Context, a *domain.Activity) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activities[a.ID] = *a
	return nil
}

func (s *fakeActivityStore) GetStatus(ctx context.Context, id uuid.UUID) (domain.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.activities[id]
	if !ok {
		return domain.Activity{}, repo.ErrNotFound
	}
	return domain.Activity{ID: a.ID, State: a.State}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHandler(store *fakeActivityStore) *Handler {
	return NewHandler(Config{
		Activities: store,
		AppConfig:  config.Config{NodeID: "test-node"},
		Logger:     testLogger(),
	})
}

func TestSubmit_MissingHeadersReturnsBadRequest(t *testing.T) {
	h := newTestHandler(newFakeActivityStore())

	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader("body"))
	rec := httptest.NewRecorder()

	h.Submit(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "X-Url") {
		t.Fatalf("expected error mentioning missing header, got %s", rec.Body.String())
	}
}

func TestSubmit_ValidRequestPersistsActivityAndReturns202(t *testing.T) {
	store := newFakeActivityStore()
	h := newTestHandler(store)

	var notified uuid.UUID
	h.SetNotifier(func(ctx context.Context, id uuid.UUID) {
		notified = id
	})

	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(`{"hello":"world"}`))
	req.Header.Set(headerURL, "http://target.example/hook")
	req.Header.Set(headerReply, "http://reply.example/hook")
	req.Header.Set(headerReplyMethod, http.MethodPost)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.Submit(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	idHeader := rec.Header().Get(headerActivity)
	if idHeader == "" {
		t.Fatal("expected X-Activity response header to be set")
	}
	id, err := uuid.Parse(idHeader)
	if err != nil {
		t.Fatalf("invalid X-Activity header: %v", err)
	}

	stored, ok := store.activities[id]
	if !ok {
		t.Fatal("expected activity to be persisted")
	}
	if stored.State != domain.StateCreated {
		t.Fatalf("expected CREATED, got %s", stored.State)
	}
	if stored.URL != "http://target.example/hook" {
		t.Fatalf("unexpected url: %s", stored.URL)
	}
	if stored.ReplyMethod != http.MethodPost {
		t.Fatalf("unexpected reply method: %s", stored.ReplyMethod)
	}
	if _, ok := stored.Headers[headerURL]; ok {
		t.Fatal("routing header should not be persisted in Headers map")
	}

	if notified != id {
		t.Fatalf("expected notify hint for %s, got %s", id, notified)
	}
}

func TestSubmit_StoreErrorReturns500(t *testing.T) {
	store := newFakeActivityStore()
	store.insertErr = errors.New("connection reset")
	h := newTestHandler(store)

	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.Header.Set(headerURL, "http://target.example/hook")
	req.Header.Set(headerReply, "http://reply.example/hook")
	req.Header.Set(headerReplyMethod, http.MethodPost)
	rec := httptest.NewRecorder()

	h.Submit(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "reference") {
		t.Fatalf("expected error body with reference, got %s", rec.Body.String())
	}
}
