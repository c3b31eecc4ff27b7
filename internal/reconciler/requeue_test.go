package reconciler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/shaiso/relaygate/internal/domain"
)

// fakeRequeueStore — in-memory реализация requeueStore для тестов.
type fakeRequeueStore struct {
	mu       sync.Mutex
	states   map[string]domain.State
	requeued []string
	err      error
}

func (s *fakeRequeueStore) RequeueSentFailed(ctx context.Context, nodeID string, limit int) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, state := range s.states {
		if n >= limit {
			break
		}
		if state != domain.StateSentFailed {
			continue
		}
		s.states[id] = domain.StateScheduled
		s.requeued = append(s.requeued, id)
		n++
	}
	return n, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequeueWorker_Tick_MovesSentFailedToScheduled(t *testing.T) {
	store := &fakeRequeueStore{states: map[string]domain.State{
		"a": domain.StateSentFailed,
		"b": domain.StateCompleted,
	}}
	w := NewRequeueWorker(store, "test-node", testLogger())

	if err := w.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.states["a"] != domain.StateScheduled {
		t.Fatalf("expected a to be SCHEDULED, got %s", store.states["a"])
	}
	if store.states["b"] != domain.StateCompleted {
		t.Fatalf("expected b to remain COMPLETED, got %s", store.states["b"])
	}
}

func TestRequeueWorker_Tick_NoCandidatesIsNoop(t *testing.T) {
	store := &fakeRequeueStore{states: map[string]domain.State{"a": domain.StateCompleted}}
	w := NewRequeueWorker(store, "test-node", testLogger())

	if err := w.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.requeued) != 0 {
		t.Fatalf("expected no requeues, got %v", store.requeued)
	}
}

func TestRequeueWorker_Tick_PropagatesStoreError(t *testing.T) {
	store := &fakeRequeueStore{err: errors.New("connection reset")}
	w := NewRequeueWorker(store, "test-node", testLogger())

	if err := w.Tick(context.Background()); err == nil {
		t.Fatal("expected error to propagate")
	}
}
