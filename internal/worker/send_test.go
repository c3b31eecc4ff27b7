package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/relaygate/internal/config"
	"github.com/shaiso/relaygate/internal/domain"
	"github.com/shaiso/relaygate/internal/repo"
)

// fakeActivityStore — in-memory реализация activityStore для тестов,
// без зависимости от Postgres.
type fakeActivityStore struct {
	mu         sync.Mutex
	activities map[uuid.UUID]*domain.Activity
}

func newFakeActivityStore(activities ...*domain.Activity) *fakeActivityStore {
	s := &fakeActivityStore{activities: make(map[uuid.UUID]*domain.Activity)}
	for _, a := range activities {
		s.activities[a.ID] = a
	}
	return s
}

func (s *fakeActivityStore) LeaseEarliest(ctx context.Context, nodeID string) (*domain.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var earliest *domain.Activity
	for _, a := range s.activities {
		if !a.CanLease() {
			continue
		}
		if earliest == nil || a.CreatedAt.Before(earliest.CreatedAt) {
			earliest = a
		}
	}
	if earliest == nil {
		return nil, repo.ErrNotFound
	}
	earliest.State = domain.StateScheduled
	earliest.NodeID = nodeID
	copyVal := *earliest
	return &copyVal, nil
}

func (s *fakeActivityStore) UpdateState(ctx context.Context, id uuid.UUID, state domain.State, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.activities[id]
	if !ok {
		return repo.ErrNotFound
	}
	a.State = state
	a.NodeID = nodeID
	return nil
}

func (s *fakeActivityStore) get(id uuid.UUID) *domain.Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.activities[id]
	if a == nil {
		return nil
	}
	copyVal := *a
	return &copyVal
}

// fakeResponseStore — in-memory реализация responseStore для тестов.
type fakeResponseStore struct {
	mu        sync.Mutex
	responses map[uuid.UUID]*domain.Response
	activities *fakeActivityStore
}

func (s *fakeResponseStore) InsertAndMarkSent(ctx context.Context, resp *domain.Response, activityID uuid.UUID, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.responses == nil {
		s.responses = make(map[uuid.UUID]*domain.Response)
	}
	s.responses[resp.ResponseID] = resp
	return s.activities.UpdateState(ctx, activityID, domain.StateSent, nodeID)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.Config {
	return config.Config{
		NodeID:               "test-node",
		AllowedResponseCodes: []int{200, 201, 202},
	}
}

func TestSendWorker_Tick_SuccessCompletesActivity(t *testing.T) {
	var replyReceived map[string]any
	_ = replyReceived

	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer target.Close()

	var gotTaskID string
	reply := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTaskID = r.Header.Get("X-TaskId")
		w.WriteHeader(http.StatusOK)
	}))
	defer reply.Close()

	activity := &domain.Activity{
		ID:          uuid.New(),
		URL:         target.URL,
		Method:      http.MethodPost,
		ReplyURL:    reply.URL,
		ReplyMethod: http.MethodPost,
		State:       domain.StateCreated,
		CreatedAt:   time.Now(),
	}

	activities := newFakeActivityStore(activity)
	responses := &fakeResponseStore{activities: activities}

	w := &SendWorker{
		cfg:        testConfig(),
		activities: activities,
		responses:  responses,
		logger:     testLogger(),
	}

	if err := w.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := activities.get(activity.ID)
	if got.State != domain.StateCompleted {
		t.Fatalf("expected COMPLETED, got %s", got.State)
	}
	if gotTaskID != activity.ID.String() {
		t.Fatalf("expected X-TaskId %s, got %s", activity.ID, gotTaskID)
	}
}

func TestSendWorker_Tick_TargetFailureMarksSentFailed(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer target.Close()

	activity := &domain.Activity{
		ID:        uuid.New(),
		URL:       target.URL,
		Method:    http.MethodGet,
		ReplyURL:  "http://example.invalid/reply",
		State:     domain.StateCreated,
		CreatedAt: time.Now(),
	}

	activities := newFakeActivityStore(activity)
	responses := &fakeResponseStore{activities: activities}

	var notified uuid.UUID
	w := &SendWorker{
		cfg:        testConfig(),
		activities: activities,
		responses:  responses,
		logger:     testLogger(),
		notify: func(ctx context.Context, id uuid.UUID) {
			notified = id
		},
	}

	if err := w.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := activities.get(activity.ID)
	if got.State != domain.StateSentFailed {
		t.Fatalf("expected SENT_FAILED, got %s", got.State)
	}
	if notified != activity.ID {
		t.Fatalf("expected notify hint for %s, got %s", activity.ID, notified)
	}
}

func TestSendWorker_Tick_ReplyFailureMarksReplyFailed(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()

	reply := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer reply.Close()

	activity := &domain.Activity{
		ID:          uuid.New(),
		URL:         target.URL,
		Method:      http.MethodGet,
		ReplyURL:    reply.URL,
		ReplyMethod: http.MethodPost,
		State:       domain.StateCreated,
		CreatedAt:   time.Now(),
	}

	activities := newFakeActivityStore(activity)
	responses := &fakeResponseStore{activities: activities}

	w := &SendWorker{
		cfg:        testConfig(),
		activities: activities,
		responses:  responses,
		logger:     testLogger(),
	}

	if err := w.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := activities.get(activity.ID)
	if got.State != domain.StateReplyFailed {
		t.Fatalf("expected REPLY_FAILED, got %s", got.State)
	}
}

func TestSendWorker_Tick_NoActivityReturnsErrNoActivity(t *testing.T) {
	activities := newFakeActivityStore()
	responses := &fakeResponseStore{activities: activities}

	w := &SendWorker{
		cfg:        testConfig(),
		activities: activities,
		responses:  responses,
		logger:     testLogger(),
	}

	err := w.Tick(context.Background())
	if !errors.Is(err, ErrNoActivity) {
		t.Fatalf("expected ErrNoActivity, got %v", err)
	}
}
