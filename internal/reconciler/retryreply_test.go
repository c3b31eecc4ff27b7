package reconciler

import (
	"context"
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

// fakeRetryReplyStore — in-memory реализация retryReplyStore для тестов.
type fakeRetryReplyStore struct {
	mu         sync.Mutex
	activities map[uuid.UUID]*domain.Activity
}

func (s *fakeRetryReplyStore) SelectEarliestByStates(ctx context.Context, states []domain.State, limit int) ([]domain.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Activity
	for _, a := range s.activities {
		for _, st := range states {
			if a.State == st {
				out = append(out, *a)
			}
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *fakeRetryReplyStore) UpdateState(ctx context.Context, id uuid.UUID, state domain.State, nodeID string) error {
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

// fakeResponseGetter — in-memory реализация worker.ResponseGetter.
type fakeResponseGetter struct {
	responses map[uuid.UUID]*domain.Response
}

func (s *fakeResponseGetter) GetByActivityID(ctx context.Context, activityID uuid.UUID) (*domain.Response, error) {
	r, ok := s.responses[activityID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return r, nil
}

func testRetryConfig() config.Config {
	return config.Config{NodeID: "test-node", AllowedResponseCodes: []int{200, 201, 202}}
}

func TestRetryReplyWorker_Tick_SuccessMovesToCompleted(t *testing.T) {
	reply := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer reply.Close()

	activityID := uuid.New()
	activities := &fakeRetryReplyStore{activities: map[uuid.UUID]*domain.Activity{
		activityID: {
			ID:          activityID,
			ReplyURL:    reply.URL,
			ReplyMethod: http.MethodPost,
			State:       domain.StateReplyFailed,
			CreatedAt:   time.Now(),
		},
	}}
	responses := &fakeResponseGetter{responses: map[uuid.UUID]*domain.Response{
		activityID: {ID: uuid.New(), ResponseID: activityID, StatusCode: 200},
	}}

	w := NewRetryReplyWorker(testRetryConfig(), activities, responses, testLogger())

	if err := w.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if activities.activities[activityID].State != domain.StateCompleted {
		t.Fatalf("expected COMPLETED, got %s", activities.activities[activityID].State)
	}
}

func TestRetryReplyWorker_Tick_RepeatedFailureStaysReplyFailed(t *testing.T) {
	reply := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer reply.Close()

	activityID := uuid.New()
	activities := &fakeRetryReplyStore{activities: map[uuid.UUID]*domain.Activity{
		activityID: {
			ID:          activityID,
			ReplyURL:    reply.URL,
			ReplyMethod: http.MethodPost,
			State:       domain.StateReplyFailed,
			CreatedAt:   time.Now(),
		},
	}}
	responses := &fakeResponseGetter{responses: map[uuid.UUID]*domain.Response{
		activityID: {ID: uuid.New(), ResponseID: activityID, StatusCode: 200},
	}}

	w := NewRetryReplyWorker(testRetryConfig(), activities, responses, testLogger())

	if err := w.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if activities.activities[activityID].State != domain.StateReplyFailed {
		t.Fatalf("expected to remain REPLY_FAILED, got %s", activities.activities[activityID].State)
	}
}

func TestRetryReplyWorker_Tick_NoCandidatesIsNoop(t *testing.T) {
	activities := &fakeRetryReplyStore{activities: map[uuid.UUID]*domain.Activity{}}
	responses := &fakeResponseGetter{responses: map[uuid.UUID]*domain.Response{}}

	w := NewRetryReplyWorker(testRetryConfig(), activities, responses, testLogger())

	if err := w.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
