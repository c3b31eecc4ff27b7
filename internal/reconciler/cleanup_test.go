package reconciler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/relaygate/internal/repo"
)

// fakeCleanupActivityStore — in-memory реализация cleanupActivityStore.
type fakeCleanupActivityStore struct {
	pairs   []repo.ExpiredPair
	deleted []uuid.UUID
}

func (s *fakeCleanupActivityStore) SelectCompletedExpiredJoin(ctx context.Context, now time.Time, retention time.Duration, limit int) ([]repo.ExpiredPair, error) {
	if len(s.pairs) > limit {
		return s.pairs[:limit], nil
	}
	return s.pairs, nil
}

func (s *fakeCleanupActivityStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	return nil
}

// fakeCleanupResponseStore — in-memory реализация cleanupResponseStore.
type fakeCleanupResponseStore struct {
	deleted []uuid.UUID
}

func (s *fakeCleanupResponseStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func TestCleanupWorker_Tick_DeletesExpiredActivityAndResponse(t *testing.T) {
	activityID := uuid.New()
	responseID := uuid.New()

	activities := &fakeCleanupActivityStore{pairs: []repo.ExpiredPair{
		{ActivityID: activityID, ResponseID: responseID, HasResponse: true},
	}}
	responses := &fakeCleanupResponseStore{}

	w := NewCleanupWorker(activities, responses, 24*time.Hour, testLogger())

	if err := w.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(responses.deleted) != 1 || responses.deleted[0] != responseID {
		t.Fatalf("expected response %s to be deleted, got %v", responseID, responses.deleted)
	}
	if len(activities.deleted) != 1 || activities.deleted[0] != activityID {
		t.Fatalf("expected activity %s to be deleted, got %v", activityID, activities.deleted)
	}
}

func TestCleanupWorker_Tick_SkipsResponseDeleteWhenAbsent(t *testing.T) {
	activityID := uuid.New()

	activities := &fakeCleanupActivityStore{pairs: []repo.ExpiredPair{
		{ActivityID: activityID, HasResponse: false},
	}}
	responses := &fakeCleanupResponseStore{}

	w := NewCleanupWorker(activities, responses, 24*time.Hour, testLogger())

	if err := w.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(responses.deleted) != 0 {
		t.Fatalf("expected no response deletes, got %v", responses.deleted)
	}
	if len(activities.deleted) != 1 {
		t.Fatalf("expected activity to be deleted, got %v", activities.deleted)
	}
}

func TestCleanupWorker_Tick_NoCandidatesIsNoop(t *testing.T) {
	activities := &fakeCleanupActivityStore{}
	responses := &fakeCleanupResponseStore{}

	w := NewCleanupWorker(activities, responses, 24*time.Hour, testLogger())

	if err := w.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(activities.deleted) != 0 || len(responses.deleted) != 0 {
		t.Fatal("expected no deletes")
	}
}
