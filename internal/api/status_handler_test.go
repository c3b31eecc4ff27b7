package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shaiso/relaygate/internal/domain"
)

func TestStatus_MissingIDReturnsBadRequest(t *testing.T) {
	h := newTestHandler(newFakeActivityStore())

	req := httptest.NewRequest(http.MethodGet, "/message", nil)
	rec := httptest.NewRecorder()

	h.Status(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestStatus_InvalidIDReturnsBadRequest(t *testing.T) {
	h := newTestHandler(newFakeActivityStore())

	req := httptest.NewRequest(http.MethodGet, "/message?id=not-a-uuid", nil)
	rec := httptest.NewRecorder()

	h.Status(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestStatus_UnknownIDReturns404(t *testing.T) {
	h := newTestHandler(newFakeActivityStore())

	req := httptest.NewRequest(http.MethodGet, "/message?id="+uuid.New().String(), nil)
	rec := httptest.NewRecorder()

	h.Status(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestStatus_KnownIDReturnsState(t *testing.T) {
	store := newFakeActivityStore()
	id := uuid.New()
	store.activities[id] = domain.Activity{ID: id, State: domain.StateCompleted}
	h := newTestHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/message?id="+id.String(), nil)
	rec := httptest.NewRecorder()

	h.Status(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), string(domain.StateCompleted)) {
		t.Fatalf("expected body to mention COMPLETED, got %s", rec.Body.String())
	}
}
