package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-index/internal/identity"
	"github.com/kozaktomas/face-index/internal/store/mock"
)

func TestStatsHandler_Get(t *testing.T) {
	s := mock.NewMockStore(alice(), alice())
	cache := newTestCache(t, s)
	s.Set(alice(), alice(), identity.Entry{Label: "x", Embedding: []float32{1, 1}})

	rec := httptest.NewRecorder()
	NewStatsHandler(s, cache).Get(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var resp StatsResponse
	decodeJSON(t, rec, &resp)
	if resp.StoredEntries != 3 {
		t.Errorf("expected 3 stored entries, got %d", resp.StoredEntries)
	}
	if resp.SnapshotEntries != 2 || resp.SnapshotLabels != 1 {
		t.Errorf("expected snapshot of 2 entries under 1 label, got %+v", resp)
	}
	if resp.RefreshInterval != "1m0s" {
		t.Errorf("expected refresh interval 1m0s, got %q", resp.RefreshInterval)
	}
}

func TestStatsHandler_StoreError(t *testing.T) {
	s := mock.NewMockStore()
	cache := newTestCache(t, s)
	s.LoadError = errors.New("gone")

	rec := httptest.NewRecorder()
	NewStatsHandler(s, cache).Get(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rec.Code)
	}
}
