package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRespondJSON(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		data       any
		expectBody string
	}{
		{"object", http.StatusOK, map[string]int{"count": 42}, `{"count":42}`},
		{"created", http.StatusCreated, map[string]string{"id": "x"}, `{"id":"x"}`},
		{"array", http.StatusOK, []string{"a", "b"}, `["a","b"]`},
		{"nil data", http.StatusNoContent, nil, ``},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondJSON(rec, tc.status, tc.data)

			if rec.Code != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected Content-Type 'application/json', got '%s'", ct)
			}
			if got := string(trimNewline(rec.Body.Bytes())); got != tc.expectBody {
				t.Errorf("expected body %s, got %s", tc.expectBody, got)
			}
		})
	}
}

func trimNewline(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] == '\n' {
		return b[:len(b)-1]
	}
	return b
}

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	respondError(rec, http.StatusBadRequest, "bad input")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
	var body map[string]string
	decodeJSON(t, rec, &body)
	if body["error"] != "bad input" {
		t.Errorf("expected error 'bad input', got %q", body["error"])
	}
}

func TestHealthCheck(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodHead} {
		rec := httptest.NewRecorder()
		HealthCheck(rec, httptest.NewRequest(method, "/api/v1/health", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected status 200, got %d", method, rec.Code)
		}
	}
}

func TestSanitizeForLog(t *testing.T) {
	if got := sanitizeForLog("a\nb\rc"); got != "abc" {
		t.Errorf("expected 'abc', got %q", got)
	}
}

func TestReadImage(t *testing.T) {
	t.Run("with file", func(t *testing.T) {
		req := multipartRequest(t, "/", []byte("jpeg"), nil)
		data, err := readImage(httptest.NewRecorder(), req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != "jpeg" {
			t.Errorf("expected 'jpeg', got %q", data)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		req := multipartRequest(t, "/", nil, map[string]string{"person": "x"})
		if _, err := readImage(httptest.NewRecorder(), req); err != errMissingImage {
			t.Errorf("expected errMissingImage, got %v", err)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		req := multipartRequest(t, "/", []byte{}, nil)
		if _, err := readImage(httptest.NewRecorder(), req); err != errMissingImage {
			t.Errorf("expected errMissingImage, got %v", err)
		}
	})

	t.Run("not multipart", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if _, err := readImage(httptest.NewRecorder(), req); err == nil {
			t.Error("expected error for non-multipart request")
		}
	})
}
