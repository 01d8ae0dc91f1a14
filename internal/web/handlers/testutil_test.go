package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kozaktomas/face-index/internal/extractor"
	"github.com/kozaktomas/face-index/internal/identity"
	"github.com/kozaktomas/face-index/internal/snapshot"
	"github.com/kozaktomas/face-index/internal/store/mock"
)

// multipartRequest builds a POST request with an optional image and form fields.
func multipartRequest(t *testing.T, path string, image []byte, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}
	if image != nil {
		part, err := mw.CreateFormFile(imageField, "photo.jpg")
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		part.Write(image)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// fakeExtractor returns the faces registered for an image's bytes.
func fakeExtractor(faces map[string][]extractor.Face) extractor.Extractor {
	return extractor.Func(func(ctx context.Context, image []byte) ([]extractor.Face, error) {
		if string(image) == "broken" {
			return nil, context.DeadlineExceeded
		}
		return faces[string(image)], nil
	})
}

func newTestCache(t *testing.T, s *mock.MockStore) *snapshot.Cache {
	t.Helper()
	c, err := snapshot.NewCache(context.Background(), s, time.Minute, time.Now())
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	return c
}

func alice() identity.Entry {
	return identity.Entry{Label: "Texas/Harris/Houston/Alice", Embedding: []float32{0.1, 0.2}}
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", rec.Body.String(), err)
	}
}
