package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"volume-index/internal/cache"
)

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    interface{}
		expected string
	}{
		{name: "Simple map", input: map[string]string{"status": "ok"}, expected: `{"status":"ok"}`},
		{name: "String slice", input: []string{"a", "b", "c"}, expected: `["a","b","c"]`},
		{name: "Null", input: nil, expected: `null`},
		{name: "Empty slice", input: []cache.CachedEntry{}, expected: `[]`},
		{
			name:     "Cached entry",
			input:    cache.NewEntry("/a/x.txt", false),
			expected: `{"file_path":"/a/x.txt","file_type":"file"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeJSON(w, tt.input)

			body := w.Body.String()
			// Trim newline that json.Encoder adds
			body = body[:len(body)-1]

			if body != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, body)
			}
		})
	}
}

func TestWriteJSONHandlesInvalidTypes(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	writeJSON(w, make(chan int))

	if w.Body.Len() != 0 {
		t.Errorf("Expected no body for an unencodable value, got %q", w.Body.String())
	}
}

func TestWriteJSONError(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	writeJSONError(w, "name is required", http.StatusBadRequest)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json, got %q", ct)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode JSON: %v", err)
	}
	if body["error"] != "name is required" {
		t.Errorf("Expected error message, got %v", body)
	}
}

func TestWriteJSONStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status string
		code   int
	}{
		{status: "ready", code: http.StatusOK},
		{status: "not_ready", code: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeJSONStatus(w, tt.status, tt.code)

			if w.Code != tt.code {
				t.Errorf("Expected status %d, got %d", tt.code, w.Code)
			}

			var body map[string]string
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode JSON: %v", err)
			}
			if body["status"] != tt.status {
				t.Errorf("Expected status %q, got %q", tt.status, body["status"])
			}
		})
	}
}

func TestErrorStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "canceled", err: fmt.Errorf("indexing /: %w", context.Canceled), want: http.StatusServiceUnavailable},
		{name: "deadline", err: context.DeadlineExceeded, want: http.StatusServiceUnavailable},
		{name: "io failure", err: cache.NewError(cache.IoFailure, "/x", errors.New("boom")), want: http.StatusInternalServerError},
		{name: "other", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorStatus(tt.err); got != tt.want {
				t.Errorf("errorStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
