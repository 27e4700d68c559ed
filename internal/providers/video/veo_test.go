package video

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"server/internal/domain"
)

func TestVeoSubmitReturnsOperationHandle(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/veo-3.0-generate:generateVideo" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		if key := r.Header.Get("X-Goog-Api-Key"); key != "platform-key" {
			t.Fatalf("api key header = %q", key)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"operation_id": "op-42"})
	}))
	defer srv.Close()

	adapter := NewVeoAdapter(srv.URL, "platform-key")
	sub, err := adapter.Submit(context.Background(), SubmitRequest{
		ModelKey:        "veo-3.0-generate",
		Prompt:          "a fox in snow",
		DurationSeconds: 8,
		AspectRatio:     "16:9",
	}, nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.TaskHandle != "op-42" {
		t.Fatalf("task handle = %q, want op-42", sub.TaskHandle)
	}
	if sub.Sync != nil {
		t.Fatalf("sync output should be nil for async submit")
	}
	if captured["prompt"] != "a fox in snow" {
		t.Fatalf("prompt = %v", captured["prompt"])
	}
	if captured["duration_seconds"] != float64(8) {
		t.Fatalf("duration_seconds = %v, want 8", captured["duration_seconds"])
	}
}

func TestVeoSubmitNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exhausted", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	adapter := NewVeoAdapter(srv.URL, "platform-key")
	_, err := adapter.Submit(context.Background(), SubmitRequest{Prompt: "x"}, nil)

	var apiErr *domain.ProviderAPIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want ProviderAPIError", err)
	}
	if apiErr.Provider != "veo" {
		t.Fatalf("provider = %q, want veo", apiErr.Provider)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", apiErr.StatusCode)
	}
}

func TestVeoPollStates(t *testing.T) {
	responses := map[string]map[string]any{
		"op-running": {"state": "RUNNING", "progress_percent": 40},
		"op-done":    {"state": "SUCCEEDED", "video_uri": "https://cdn.example.com/out.mp4"},
		"op-failed":  {"state": "FAILED", "error": map[string]any{"message": "safety block"}},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/operations/"):]
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(responses[id])
	}))
	defer srv.Close()

	adapter := NewVeoAdapter(srv.URL, "platform-key")

	res, err := adapter.Poll(context.Background(), "op-running", nil)
	if err != nil {
		t.Fatalf("poll running: %v", err)
	}
	if res.Status != StatusProcessing || res.Progress != 40 {
		t.Fatalf("running = %s/%d, want processing/40", res.Status, res.Progress)
	}

	res, err = adapter.Poll(context.Background(), "op-done", nil)
	if err != nil {
		t.Fatalf("poll done: %v", err)
	}
	if res.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", res.Status)
	}
	if res.Output == nil || res.Output.URL != "https://cdn.example.com/out.mp4" {
		t.Fatalf("output = %+v", res.Output)
	}

	res, err = adapter.Poll(context.Background(), "op-failed", nil)
	if err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	if res.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", res.Status)
	}
	if res.Message != "safety block" {
		t.Fatalf("message = %q, want safety block", res.Message)
	}
}

func TestVeoSubmitRequiresAPIKey(t *testing.T) {
	adapter := NewVeoAdapter("http://unused", "")
	if _, err := adapter.Submit(context.Background(), SubmitRequest{Prompt: "x"}, nil); err == nil {
		t.Fatalf("expected error without api key")
	}
}
