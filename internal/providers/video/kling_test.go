package video

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"server/internal/domain"
)

func TestKlingSubmitRejectsMissingCredential(t *testing.T) {
	adapter := NewKlingAdapter("http://unused")
	if _, err := adapter.Submit(context.Background(), SubmitRequest{Prompt: "x"}, nil); err == nil {
		t.Fatalf("expected error with nil credential")
	}
	if _, err := adapter.Submit(context.Background(), SubmitRequest{Prompt: "x"}, &domain.Credential{Secret: "  "}); err == nil {
		t.Fatalf("expected error with blank secret")
	}
}

func TestKlingSubmitSignsWithOrgSecret(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/videos/image2video" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer org-secret" {
			t.Fatalf("authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"data": map[string]any{"task_id": "kt-7"},
		})
	}))
	defer srv.Close()

	adapter := NewKlingAdapter(srv.URL)
	cred := &domain.Credential{OrgID: "org-1", ProviderID: "kling", Secret: "org-secret"}
	sub, err := adapter.Submit(context.Background(), SubmitRequest{
		JobType:         domain.JobTypeImageToVideo,
		ModelKey:        "kling-v1-6",
		Prompt:          "spin the product",
		SourceMediaURL:  "https://cdn.example.com/shot.png",
		DurationSeconds: 5,
	}, cred)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.TaskHandle != "kt-7" {
		t.Fatalf("task handle = %q, want kt-7", sub.TaskHandle)
	}
	if captured["image"] != "https://cdn.example.com/shot.png" {
		t.Fatalf("image = %v", captured["image"])
	}
	if captured["duration"] != "5" {
		t.Fatalf("duration = %v, want \"5\"", captured["duration"])
	}
}

func TestKlingSubmitEnvelopeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"code": 1201, "message": "balance not enough"})
	}))
	defer srv.Close()

	adapter := NewKlingAdapter(srv.URL)
	_, err := adapter.Submit(context.Background(), SubmitRequest{Prompt: "x"}, &domain.Credential{Secret: "s"})
	if err == nil {
		t.Fatalf("expected envelope error")
	}
}

func TestKlingPollStatusMapping(t *testing.T) {
	responses := map[string]map[string]any{
		"kt-sub":  {"code": 0, "data": map[string]any{"task_id": "kt-sub", "task_status": "submitted"}},
		"kt-run":  {"code": 0, "data": map[string]any{"task_id": "kt-run", "task_status": "processing"}},
		"kt-fail": {"code": 0, "data": map[string]any{"task_id": "kt-fail", "task_status": "failed", "task_status_msg": "content policy"}},
		"kt-ok": {"code": 0, "data": map[string]any{
			"task_id":     "kt-ok",
			"task_status": "succeed",
			"task_result": map[string]any{"videos": []any{map[string]any{"url": "https://kling.example.com/v.mp4"}}},
		}},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/v1/videos/tasks/"):]
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(responses[id])
	}))
	defer srv.Close()

	adapter := NewKlingAdapter(srv.URL)
	cred := &domain.Credential{Secret: "org-secret"}

	for _, handle := range []string{"kt-sub", "kt-run"} {
		res, err := adapter.Poll(context.Background(), handle, cred)
		if err != nil {
			t.Fatalf("poll %s: %v", handle, err)
		}
		if res.Status != StatusProcessing {
			t.Fatalf("%s status = %s, want processing", handle, res.Status)
		}
	}

	res, err := adapter.Poll(context.Background(), "kt-ok", cred)
	if err != nil {
		t.Fatalf("poll succeed: %v", err)
	}
	if res.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", res.Status)
	}
	if res.Output == nil || res.Output.URL != "https://kling.example.com/v.mp4" {
		t.Fatalf("output = %+v", res.Output)
	}

	res, err = adapter.Poll(context.Background(), "kt-fail", cred)
	if err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	if res.Status != StatusFailed || res.Message != "content policy" {
		t.Fatalf("fail = %s/%q", res.Status, res.Message)
	}
}
