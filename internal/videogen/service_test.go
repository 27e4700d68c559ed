package videogen

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"server/internal/audit"
	"server/internal/domain"
	"server/internal/providers/video"
)

type serviceHarness struct {
	svc     *Service
	jobs    *memJobs
	quota   *fakeQuota
	adapter *scriptedAdapter
	kling   *scriptedAdapter
	sink    *memAudit
}

func newServiceHarness(t *testing.T, accounts *stubAccounts, creds *stubCredentials) *serviceHarness {
	t.Helper()
	if accounts == nil {
		accounts = &stubAccounts{credits: 1000}
	}
	jobs := newMemJobs()
	quota := &fakeQuota{}
	sink := &memAudit{}
	rec := audit.NewRecorder(sink, zerolog.Nop())

	veo := &scriptedAdapter{name: "veo"}
	kling := &scriptedAdapter{name: "kling"}
	registry := video.NewRegistry(veo, kling)

	providers := testProviders()
	if creds == nil {
		creds = &stubCredentials{creds: map[string]*domain.Credential{}}
	}
	router := NewRouter(providers, creds, rec, "veo", zerolog.Nop())
	tracker := NewTracker(jobs, quota, &memPersister{}, rec, zerolog.Nop(), time.Millisecond, 5)
	svc := NewService(jobs, accounts, quota, registry, router, tracker, rec, zerolog.Nop())

	return &serviceHarness{svc: svc, jobs: jobs, quota: quota, adapter: veo, kling: kling, sink: sink}
}

func validRequest() GenerateRequest {
	return GenerateRequest{
		UserID:          "u1",
		OrgID:           "org-1",
		Type:            domain.JobTypeTextToVideo,
		QualityTier:     domain.TierBalanced,
		DurationSeconds: 10,
		Input:           domain.InputParams{Prompt: "a lighthouse at dusk"},
	}
}

func waitTerminal(t *testing.T, jobs *memJobs, jobID string) *domain.Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if j := jobs.get(jobID); j != nil && j.Status.Terminal() {
			return j
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("job %s never reached a terminal state", jobID)
	return nil
}

func TestGenerateHappyPath(t *testing.T) {
	h := newServiceHarness(t, nil, nil)
	h.adapter.polls = []video.PollResult{
		{Status: video.StatusCompleted, Output: &video.Output{URL: "https://p.example.com/v.mp4"}},
	}

	job, err := h.svc.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if job.Status != domain.JobStatusProcessing {
		t.Fatalf("status = %s, want processing after submission", job.Status)
	}
	if job.Progress != domain.ProgressAccepted {
		t.Fatalf("progress = %d, want %d", job.Progress, domain.ProgressAccepted)
	}
	if job.TaskHandle != "handle-1" {
		t.Fatalf("task handle = %q", job.TaskHandle)
	}

	final := waitTerminal(t, h.jobs, job.ID)
	if final.Status != domain.JobStatusCompleted {
		t.Fatalf("final status = %s: %q", final.Status, final.ErrorMessage)
	}
	if h.quota.reserved != 10 {
		t.Fatalf("reserved seconds = %d, want 10", h.quota.reserved)
	}
	if h.quota.refunded != 0 {
		t.Fatalf("refunded seconds = %d, want 0", h.quota.refunded)
	}
}

func TestGenerateRequiresUser(t *testing.T) {
	h := newServiceHarness(t, nil, nil)
	req := validRequest()
	req.UserID = ""

	if _, err := h.svc.Generate(context.Background(), req); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}
}

func TestGenerateValidatesInputBeforeAnyState(t *testing.T) {
	h := newServiceHarness(t, nil, nil)
	req := validRequest()
	req.Input.Prompt = "   "

	_, err := h.svc.Generate(context.Background(), req)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
	if h.quota.reserved != 0 {
		t.Fatalf("quota touched on invalid input")
	}
	if len(h.jobs.jobs) != 0 {
		t.Fatalf("job row created on invalid input")
	}
}

func TestGenerateInsufficientCredits(t *testing.T) {
	h := newServiceHarness(t, &stubAccounts{credits: 5}, nil)

	_, err := h.svc.Generate(context.Background(), validRequest())
	if !errors.Is(err, domain.ErrInsufficientCredits) {
		t.Fatalf("error = %v, want ErrInsufficientCredits", err)
	}
	if h.quota.reserved != 0 {
		t.Fatalf("quota reserved despite missing credits")
	}
}

func TestGenerateQuotaRejectionLeavesNoRow(t *testing.T) {
	h := newServiceHarness(t, nil, nil)
	h.quota.rejectWith = domain.ErrDailyQuotaExceeded

	_, err := h.svc.Generate(context.Background(), validRequest())
	if !errors.Is(err, domain.ErrDailyQuotaExceeded) {
		t.Fatalf("error = %v, want ErrDailyQuotaExceeded", err)
	}
	if len(h.jobs.jobs) != 0 {
		t.Fatalf("job row created despite quota rejection")
	}
}

func TestGeneratePersonalAccountSkipsQuota(t *testing.T) {
	h := newServiceHarness(t, nil, nil)
	req := validRequest()
	req.OrgID = ""

	if _, err := h.svc.Generate(context.Background(), req); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if h.quota.reserved != 0 {
		t.Fatalf("quota reserved for a personal account")
	}
}

func TestGenerateBYOWithoutCredentialRefundsReservation(t *testing.T) {
	h := newServiceHarness(t, nil, nil)
	req := validRequest()
	req.ProviderID = "kling"

	_, err := h.svc.Generate(context.Background(), req)
	if !errors.Is(err, domain.ErrProviderNotConfigured) {
		t.Fatalf("error = %v, want ErrProviderNotConfigured", err)
	}
	if h.quota.refunded != req.DurationSeconds {
		t.Fatalf("refunded = %d, want %d", h.quota.refunded, req.DurationSeconds)
	}
	if len(h.jobs.jobs) != 0 {
		t.Fatalf("job row created despite missing credential")
	}
	if h.kling.pollCount() != 0 {
		t.Fatalf("adapter touched despite missing credential")
	}
}

func TestGenerateSubmitFailureFailsRowAndRefunds(t *testing.T) {
	h := newServiceHarness(t, nil, nil)
	h.adapter.submitErr = &domain.ProviderAPIError{Provider: "veo", StatusCode: 503, Message: "overloaded"}

	_, err := h.svc.Generate(context.Background(), validRequest())
	var apiErr *domain.ProviderAPIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want ProviderAPIError", err)
	}
	if len(h.jobs.jobs) != 1 {
		t.Fatalf("job rows = %d, want the failed row to remain", len(h.jobs.jobs))
	}
	for id := range h.jobs.jobs {
		got := h.jobs.get(id)
		if got.Status != domain.JobStatusFailed {
			t.Fatalf("status = %s, want failed", got.Status)
		}
	}
	if h.quota.refunded != 10 {
		t.Fatalf("refunded = %d, want full refund", h.quota.refunded)
	}
}

func TestGenerateStatusWriteFailureAfterSubmitKeepsSeconds(t *testing.T) {
	jobs := &failingProcJobs{memJobs: newMemJobs(), err: errors.New("connection reset by peer")}
	quota := &fakeQuota{}
	sink := &memAudit{}
	rec := audit.NewRecorder(sink, zerolog.Nop())
	veo := &scriptedAdapter{name: "veo"}
	registry := video.NewRegistry(veo)
	router := NewRouter(testProviders(), &stubCredentials{creds: map[string]*domain.Credential{}}, rec, "veo", zerolog.Nop())
	tracker := NewTracker(jobs, quota, &memPersister{}, rec, zerolog.Nop(), time.Millisecond, 5)
	svc := NewService(jobs, &stubAccounts{credits: 1000}, quota, registry, router, tracker, rec, zerolog.Nop())

	_, err := svc.Generate(context.Background(), validRequest())
	if err == nil {
		t.Fatal("expected the status write error to surface")
	}
	if len(jobs.jobs) != 1 {
		t.Fatalf("job rows = %d, want 1", len(jobs.jobs))
	}
	for id := range jobs.jobs {
		got := jobs.get(id)
		// A queued row here would be refunded again by the orphan sweep.
		if got.Status != domain.JobStatusFailed {
			t.Fatalf("status = %s, want failed", got.Status)
		}
	}
	if quota.refunded != 0 {
		t.Fatalf("refunded = %d, want 0: the provider accepted the job", quota.refunded)
	}
	if quota.slots() != 1 {
		t.Fatalf("slot releases = %d, want 1", quota.slots())
	}
	actions := sink.actions()
	if len(actions) == 0 || actions[len(actions)-1] != domain.AuditActionJobFailed {
		t.Fatalf("audit actions = %v, want a trailing job_failed", actions)
	}
}

func TestGenerateSynchronousProviderCollapses(t *testing.T) {
	h := newServiceHarness(t, nil, nil)
	h.adapter.submission = &video.Submission{Sync: &video.Output{Data: []byte{9, 9}, Format: "video/mp4"}}

	job, err := h.svc.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	final := waitTerminal(t, h.jobs, job.ID)
	if final.Status != domain.JobStatusCompleted {
		t.Fatalf("final status = %s: %q", final.Status, final.ErrorMessage)
	}
	if h.adapter.pollCount() != 0 {
		t.Fatalf("poll calls = %d, want 0 for synchronous provider", h.adapter.pollCount())
	}
}

func TestGetJobEnforcesOwnership(t *testing.T) {
	h := newServiceHarness(t, nil, nil)
	job, err := h.svc.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := h.svc.GetJob(context.Background(), "u1", job.ID); err != nil {
		t.Fatalf("owner lookup: %v", err)
	}
	if _, err := h.svc.GetJob(context.Background(), "intruder", job.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound for non-owner", err)
	}
}

func TestGenerateAuditTrail(t *testing.T) {
	h := newServiceHarness(t, nil, nil)
	h.adapter.polls = []video.PollResult{
		{Status: video.StatusCompleted, Output: &video.Output{URL: "https://p.example.com/v.mp4"}},
	}

	job, err := h.svc.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	waitTerminal(t, h.jobs, job.ID)

	got := h.sink.actions()
	want := []string{domain.AuditActionRouteResolved, domain.AuditActionJobSubmitted, domain.AuditActionJobCompleted}
	if len(got) != len(want) {
		t.Fatalf("audit actions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("audit action[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
