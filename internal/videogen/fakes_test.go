package videogen

import (
	"context"
	"sync"
	"time"

	"server/internal/domain"
	"server/internal/providers/video"
)

// memJobs is an in-memory JobRepository for orchestration tests.
type memJobs struct {
	mu   sync.Mutex
	jobs map[string]*domain.Job
}

func newMemJobs() *memJobs {
	return &memJobs{jobs: make(map[string]*domain.Job)}
}

func (m *memJobs) get(id string) *domain.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		cp := *j
		return &cp
	}
	return nil
}

func (m *memJobs) Create(_ context.Context, job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.jobs[job.ID] = &cp
	return nil
}

func (m *memJobs) GetByID(_ context.Context, jobID string) (*domain.Job, error) {
	if j := m.get(jobID); j != nil {
		return j, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memJobs) GetForOwner(_ context.Context, jobID, userID string) (*domain.Job, error) {
	if j := m.get(jobID); j != nil && j.UserID == userID {
		return j, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memJobs) ListByOwner(_ context.Context, userID string, limit, offset int) ([]domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Job
	for _, j := range m.jobs {
		if j.UserID == userID {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (m *memJobs) MarkProcessing(_ context.Context, jobID, taskHandle string, progress int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	j.Status = domain.JobStatusProcessing
	j.TaskHandle = taskHandle
	if progress > j.Progress {
		j.Progress = progress
	}
	return nil
}

func (m *memJobs) UpdateProgress(_ context.Context, jobID string, progress int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	if progress > j.Progress {
		j.Progress = progress
	}
	return nil
}

func (m *memJobs) MarkCompleted(_ context.Context, jobID, outputKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	j.Status = domain.JobStatusCompleted
	j.Progress = domain.ProgressDone
	j.OutputKey = outputKey
	return nil
}

func (m *memJobs) MarkFailed(_ context.Context, jobID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	j.Status = domain.JobStatusFailed
	j.ErrorMessage = message
	return nil
}

func (m *memJobs) ClaimStalled(_ context.Context, _ time.Duration) (*domain.Job, error) {
	return nil, domain.ErrNotFound
}

func (m *memJobs) FailOrphans(_ context.Context, _ time.Duration, _ string) ([]domain.Job, error) {
	return nil, nil
}

func (m *memJobs) FailStalledSync(_ context.Context, _ time.Duration, _ string) ([]domain.Job, error) {
	return nil, nil
}

// failingProcJobs errors on the status write that follows a successful
// submission.
type failingProcJobs struct {
	*memJobs
	err error
}

func (f *failingProcJobs) MarkProcessing(context.Context, string, string, int) error {
	return f.err
}

// stubAccounts serves fixed credits and limits.
type stubAccounts struct {
	credits int
	limits  *domain.QuotaLimits
}

func (s *stubAccounts) Credits(context.Context, string) (int, error) { return s.credits, nil }
func (s *stubAccounts) QuotaLimits(_ context.Context, orgID string) (*domain.QuotaLimits, error) {
	if s.limits == nil {
		return &domain.QuotaLimits{OrgID: orgID, DailySecondsLimit: 1000, MonthlySecondsLimit: 10000, MaxConcurrentJobs: 5}, nil
	}
	return s.limits, nil
}

// stubProviders serves a fixed provider set and routing table.
type stubProviders struct {
	providers map[string]*domain.Provider
	rules     []domain.RoutingRule
	models    map[string]string // providerID -> model key
}

func (s *stubProviders) GetByID(_ context.Context, providerID string) (*domain.Provider, error) {
	if p, ok := s.providers[providerID]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubProviders) ResolveRoute(_ context.Context, t domain.JobType, tier domain.QualityTier) (*domain.RoutingRule, error) {
	var best *domain.RoutingRule
	for i := range s.rules {
		r := &s.rules[i]
		if !r.IsActive || r.JobType != t || r.QualityTier != tier {
			continue
		}
		if best == nil || r.Priority > best.Priority {
			best = r
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	return best, nil
}

func (s *stubProviders) FirstEnabledModel(_ context.Context, providerID string, _ domain.QualityTier) (string, error) {
	if m, ok := s.models[providerID]; ok {
		return m, nil
	}
	return "", domain.ErrNotFound
}

// stubCredentials holds at most one credential per org/provider pair.
type stubCredentials struct {
	creds map[string]*domain.Credential // key: orgID + "/" + providerID
}

func (s *stubCredentials) ActiveForOrg(_ context.Context, orgID, providerID string) (*domain.Credential, error) {
	if c, ok := s.creds[orgID+"/"+providerID]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

// memAudit records appended entries.
type memAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (m *memAudit) Append(_ context.Context, entry *domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memAudit) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Action
	}
	return out
}

// fakeQuota counts gate calls and optionally rejects reservations.
type fakeQuota struct {
	mu           sync.Mutex
	rejectWith   error
	reserved     int
	refunded     int
	slotReleases int
}

func (f *fakeQuota) Reserve(_ context.Context, _ *domain.QuotaLimits, seconds int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rejectWith != nil {
		return f.rejectWith
	}
	f.reserved += seconds
	return nil
}

func (f *fakeQuota) ReleaseReservation(_ context.Context, _ string, seconds int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refunded += seconds
	return nil
}

func (f *fakeQuota) ReleaseSlot(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slotReleases++
	return nil
}

func (f *fakeQuota) Usage(_ context.Context, limits *domain.QuotaLimits) (*domain.QuotaUsage, error) {
	return &domain.QuotaUsage{OrgID: limits.OrgID, DailySecondsLimit: limits.DailySecondsLimit}, nil
}

func (f *fakeQuota) slots() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.slotReleases
}

// scriptedAdapter returns canned submit and poll results.
type scriptedAdapter struct {
	mu         sync.Mutex
	name       string
	submission *video.Submission
	submitErr  error
	polls      []video.PollResult
	pollErr    error
	pollCalls  int
	lastReq    video.SubmitRequest
	lastCred   *domain.Credential
}

func (a *scriptedAdapter) Name() string {
	if a.name == "" {
		return "fake"
	}
	return a.name
}

func (a *scriptedAdapter) Submit(_ context.Context, req video.SubmitRequest, cred *domain.Credential) (*video.Submission, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastReq = req
	a.lastCred = cred
	if a.submitErr != nil {
		return nil, a.submitErr
	}
	if a.submission != nil {
		return a.submission, nil
	}
	return &video.Submission{TaskHandle: "handle-1"}, nil
}

func (a *scriptedAdapter) Poll(_ context.Context, _ string, _ *domain.Credential) (*video.PollResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pollCalls++
	if a.pollErr != nil {
		return nil, a.pollErr
	}
	if len(a.polls) == 0 {
		return &video.PollResult{Status: video.StatusProcessing}, nil
	}
	res := a.polls[0]
	if len(a.polls) > 1 {
		a.polls = a.polls[1:]
	}
	return &res, nil
}

func (a *scriptedAdapter) pollCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pollCalls
}

// memPersister stores artifacts in memory and returns deterministic keys.
type memPersister struct {
	mu     sync.Mutex
	failed error
	keys   []string
}

func (p *memPersister) Persist(_ context.Context, job *domain.Job, out *video.Output) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failed != nil {
		return "", p.failed
	}
	key := job.UserID + "/" + job.ID + "/output.mp4"
	p.keys = append(p.keys, key)
	return key, nil
}
