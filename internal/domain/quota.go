package domain

// QuotaLimits are the per-organization ceilings enforced at intake.
type QuotaLimits struct {
	OrgID               string
	DailySecondsLimit   int
	MonthlySecondsLimit int
	MaxConcurrentJobs   int
}

// QuotaUsage is a point-in-time snapshot of an organization's counters.
type QuotaUsage struct {
	OrgID                string `json:"org_id"`
	UsedSecondsToday     int    `json:"used_seconds_today"`
	DailySecondsLimit    int    `json:"daily_seconds_limit"`
	UsedSecondsMonth     int    `json:"used_seconds_month"`
	MonthlySecondsLimit  int    `json:"monthly_seconds_limit"`
	ConcurrentJobsActive int    `json:"concurrent_jobs_active"`
	MaxConcurrentJobs    int    `json:"max_concurrent_jobs"`
}
