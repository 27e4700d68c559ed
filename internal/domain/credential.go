package domain

import "time"

// Credential is an organization-scoped secret bound to a bring-your-own
// provider. Its absence is a request-time failure, never a background one.
type Credential struct {
	ID         string
	OrgID      string
	ProviderID string
	Secret     string
	IsActive   bool
	CreatedAt  time.Time
}
