package domain

// ProviderType distinguishes platform-credentialed providers from those for
// which the organization supplies its own credential.
type ProviderType string

const (
	ProviderFirstParty ProviderType = "first_party"
	ProviderBYO        ProviderType = "byo"
)

// ProviderStatus enumerates provider availability.
type ProviderStatus string

const (
	ProviderActive     ProviderStatus = "active"
	ProviderInactive   ProviderStatus = "inactive"
	ProviderComingSoon ProviderStatus = "coming_soon"
)

// Provider is a registered third-party video generation capability. The
// record is immutable during a job's lifetime.
type Provider struct {
	ID              string
	Name            string
	Type            ProviderType
	Status          ProviderStatus
	DefaultModelKey string
	SupportsT2V     bool
	SupportsI2V     bool
	SupportsA2V     bool
	SupportsRetake  bool
}

// Supports reports whether the provider advertises the given modality.
func (p *Provider) Supports(t JobType) bool {
	switch t {
	case JobTypeTextToVideo:
		return p.SupportsT2V
	case JobTypeImageToVideo:
		return p.SupportsI2V
	case JobTypeAudioToVideo:
		return p.SupportsA2V
	case JobTypeRetake:
		return p.SupportsRetake
	}
	return false
}

// ProviderModel is one enabled model a provider offers within a quality tier.
type ProviderModel struct {
	ProviderID  string
	ModelKey    string
	QualityTier QualityTier
	Enabled     bool
}

// RoutingRule maps a (modality, quality tier) pair to a primary provider.
// When several rules match, the highest-priority active rule wins.
type RoutingRule struct {
	ID          string
	JobType     JobType
	QualityTier QualityTier
	ProviderID  string
	Priority    int
	IsActive    bool
}
