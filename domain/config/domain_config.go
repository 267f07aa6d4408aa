package config

// DomainConfig holds tunable business rules for the family graph.
type DomainConfig struct {
	// MaxRelativesPerPerson caps each adjacency list. Oversized lists are
	// almost always bad imports rather than real families.
	MaxRelativesPerPerson int

	// AllowShadowProfiles controls whether people without a linked account
	// may be created.
	AllowShadowProfiles bool
}

// DefaultDomainConfig returns the standard business rules.
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxRelativesPerPerson: 50,
		AllowShadowProfiles:   true,
	}
}
