package policy

// Domain is the only domain a posture policy file configures.
const Domain = "posture"

// PolicyConfig is the decoded policy file. It tunes the issue list derived
// from a report; it never changes the findings themselves.
type PolicyConfig struct {
	Version int                     `yaml:"version"`
	Domains map[string]DomainConfig `yaml:"domains"`
	Rules   map[string]RuleConfig   `yaml:"rules"`
}

type DomainConfig struct {
	// Enabled defaults to true when omitted.
	Enabled *bool `yaml:"enabled,omitempty"`
	// MinSeverity drops issues ranked below it.
	MinSeverity string `yaml:"min_severity,omitempty"`
}

type RuleConfig struct {
	Enabled  *bool  `yaml:"enabled,omitempty"`
	Severity string `yaml:"severity,omitempty"`
}
