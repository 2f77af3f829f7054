package common

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// ProfileConfig is a resolved AWS profile with its SDK configuration and the
// clients needed to establish identity. It is the session object passed into
// the posture directories at construction time.
type ProfileConfig struct {
	// ProfileName is the name from ~/.aws/credentials or "default".
	ProfileName string

	// AccountID is the resolved AWS account ID for this profile (via STS).
	AccountID string

	// CallerARN is the identity the audit runs as.
	CallerARN string

	// Region is the home region for this profile configuration.
	Region string

	// Config is the fully loaded AWS SDK v2 configuration.
	Config aws.Config

	// Clients holds the identity and region-discovery clients scoped to the
	// home region.
	Clients *ClientSet
}

// AWSClientProvider loads AWS configurations and resolves active regions.
// It is the sole entry point for credential and region management in the
// provider layer. A failure from LoadProfile is fatal to an audit run.
type AWSClientProvider interface {
	// LoadProfile returns a ProfileConfig for the named profile.
	// Pass an empty string to load the default credential chain.
	LoadProfile(ctx context.Context, profile string, opts ...LoadOption) (*ProfileConfig, error)

	// GetActiveRegions returns all regions that are enabled for the account
	// associated with cfg.
	GetActiveRegions(ctx context.Context, cfg *ProfileConfig) ([]string, error)
}

// loadSettings collects the LoadOption values.
type loadSettings struct {
	region      string
	maxAttempts int
	endpoint    string
}

// LoadOption customises LoadProfile.
type LoadOption func(*loadSettings)

// WithRegion overrides the profile's home region.
func WithRegion(region string) LoadOption {
	return func(s *loadSettings) { s.region = region }
}

// WithMaxAttempts bounds the SDK retryer. Values below 1 keep the SDK default.
func WithMaxAttempts(n int) LoadOption {
	return func(s *loadSettings) { s.maxAttempts = n }
}

// WithEndpoint points every service client at a custom base endpoint
// (LocalStack, a VPC endpoint proxy).
func WithEndpoint(url string) LoadOption {
	return func(s *loadSettings) { s.endpoint = url }
}
