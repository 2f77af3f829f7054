package common

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// DefaultAWSClientProvider is the production implementation of AWSClientProvider.
// It resolves credentials through the standard SDK chain: environment,
// shared config and credentials files, SSO and instance roles.
//
// Inject a custom ClientFactory via NewDefaultAWSClientProviderWithFactory to
// replace real SDK clients with mocks in unit tests.
type DefaultAWSClientProvider struct {
	factory ClientFactory
}

// NewDefaultAWSClientProvider returns a provider backed by the real AWS SDK.
func NewDefaultAWSClientProvider() *DefaultAWSClientProvider {
	return &DefaultAWSClientProvider{factory: NewClientSet}
}

// NewDefaultAWSClientProviderWithFactory returns a provider that uses f to
// create its ClientSet. Pass a mock factory in tests.
func NewDefaultAWSClientProviderWithFactory(f ClientFactory) *DefaultAWSClientProvider {
	return &DefaultAWSClientProvider{factory: f}
}

// LoadProfile loads the AWS SDK config for the named profile, applies opts,
// and resolves the caller identity through STS. Any failure here means no
// authenticated session exists and the audit must not start.
func (p *DefaultAWSClientProvider) LoadProfile(ctx context.Context, profile string, opts ...LoadOption) (*ProfileConfig, error) {
	var settings loadSettings
	for _, o := range opts {
		o(&settings)
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(profile))
	}
	if settings.region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(settings.region))
	}
	if settings.maxAttempts > 0 {
		loadOpts = append(loadOpts, awsconfig.WithRetryMaxAttempts(settings.maxAttempts))
	}
	if settings.endpoint != "" {
		loadOpts = append(loadOpts, awsconfig.WithBaseEndpoint(settings.endpoint))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS profile %q: %w", profileDisplayName(profile), err)
	}

	// Fall back to us-east-1 when the profile has no region configured so
	// that all SDK clients can be constructed successfully.
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	clients := p.factory(cfg)

	accountID, callerARN, err := resolveIdentity(ctx, clients.STS)
	if err != nil {
		return nil, fmt.Errorf("resolve account ID for profile %q: %w", profileDisplayName(profile), err)
	}

	return &ProfileConfig{
		ProfileName: profileDisplayName(profile),
		AccountID:   accountID,
		CallerARN:   callerARN,
		Region:      cfg.Region,
		Config:      cfg,
		Clients:     clients,
	}, nil
}

// DiscoverProfiles returns the profile names defined in the shared config
// and credentials files, honouring AWS_CONFIG_FILE and
// AWS_SHARED_CREDENTIALS_FILE.
func DiscoverProfiles() ([]string, error) {
	names, err := discoverProfileNames()
	if err != nil {
		return nil, fmt.Errorf("discover AWS profiles: %w", err)
	}
	return names, nil
}

// GetActiveRegions returns all AWS regions that are enabled (opted-in) for
// the account associated with cfg. It uses EC2 DescribeRegions, which is a
// global call and works correctly regardless of the client's home region.
func (p *DefaultAWSClientProvider) GetActiveRegions(ctx context.Context, cfg *ProfileConfig) ([]string, error) {
	out, err := cfg.Clients.EC2.DescribeRegions(ctx, &ec2.DescribeRegionsInput{
		// AllRegions false (default) returns only regions the account has
		// opted into; it excludes disabled / not-subscribed regions.
		AllRegions: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("describe regions for profile %q: %w", cfg.ProfileName, err)
	}

	regions := make([]string, 0, len(out.Regions))
	for _, r := range out.Regions {
		if r.RegionName != nil {
			regions = append(regions, *r.RegionName)
		}
	}
	sort.Strings(regions)
	return regions, nil
}

// profileDisplayName returns a human-readable profile identifier. An empty
// string (the default profile) is shown as "default".
func profileDisplayName(profile string) string {
	if profile == "" {
		return "default"
	}
	return profile
}

// resolveIdentity calls STS GetCallerIdentity and returns the numeric account
// ID and the caller ARN.
func resolveIdentity(ctx context.Context, stsClient STSClient) (string, string, error) {
	out, err := stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", "", fmt.Errorf("STS GetCallerIdentity: %w", err)
	}
	if out.Account == nil {
		return "", "", fmt.Errorf("STS GetCallerIdentity returned nil account")
	}
	return aws.ToString(out.Account), aws.ToString(out.Arn), nil
}

// discoverProfileNames returns the profile names of the credentials file
// followed by any new ones from the config file, without duplicates.
func discoverProfileNames() ([]string, error) {
	credPath, cfgPath, err := sharedFilePaths()
	if err != nil {
		return nil, err
	}

	var names []string
	seen := make(map[string]bool)
	for _, src := range []struct {
		path     string
		isConfig bool
	}{{credPath, false}, {cfgPath, true}} {
		sections, err := iniSections(src.path)
		if err != nil {
			return nil, err
		}
		for _, sec := range sections {
			name := sec
			if src.isConfig {
				// config uses [profile name] except for [default]; other
				// section kinds (sso-session, services) are not profiles.
				if rest, ok := strings.CutPrefix(sec, "profile "); ok {
					name = strings.TrimSpace(rest)
				} else if sec != "default" {
					continue
				}
			}
			if name != "" && !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names, nil
}

// sharedFilePaths returns the credentials and config file locations.
func sharedFilePaths() (string, string, error) {
	credPath := os.Getenv("AWS_SHARED_CREDENTIALS_FILE")
	cfgPath := os.Getenv("AWS_CONFIG_FILE")
	if credPath != "" && cfgPath != "" {
		return credPath, cfgPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", "", fmt.Errorf("resolve home directory: %w", err)
	}
	if credPath == "" {
		credPath = filepath.Join(home, ".aws", "credentials")
	}
	if cfgPath == "" {
		cfgPath = filepath.Join(home, ".aws", "config")
	}
	return credPath, cfgPath, nil
}

// iniSections returns the trimmed section names of an INI file in order.
// A missing file has no sections.
func iniSections(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var sections []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if name, ok := strings.CutPrefix(line, "["); ok {
			if name, ok = strings.CutSuffix(name, "]"); ok {
				sections = append(sections, strings.TrimSpace(name))
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return sections, nil
}
