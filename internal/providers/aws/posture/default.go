// Package awsposture implements the bucket, identity and audit-trail
// directory services over the AWS SDK v2.
package awsposture

import (
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/providers/aws/common"
)

// Directories groups the three directory services built from one session.
type Directories struct {
	Buckets *BucketDirectory
	Roles   *IdentityDirectory
	Trails  *TrailDirectory
}

// New returns Directories wired to production AWS SDK clients. regions are
// the regions searched for trails; when empty the profile's home region is
// used.
func New(profile *common.ProfileConfig, regions []string) *Directories {
	return NewWithFactory(profile, regions, newDefaultClients)
}

// NewWithFactory returns Directories that use f to build their clients,
// allowing tests to inject fakes.
func NewWithFactory(profile *common.ProfileConfig, regions []string, f clientFactory) *Directories {
	if len(regions) == 0 {
		regions = []string{profile.Region}
	}
	clients := f(profile.Config)
	return &Directories{
		Buckets: &BucketDirectory{client: clients.S3},
		Roles:   &IdentityDirectory{client: clients.IAM},
		Trails:  &TrailDirectory{client: clients.CloudTrail, regions: regions},
	}
}
