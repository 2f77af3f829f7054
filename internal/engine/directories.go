package engine

import (
	"context"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/providers/aws/common"
	awsposture "github.com/pankaj-dahiya-devops/cloud-posture/internal/providers/aws/posture"
)

// BucketDirectory enumerates buckets and fetches their ACL and encryption.
// ListBuckets may leave Region empty; BucketRegion resolves it per bucket.
// GetEncryption returns (nil, nil) when the bucket has no default encryption.
type BucketDirectory interface {
	ListBuckets(ctx context.Context) ([]models.BucketRef, error)
	BucketRegion(ctx context.Context, ref models.BucketRef) (string, error)
	GetACL(ctx context.Context, ref models.BucketRef) ([]models.Grantee, error)
	GetEncryption(ctx context.Context, ref models.BucketRef) ([]models.EncryptionRule, error)
}

// IdentityDirectory enumerates roles, their policies and policy documents.
type IdentityDirectory interface {
	ListRoles(ctx context.Context) ([]models.RoleRef, error)
	ListAttachedPolicies(ctx context.Context, role models.RoleRef) ([]models.PolicyRef, error)
	GetPolicyDocument(ctx context.Context, role models.RoleRef, ref models.PolicyRef) ([]byte, error)
}

// TrailDirectory enumerates audit trails and fetches their logging status.
// GetStatus returns (nil, nil) when the status carries no logging flag.
type TrailDirectory interface {
	DescribeTrails(ctx context.Context) ([]models.TrailRef, error)
	GetStatus(ctx context.Context, ref models.TrailRef) (*bool, error)
}

// Directories is the set of fact providers one audit run consumes.
type Directories struct {
	Buckets BucketDirectory
	Roles   IdentityDirectory
	Trails  TrailDirectory
}

// DirectoryFactory builds Directories for an authenticated session.
type DirectoryFactory func(profile *common.ProfileConfig, regions []string) Directories

// AWSDirectories is the production DirectoryFactory.
func AWSDirectories(profile *common.ProfileConfig, regions []string) Directories {
	d := awsposture.New(profile, regions)
	return Directories{Buckets: d.Buckets, Roles: d.Roles, Trails: d.Trails}
}
