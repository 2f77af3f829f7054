package awsposture

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	cloudtrailsvc "github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3APIClient is the narrow S3 interface used by the bucket directory.
// It embeds ListBucketsAPIClient so the SDK paginator can be used directly.
type s3APIClient interface {
	s3svc.ListBucketsAPIClient
	GetBucketLocation(ctx context.Context, params *s3svc.GetBucketLocationInput, optFns ...func(*s3svc.Options)) (*s3svc.GetBucketLocationOutput, error)
	GetBucketAcl(ctx context.Context, params *s3svc.GetBucketAclInput, optFns ...func(*s3svc.Options)) (*s3svc.GetBucketAclOutput, error)
	GetBucketEncryption(ctx context.Context, params *s3svc.GetBucketEncryptionInput, optFns ...func(*s3svc.Options)) (*s3svc.GetBucketEncryptionOutput, error)
}

// iamAPIClient is the narrow IAM interface used by the identity directory.
type iamAPIClient interface {
	iamsvc.ListRolesAPIClient
	iamsvc.ListAttachedRolePoliciesAPIClient
	iamsvc.ListRolePoliciesAPIClient
	GetRolePolicy(ctx context.Context, params *iamsvc.GetRolePolicyInput, optFns ...func(*iamsvc.Options)) (*iamsvc.GetRolePolicyOutput, error)
	GetPolicy(ctx context.Context, params *iamsvc.GetPolicyInput, optFns ...func(*iamsvc.Options)) (*iamsvc.GetPolicyOutput, error)
	GetPolicyVersion(ctx context.Context, params *iamsvc.GetPolicyVersionInput, optFns ...func(*iamsvc.Options)) (*iamsvc.GetPolicyVersionOutput, error)
}

// cloudTrailAPIClient is the narrow CloudTrail interface used by the trail
// directory. Calls are routed to a region through the option functions.
type cloudTrailAPIClient interface {
	DescribeTrails(ctx context.Context, params *cloudtrailsvc.DescribeTrailsInput, optFns ...func(*cloudtrailsvc.Options)) (*cloudtrailsvc.DescribeTrailsOutput, error)
	GetTrailStatus(ctx context.Context, params *cloudtrailsvc.GetTrailStatusInput, optFns ...func(*cloudtrailsvc.Options)) (*cloudtrailsvc.GetTrailStatusOutput, error)
}

// postureClients bundles the AWS service clients used by the directories.
type postureClients struct {
	S3         s3APIClient
	IAM        iamAPIClient
	CloudTrail cloudTrailAPIClient
}

// clientFactory creates postureClients from an AWS config.
// Injection point: tests replace this with a function returning fake clients.
type clientFactory func(cfg aws.Config) *postureClients

// newDefaultClients creates production AWS SDK clients from cfg. A custom
// base endpoint (LocalStack) needs path-style S3 addressing.
func newDefaultClients(cfg aws.Config) *postureClients {
	pathStyle := cfg.BaseEndpoint != nil
	return &postureClients{
		S3: s3svc.NewFromConfig(cfg, func(o *s3svc.Options) {
			o.UsePathStyle = pathStyle
		}),
		IAM:        iamsvc.NewFromConfig(cfg),
		CloudTrail: cloudtrailsvc.NewFromConfig(cfg),
	}
}
