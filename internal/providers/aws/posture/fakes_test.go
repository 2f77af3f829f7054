package awsposture

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	cloudtrailsvc "github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	cttypes "github.com/aws/aws-sdk-go-v2/service/cloudtrail/types"
	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/providers/aws/common"
)

func apiErr(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: code}
}

// ── S3 ───────────────────────────────────────────────────────────────────────

type fakeS3 struct {
	mu sync.Mutex

	buckets    []s3types.Bucket
	listErr    error
	locations  map[string]s3types.BucketLocationConstraint
	acls       map[string][]s3types.Grant
	aclErr     map[string]error
	encryption map[string][]s3types.ServerSideEncryptionRule
	encErr     map[string]error

	// regions records the region each per-bucket call was routed to.
	regions       map[string]string
	locationCalls atomic.Int32
}

func (f *fakeS3) record(bucket string, optFns []func(*s3svc.Options)) {
	var o s3svc.Options
	for _, fn := range optFns {
		fn(&o)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.regions == nil {
		f.regions = map[string]string{}
	}
	f.regions[bucket] = o.Region
}

func (f *fakeS3) ListBuckets(_ context.Context, _ *s3svc.ListBucketsInput, _ ...func(*s3svc.Options)) (*s3svc.ListBucketsOutput, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &s3svc.ListBucketsOutput{Buckets: f.buckets}, nil
}

func (f *fakeS3) GetBucketLocation(_ context.Context, in *s3svc.GetBucketLocationInput, _ ...func(*s3svc.Options)) (*s3svc.GetBucketLocationOutput, error) {
	f.locationCalls.Add(1)
	loc, ok := f.locations[aws.ToString(in.Bucket)]
	if !ok {
		return nil, apiErr("AccessDenied")
	}
	return &s3svc.GetBucketLocationOutput{LocationConstraint: loc}, nil
}

func (f *fakeS3) GetBucketAcl(_ context.Context, in *s3svc.GetBucketAclInput, optFns ...func(*s3svc.Options)) (*s3svc.GetBucketAclOutput, error) {
	name := aws.ToString(in.Bucket)
	f.record(name, optFns)
	if err := f.aclErr[name]; err != nil {
		return nil, err
	}
	return &s3svc.GetBucketAclOutput{Grants: f.acls[name]}, nil
}

func (f *fakeS3) GetBucketEncryption(_ context.Context, in *s3svc.GetBucketEncryptionInput, _ ...func(*s3svc.Options)) (*s3svc.GetBucketEncryptionOutput, error) {
	name := aws.ToString(in.Bucket)
	if err := f.encErr[name]; err != nil {
		return nil, err
	}
	rules, ok := f.encryption[name]
	if !ok {
		return nil, apiErr("ServerSideEncryptionConfigurationNotFoundError")
	}
	return &s3svc.GetBucketEncryptionOutput{
		ServerSideEncryptionConfiguration: &s3types.ServerSideEncryptionConfiguration{Rules: rules},
	}, nil
}

// ── IAM ──────────────────────────────────────────────────────────────────────

type fakeIAM struct {
	roles      []iamtypes.Role
	listErr    error
	attached   map[string][]iamtypes.AttachedPolicy
	inline     map[string][]string
	inlineDocs map[string]string // key: role/policy
	managed    map[string]string // key: policy ARN, value: encoded document
	attachErr  map[string]error
}

func (f *fakeIAM) ListRoles(_ context.Context, _ *iamsvc.ListRolesInput, _ ...func(*iamsvc.Options)) (*iamsvc.ListRolesOutput, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &iamsvc.ListRolesOutput{Roles: f.roles}, nil
}

func (f *fakeIAM) ListAttachedRolePolicies(_ context.Context, in *iamsvc.ListAttachedRolePoliciesInput, _ ...func(*iamsvc.Options)) (*iamsvc.ListAttachedRolePoliciesOutput, error) {
	role := aws.ToString(in.RoleName)
	if err := f.attachErr[role]; err != nil {
		return nil, err
	}
	return &iamsvc.ListAttachedRolePoliciesOutput{AttachedPolicies: f.attached[role]}, nil
}

func (f *fakeIAM) ListRolePolicies(_ context.Context, in *iamsvc.ListRolePoliciesInput, _ ...func(*iamsvc.Options)) (*iamsvc.ListRolePoliciesOutput, error) {
	return &iamsvc.ListRolePoliciesOutput{PolicyNames: f.inline[aws.ToString(in.RoleName)]}, nil
}

func (f *fakeIAM) GetRolePolicy(_ context.Context, in *iamsvc.GetRolePolicyInput, _ ...func(*iamsvc.Options)) (*iamsvc.GetRolePolicyOutput, error) {
	doc, ok := f.inlineDocs[aws.ToString(in.RoleName)+"/"+aws.ToString(in.PolicyName)]
	if !ok {
		return nil, apiErr("NoSuchEntity")
	}
	return &iamsvc.GetRolePolicyOutput{PolicyDocument: aws.String(doc)}, nil
}

func (f *fakeIAM) GetPolicy(_ context.Context, in *iamsvc.GetPolicyInput, _ ...func(*iamsvc.Options)) (*iamsvc.GetPolicyOutput, error) {
	if _, ok := f.managed[aws.ToString(in.PolicyArn)]; !ok {
		return nil, apiErr("AccessDenied")
	}
	return &iamsvc.GetPolicyOutput{Policy: &iamtypes.Policy{
		Arn:              in.PolicyArn,
		DefaultVersionId: aws.String("v3"),
	}}, nil
}

func (f *fakeIAM) GetPolicyVersion(_ context.Context, in *iamsvc.GetPolicyVersionInput, _ ...func(*iamsvc.Options)) (*iamsvc.GetPolicyVersionOutput, error) {
	if aws.ToString(in.VersionId) != "v3" {
		return nil, apiErr("NoSuchEntity")
	}
	return &iamsvc.GetPolicyVersionOutput{PolicyVersion: &iamtypes.PolicyVersion{
		Document: aws.String(f.managed[aws.ToString(in.PolicyArn)]),
	}}, nil
}

// ── CloudTrail ───────────────────────────────────────────────────────────────

type fakeCloudTrail struct {
	// trails per region the DescribeTrails call was routed to.
	trails    map[string][]cttypes.Trail
	regionErr map[string]error
	status    map[string]*cloudtrailsvc.GetTrailStatusOutput
	statusErr map[string]error

	mu           sync.Mutex
	statusRegion map[string]string
}

func (f *fakeCloudTrail) DescribeTrails(_ context.Context, _ *cloudtrailsvc.DescribeTrailsInput, optFns ...func(*cloudtrailsvc.Options)) (*cloudtrailsvc.DescribeTrailsOutput, error) {
	var o cloudtrailsvc.Options
	for _, fn := range optFns {
		fn(&o)
	}
	if err := f.regionErr[o.Region]; err != nil {
		return nil, err
	}
	return &cloudtrailsvc.DescribeTrailsOutput{TrailList: f.trails[o.Region]}, nil
}

func (f *fakeCloudTrail) GetTrailStatus(_ context.Context, in *cloudtrailsvc.GetTrailStatusInput, optFns ...func(*cloudtrailsvc.Options)) (*cloudtrailsvc.GetTrailStatusOutput, error) {
	var o cloudtrailsvc.Options
	for _, fn := range optFns {
		fn(&o)
	}
	name := aws.ToString(in.Name)
	f.mu.Lock()
	if f.statusRegion == nil {
		f.statusRegion = map[string]string{}
	}
	f.statusRegion[name] = o.Region
	f.mu.Unlock()
	if err := f.statusErr[name]; err != nil {
		return nil, err
	}
	out, ok := f.status[name]
	if !ok {
		return &cloudtrailsvc.GetTrailStatusOutput{}, nil
	}
	return out, nil
}

func newTestDirectories(s3c *fakeS3, iamc *fakeIAM, ct *fakeCloudTrail, regions ...string) *Directories {
	profile := &common.ProfileConfig{ProfileName: "test", AccountID: "111122223333", Region: "us-east-1"}
	return NewWithFactory(profile, regions, func(aws.Config) *postureClients {
		return &postureClients{S3: s3c, IAM: iamc, CloudTrail: ct}
	})
}
