package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/engine"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/providers/aws/common"
)

// ── AWS mock ──────────────────────────────────────────────────────────────────

type mockAWSProvider struct {
	profileResult *common.ProfileConfig
	profileErr    error
	regionsResult []string
	regionsErr    error
	lastProfile   string
}

func (m *mockAWSProvider) LoadProfile(_ context.Context, profile string, _ ...common.LoadOption) (*common.ProfileConfig, error) {
	m.lastProfile = profile
	return m.profileResult, m.profileErr
}

func (m *mockAWSProvider) GetActiveRegions(_ context.Context, _ *common.ProfileConfig) ([]string, error) {
	return m.regionsResult, m.regionsErr
}

func goodMockAWS() *mockAWSProvider {
	return &mockAWSProvider{
		profileResult: &common.ProfileConfig{
			ProfileName: "default",
			AccountID:   "123456789012",
			CallerARN:   "arn:aws:iam::123456789012:user/auditor",
			Region:      "us-east-1",
		},
		regionsResult: []string{"eu-west-1", "us-east-1"},
	}
}

// ── directory mocks ───────────────────────────────────────────────────────────

type stubBuckets struct {
	listErr error
}

func (s stubBuckets) ListBuckets(context.Context) ([]models.BucketRef, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return []models.BucketRef{{Name: "alpha", Region: "us-east-1"}, {Name: "beta", Region: "eu-west-1"}}, nil
}

func (stubBuckets) BucketRegion(context.Context, models.BucketRef) (string, error) {
	return "us-east-1", nil
}

func (stubBuckets) GetACL(_ context.Context, ref models.BucketRef) ([]models.Grantee, error) {
	if ref.Name == "alpha" {
		return []models.Grantee{{Type: "Group", URI: "http://acs.amazonaws.com/groups/global/AllUsers", Permission: "READ"}}, nil
	}
	return nil, nil
}

func (stubBuckets) GetEncryption(_ context.Context, ref models.BucketRef) ([]models.EncryptionRule, error) {
	if ref.Name == "beta" {
		return []models.EncryptionRule{{Algorithm: "AES256"}}, nil
	}
	return nil, nil
}

type stubRoles struct {
	listErr error
}

func (s stubRoles) ListRoles(context.Context) ([]models.RoleRef, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return []models.RoleRef{{Name: "admin", ARN: "arn:aws:iam::123456789012:role/admin"}}, nil
}

func (stubRoles) ListAttachedPolicies(context.Context, models.RoleRef) ([]models.PolicyRef, error) {
	return []models.PolicyRef{{Name: "AdministratorAccess", Kind: models.PolicyManaged}}, nil
}

func (stubRoles) GetPolicyDocument(context.Context, models.RoleRef, models.PolicyRef) ([]byte, error) {
	return []byte(`{"Version":"2012-10-17","Statement":{"Effect":"Allow","Action":"*","Resource":"*"}}`), nil
}

type stubTrails struct {
	listErr error
}

func (s stubTrails) DescribeTrails(context.Context) ([]models.TrailRef, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return []models.TrailRef{{Name: "main", ARN: "arn:aws:cloudtrail:us-east-1:123456789012:trail/main", HomeRegion: "us-east-1"}}, nil
}

func (stubTrails) GetStatus(context.Context, models.TrailRef) (*bool, error) {
	on := true
	return &on, nil
}

func goodDirs() engine.Directories {
	return engine.Directories{Buckets: stubBuckets{}, Roles: stubRoles{}, Trails: stubTrails{}}
}

// ── helpers ───────────────────────────────────────────────────────────────────

// testApp returns an app wired to fakes, with config search isolated from
// the developer's home directory.
func testApp(t *testing.T, p common.AWSClientProvider, dirs engine.Directories) (*app, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("AWS_ENDPOINT_URL", "")

	var stdout, stderr bytes.Buffer
	a := newApp(&stdout, &stderr)
	a.provider = p
	a.directories = func(*common.ProfileConfig, []string) engine.Directories { return dirs }
	a.tracing = false
	return a, &stdout, &stderr
}

func execute(a *app, args ...string) int {
	root := newRootCmd(a)
	root.SetArgs(args)
	return a.exitCode(root.ExecuteContext(context.Background()))
}
