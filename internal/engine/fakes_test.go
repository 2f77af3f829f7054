package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/providers/aws/common"
)

type fakeProvider struct {
	loadErr    error
	regions    []string
	regionsErr error
}

func (p *fakeProvider) LoadProfile(_ context.Context, profile string, _ ...common.LoadOption) (*common.ProfileConfig, error) {
	if p.loadErr != nil {
		return nil, p.loadErr
	}
	if profile == "" {
		profile = "default"
	}
	return &common.ProfileConfig{ProfileName: profile, AccountID: "111122223333", Region: "us-east-1"}, nil
}

func (p *fakeProvider) GetActiveRegions(context.Context, *common.ProfileConfig) ([]string, error) {
	return p.regions, p.regionsErr
}

// ── buckets ──────────────────────────────────────────────────────────────────

type fakeBuckets struct {
	refs       []models.BucketRef
	listErr    error
	grantees   map[string][]models.Grantee
	aclErr     map[string]error
	encryption map[string][]models.EncryptionRule
	encErr     map[string]error
	locations  map[string]string

	// locateHook runs at the start of every BucketRegion call.
	locateHook func(ctx context.Context)
	// hook runs at the start of every GetACL call.
	hook func(ctx context.Context, ref models.BucketRef)

	inFlight, maxInFlight atomic.Int32

	mu      sync.Mutex
	located []string
}

func (f *fakeBuckets) ListBuckets(context.Context) ([]models.BucketRef, error) {
	return f.refs, f.listErr
}

func (f *fakeBuckets) BucketRegion(ctx context.Context, ref models.BucketRef) (string, error) {
	f.mu.Lock()
	f.located = append(f.located, ref.Name)
	f.mu.Unlock()
	if f.locateHook != nil {
		f.locateHook(ctx)
		if err := ctx.Err(); err != nil {
			return "", err
		}
	}
	if region, ok := f.locations[ref.Name]; ok {
		return region, nil
	}
	return "", &models.FetchError{Kind: models.ErrAccessDenied, Op: "s3:GetBucketLocation", Err: errors.New("AccessDenied")}
}

func (f *fakeBuckets) GetACL(ctx context.Context, ref models.BucketRef) ([]models.Grantee, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxInFlight.Load()
		if n <= m || f.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}
	if f.hook != nil {
		f.hook(ctx, ref)
	}
	if err := f.aclErr[ref.Name]; err != nil {
		return nil, err
	}
	return f.grantees[ref.Name], nil
}

func (f *fakeBuckets) GetEncryption(_ context.Context, ref models.BucketRef) ([]models.EncryptionRule, error) {
	if err := f.encErr[ref.Name]; err != nil {
		return nil, err
	}
	return f.encryption[ref.Name], nil
}

// ── roles ────────────────────────────────────────────────────────────────────

type fakeRoles struct {
	refs     []models.RoleRef
	listErr  error
	listHook func()
	policies map[string][]models.PolicyRef
	docs     map[string]string // key: policy name
	docErr   map[string]error
}

func (f *fakeRoles) ListRoles(context.Context) ([]models.RoleRef, error) {
	if f.listHook != nil {
		f.listHook()
	}
	return f.refs, f.listErr
}

func (f *fakeRoles) ListAttachedPolicies(_ context.Context, role models.RoleRef) ([]models.PolicyRef, error) {
	// Copy so the orchestrator's document writes never touch fixture data.
	return append([]models.PolicyRef(nil), f.policies[role.Name]...), nil
}

func (f *fakeRoles) GetPolicyDocument(_ context.Context, _ models.RoleRef, ref models.PolicyRef) ([]byte, error) {
	if err := f.docErr[ref.Name]; err != nil {
		return nil, err
	}
	doc, ok := f.docs[ref.Name]
	if !ok {
		return nil, nil
	}
	return []byte(doc), nil
}

// ── trails ───────────────────────────────────────────────────────────────────

type fakeTrails struct {
	refs      []models.TrailRef
	listErr   error
	status    map[string]bool
	statusErr map[string]error
}

func (f *fakeTrails) DescribeTrails(context.Context) ([]models.TrailRef, error) {
	return f.refs, f.listErr
}

func (f *fakeTrails) GetStatus(_ context.Context, ref models.TrailRef) (*bool, error) {
	if err := f.statusErr[ref.Name]; err != nil {
		return nil, err
	}
	v, ok := f.status[ref.Name]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func dirsOf(b *fakeBuckets, r *fakeRoles, t *fakeTrails) DirectoryFactory {
	return func(*common.ProfileConfig, []string) Directories {
		return Directories{Buckets: b, Roles: r, Trails: t}
	}
}

var errDenied = &models.FetchError{Kind: models.ErrAccessDenied, Op: "s3:GetBucketAcl", Err: errors.New("AccessDenied")}

// regionRecorder captures the regions passed to the directory factory.
type regionRecorder struct {
	mu      sync.Mutex
	regions []string
}

func (r *regionRecorder) factory(d Directories) DirectoryFactory {
	return func(_ *common.ProfileConfig, regions []string) Directories {
		r.mu.Lock()
		r.regions = regions
		r.mu.Unlock()
		return d
	}
}
