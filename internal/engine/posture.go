package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/policy"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/rules"
)

const tracerName = "github.com/pankaj-dahiya-devops/cloud-posture/internal/engine"

// PostureEngine implements Engine for the posture audit. It loads the
// session, runs the Orchestrator, assembles the report and derives issues.
// It never calls the AWS SDK directly; all calls go through the provider and
// the directories built by its DirectoryFactory.
type PostureEngine struct {
	provider    common.AWSClientProvider
	directories DirectoryFactory
	registry    rules.RuleRegistry
	policy      *policy.PolicyConfig
	log         zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// Option customises a PostureEngine.
type Option func(*PostureEngine)

// WithLogger sets the progress logger. The default discards output.
func WithLogger(l zerolog.Logger) Option {
	return func(e *PostureEngine) { e.log = l }
}

// WithPolicy applies cfg to the derived issues.
func WithPolicy(cfg *policy.PolicyConfig) Option {
	return func(e *PostureEngine) { e.policy = cfg }
}

// WithClock overrides the report timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *PostureEngine) { e.now = now }
}

// NewPostureEngine constructs a PostureEngine wired to the supplied provider,
// directory factory and rule registry.
func NewPostureEngine(
	provider common.AWSClientProvider,
	directories DirectoryFactory,
	registry rules.RuleRegistry,
	opts ...Option,
) *PostureEngine {
	e := &PostureEngine{
		provider:    provider,
		directories: directories,
		registry:    registry,
		log:         zerolog.Nop(),
		tracer:      otel.Tracer(tracerName),
		now:         time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// RunAudit implements Engine.
func (e *PostureEngine) RunAudit(ctx context.Context, opts AuditOptions) (*models.AuditReport, error) {
	opts = opts.withDefaults()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	ctx, span := e.tracer.Start(ctx, "audit.run")
	defer span.End()

	profile, err := e.provider.LoadProfile(ctx, opts.Profile,
		common.WithMaxAttempts(opts.MaxAttempts),
		common.WithEndpoint(opts.Endpoint),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "setup failed")
		return nil, fmt.Errorf("%w: %w", ErrSetup, err)
	}
	span.SetAttributes(attribute.String("account_id", profile.AccountID))

	regions := e.resolveRegions(ctx, profile, opts.Regions)

	e.log.Info().
		Str("profile", profile.ProfileName).
		Str("account", profile.AccountID).
		Strs("regions", regions).
		Int("concurrency", opts.Concurrency).
		Msg("audit started")

	orch := NewOrchestrator(e.directories(profile, regions), opts, e.log, e.tracer)
	res := orch.Run(ctx)
	sortResults(&res)

	report := Assemble(res.Buckets, res.Roles, res.Trails)
	report.ReportID = uuid.NewString()
	report.GeneratedAt = e.now().UTC()
	report.AccountID = profile.AccountID
	report.Profile = profile.ProfileName
	report.Regions = regions
	report.ScanStatus = res.Status

	issues := e.registry.EvaluateAll(rules.RuleContext{AccountID: profile.AccountID, Report: report})
	issues = policy.ApplyPolicy(issues, policy.Domain, e.policy)
	sortIssues(issues)
	report.Issues = issues
	report.Summary = computeSummary(report)

	if report.Partial() {
		span.SetStatus(codes.Error, "partial report")
	}
	e.log.Info().
		Int("buckets", report.Summary.Buckets).
		Int("roles", report.Summary.Roles).
		Int("trails", report.Summary.Trails).
		Int("resource_errors", report.Summary.ResourceErrors).
		Int("issues", len(report.Issues)).
		Bool("partial", report.Partial()).
		Msg("audit finished")
	return report, nil
}

// resolveRegions returns the explicit region list when provided, otherwise
// the account's active regions. Discovery failure falls back to the home
// region: it only narrows the trail search and must not abort the run.
func (e *PostureEngine) resolveRegions(ctx context.Context, profile *common.ProfileConfig, explicit []string) []string {
	if len(explicit) > 0 {
		return explicit
	}
	regions, err := e.provider.GetActiveRegions(ctx, profile)
	if err != nil || len(regions) == 0 {
		e.log.Warn().Err(err).Str("region", profile.Region).Msg("region discovery failed; using home region only")
		return []string{profile.Region}
	}
	return regions
}
