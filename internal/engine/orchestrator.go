package engine

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/rules"
)

// ClassResults holds the per-class finding sequences of one scan, each in
// enumeration order, plus the status of every class.
type ClassResults struct {
	Buckets []models.BucketFinding
	Roles   []models.RoleFinding
	Trails  []models.TrailFinding
	Status  []models.ClassStatus
}

// Orchestrator scans the three resource classes concurrently. Within a class
// resources are fetched and evaluated by at most concurrency workers.
//
// When ctx is done the orchestrator stops dispatching new resources, lets
// in-flight fetches finish under their own call timeout, and marks the class
// truncated. A failing resource becomes an error entry in place; it never
// aborts its class.
type Orchestrator struct {
	dirs        Directories
	concurrency int
	callTimeout time.Duration
	wildcards   rules.WildcardMode
	log         zerolog.Logger
	tracer      trace.Tracer
}

// NewOrchestrator returns an Orchestrator over dirs. Zero-valued options fall
// back to the engine defaults.
func NewOrchestrator(dirs Directories, opts AuditOptions, log zerolog.Logger, tracer trace.Tracer) *Orchestrator {
	opts = opts.withDefaults()
	return &Orchestrator{
		dirs:        dirs,
		concurrency: opts.Concurrency,
		callTimeout: opts.CallTimeout,
		wildcards:   opts.Wildcards,
		log:         log,
		tracer:      tracer,
	}
}

// Run scans all classes and returns once every class has finished or has
// stopped dispatching and drained its in-flight work.
func (o *Orchestrator) Run(ctx context.Context) ClassResults {
	var (
		res                                   ClassResults
		bucketStatus, roleStatus, trailStatus models.ClassStatus
	)

	// No shared cancellation: one class failing never stops its siblings.
	var g errgroup.Group
	g.Go(func() error {
		res.Buckets, bucketStatus = scanClass(ctx, o, models.ClassBuckets,
			o.dirs.Buckets.ListBuckets, o.fetchBucket,
			func(r models.BucketRef) string { return r.Name },
			models.BucketFinding.Failed)
		return nil
	})
	g.Go(func() error {
		res.Roles, roleStatus = scanClass(ctx, o, models.ClassRoles,
			o.dirs.Roles.ListRoles, o.fetchRole,
			func(r models.RoleRef) string { return r.Name },
			models.RoleFinding.Failed)
		return nil
	})
	g.Go(func() error {
		res.Trails, trailStatus = scanClass(ctx, o, models.ClassTrails,
			o.dirs.Trails.DescribeTrails, o.fetchTrail,
			func(r models.TrailRef) string { return r.Name },
			models.TrailFinding.Failed)
		return nil
	})
	_ = g.Wait()

	res.Status = []models.ClassStatus{bucketStatus, roleStatus, trailStatus}
	return res
}

// scanClass enumerates one class and fans the per-resource work out to a
// bounded worker group. Results land in a slice indexed by enumeration
// position, so no locking is needed.
func scanClass[R, F any](
	ctx context.Context,
	o *Orchestrator,
	class models.ResourceClass,
	list func(context.Context) ([]R, error),
	fetch func(context.Context, R) F,
	name func(R) string,
	failed func(F) bool,
) ([]F, models.ClassStatus) {
	ctx, span := o.tracer.Start(ctx, "scan."+string(class))
	defer span.End()

	status := models.ClassStatus{Class: class}
	log := o.log.With().Str("class", string(class)).Logger()
	log.Info().Msg("scan started")

	refs, err := list(ctx)
	if err != nil {
		status.Error = resourceError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "enumeration failed")
		log.Error().Err(err).Str("kind", string(status.Error.Kind)).Msg("enumeration failed; class skipped")
		return []F{}, status
	}
	status.Enumerated = len(refs)

	results := make([]F, len(refs))
	dispatched := 0

	// Waiting for a worker slot must observe ctx; errgroup's SetLimit blocks
	// past cancellation.
	sem := make(chan struct{}, o.concurrency)
	var g errgroup.Group
dispatch:
	for i, ref := range refs {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			status.Truncated = true
			break dispatch
		}
		if ctx.Err() != nil {
			<-sem
			status.Truncated = true
			break
		}
		dispatched++
		g.Go(func() error {
			defer func() { <-sem }()
			// In-flight work outlives cancellation; each call is bounded by
			// callTimeout instead.
			fctx, fspan := o.tracer.Start(context.WithoutCancel(ctx), "fetch."+string(class),
				trace.WithAttributes(attribute.String("resource", name(ref))))
			defer fspan.End()

			results[i] = fetch(fctx, ref)
			if failed(results[i]) {
				fspan.SetStatus(codes.Error, "resource error")
			}
			return nil
		})
	}
	_ = g.Wait()

	results = results[:dispatched]
	status.Scanned = dispatched
	status.Skipped = len(refs) - dispatched
	for _, f := range results {
		if failed(f) {
			status.Failed++
		}
	}
	status.Complete = !status.Truncated
	span.SetAttributes(
		attribute.Int("enumerated", status.Enumerated),
		attribute.Int("failed", status.Failed),
		attribute.Bool("truncated", status.Truncated),
	)

	ev := log.Info()
	if status.Truncated {
		ev = log.Warn()
	}
	ev.Int("enumerated", status.Enumerated).
		Int("scanned", status.Scanned).
		Int("failed", status.Failed).
		Int("skipped", status.Skipped).
		Bool("truncated", status.Truncated).
		Msg("scan finished")
	return results, status
}

// call runs fn under the per-call timeout.
func (o *Orchestrator) call(ctx context.Context, fn func(context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()
	return fn(cctx)
}

func (o *Orchestrator) fetchBucket(ctx context.Context, ref models.BucketRef) models.BucketFinding {
	if ref.Region == "" {
		// Best effort: without a region the calls go to the home region.
		err := o.call(ctx, func(ctx context.Context) error {
			region, err := o.dirs.Buckets.BucketRegion(ctx, ref)
			ref.Region = region
			return err
		})
		if err != nil {
			o.log.Debug().Str("resource", ref.Name).Err(err).Msg("bucket region unresolved")
		}
	}
	fact := models.BucketFact{Name: ref.Name, Region: ref.Region}

	err := o.call(ctx, func(ctx context.Context) error {
		g, err := o.dirs.Buckets.GetACL(ctx, ref)
		fact.Grantees, fact.ACLRetrieved = g, err == nil
		return err
	})
	if err == nil {
		err = o.call(ctx, func(ctx context.Context) error {
			enc, err := o.dirs.Buckets.GetEncryption(ctx, ref)
			fact.Encryption = enc
			return err
		})
	}
	if err != nil {
		return models.BucketFinding{BucketName: ref.Name, Region: ref.Region, Error: o.resourceFailed(models.ClassBuckets, ref.Name, err)}
	}

	finding, err := rules.EvaluateBucketExposure(fact)
	if err != nil {
		finding.Error = o.resourceFailed(models.ClassBuckets, ref.Name, err)
	}
	return finding
}

func (o *Orchestrator) fetchRole(ctx context.Context, ref models.RoleRef) models.RoleFinding {
	fact := models.RoleFact{RoleName: ref.Name, ARN: ref.ARN}
	failed := func(err error) models.RoleFinding {
		return models.RoleFinding{RoleName: ref.Name, Error: o.resourceFailed(models.ClassRoles, ref.Name, err)}
	}

	err := o.call(ctx, func(ctx context.Context) error {
		p, err := o.dirs.Roles.ListAttachedPolicies(ctx, ref)
		fact.Policies = p
		return err
	})
	if err != nil {
		return failed(err)
	}

	// A document that cannot be fetched stays nil; the remaining policies
	// may still prove the role permissive.
	fetchErrs := make(map[string]error)
	for i := range fact.Policies {
		p := &fact.Policies[i]
		err := o.call(ctx, func(ctx context.Context) error {
			doc, err := o.dirs.Roles.GetPolicyDocument(ctx, ref, *p)
			p.Document = doc
			return err
		})
		if err != nil {
			p.Document = nil
			fetchErrs[p.Name] = err
		}
	}

	finding, err := rules.EvaluateRolePermissiveness(fact, o.wildcards)
	if err != nil {
		// Report the fetch failure rather than the missing document it left.
		if fe, ok := fetchErrs[finding.UnevaluatedPolicies[0]]; ok {
			return failed(fe)
		}
		return failed(err)
	}
	for _, name := range finding.UnevaluatedPolicies {
		o.log.Warn().
			Str("class", string(models.ClassRoles)).
			Str("resource", ref.Name).
			Str("policy", name).
			AnErr("fetch_error", fetchErrs[name]).
			Msg("policy not evaluated; role already overly permissive")
	}
	return finding
}

func (o *Orchestrator) fetchTrail(ctx context.Context, ref models.TrailRef) models.TrailFinding {
	fact := models.TrailFact{TrailName: ref.Name, ARN: ref.ARN, HomeRegion: ref.HomeRegion}
	err := o.call(ctx, func(ctx context.Context) error {
		status, err := o.dirs.Trails.GetStatus(ctx, ref)
		fact.IsLogging = status
		return err
	})
	if err != nil {
		return models.TrailFinding{TrailName: ref.Name, Region: ref.HomeRegion, Error: o.resourceFailed(models.ClassTrails, ref.Name, err)}
	}
	return rules.EvaluateTrailLogging(fact)
}

// resourceFailed logs a per-resource failure and returns its error entry.
func (o *Orchestrator) resourceFailed(class models.ResourceClass, name string, err error) *models.ResourceError {
	re := resourceError(err)
	o.log.Warn().
		Str("class", string(class)).
		Str("resource", name).
		Str("kind", string(re.Kind)).
		Err(err).
		Msg("resource could not be audited")
	return re
}

// resourceError classifies err into its serialised form.
func resourceError(err error) *models.ResourceError {
	return &models.ResourceError{Kind: errorKind(err), Message: err.Error()}
}

func errorKind(err error) models.ErrorKind {
	var fe *models.FetchError
	switch {
	case errors.As(err, &fe):
		return fe.Kind
	case errors.Is(err, context.DeadlineExceeded):
		return models.ErrTimeout
	case errors.Is(err, context.Canceled):
		return models.ErrCanceled
	case errors.Is(err, rules.ErrACLUnavailable), errors.Is(err, rules.ErrPolicyDocumentUnavailable):
		return models.ErrIncompleteFacts
	case errors.Is(err, rules.ErrMalformedPolicy):
		return models.ErrMalformed
	}
	return models.ErrUnknown
}
