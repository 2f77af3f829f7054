package engine

import (
	"context"
	"errors"
	"time"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/rules"
)

var (
	// ErrSetup marks failures that prevent any scanning: credentials,
	// configuration or client construction. No report is produced.
	ErrSetup = errors.New("audit setup failed")

	// ErrOutput marks failures to serialise or persist a finished report.
	ErrOutput = errors.New("report output failed")
)

// Defaults applied by the engine when AuditOptions leaves a field unset.
const (
	DefaultConcurrency = 8
	DefaultCallTimeout = 30 * time.Second
)

// AuditOptions configures a single audit run.
// It is the sole input to Engine.RunAudit.
type AuditOptions struct {
	// Profile is the named AWS profile to use. Empty means the default
	// credential chain.
	Profile string

	// Regions is an explicit list of regions searched for trails. When empty
	// the engine discovers the account's active regions.
	Regions []string

	// Concurrency bounds in-flight per-resource fetches within each class.
	Concurrency int

	// CallTimeout bounds every external call made for a single resource.
	CallTimeout time.Duration

	// Timeout is the overall run deadline. Zero means none; cancellation of
	// the caller's context has the same effect.
	Timeout time.Duration

	// MaxAttempts bounds SDK retries per call.
	MaxAttempts int

	// Endpoint overrides the AWS base endpoint.
	Endpoint string

	// Wildcards selects how Action entries are matched.
	Wildcards rules.WildcardMode
}

func (o AuditOptions) withDefaults() AuditOptions {
	if o.Concurrency < 1 {
		o.Concurrency = DefaultConcurrency
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = DefaultCallTimeout
	}
	if o.Wildcards == "" {
		o.Wildcards = rules.WildcardExact
	}
	return o
}

// Engine runs one audit pass and returns the assembled report.
//
// A non-nil error always wraps ErrSetup; every other failure is recorded in
// the report itself.
type Engine interface {
	RunAudit(ctx context.Context, opts AuditOptions) (*models.AuditReport, error)
}
