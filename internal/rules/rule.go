package rules

import (
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// RuleContext carries a finished report to the issue rules.
// Rules must never make network calls or read external state.
type RuleContext struct {
	// AccountID is the AWS account the report was collected from.
	AccountID string

	// Report holds the assembled findings. Rules must treat it as read-only.
	Report *models.AuditReport
}

// Rule derives severity-ranked issues from report findings.
// Rules must be stateless and safe to call concurrently.
type Rule interface {
	// ID returns the unique, stable identifier for this rule (e.g. "S3_PUBLIC_BUCKET").
	ID() string

	// Name returns a short human-readable rule name.
	Name() string

	// Evaluate inspects ctx and returns zero or more issues.
	Evaluate(ctx RuleContext) []models.Issue
}

// RuleRegistry manages the set of active rules and drives evaluation.
type RuleRegistry interface {
	// Register adds a rule to the registry. Panics on duplicate ID.
	Register(rule Rule)

	// All returns all registered rules in registration order.
	All() []Rule

	// EvaluateAll runs every registered rule against ctx and merges results.
	EvaluateAll(ctx RuleContext) []models.Issue
}
