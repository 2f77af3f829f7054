package rules

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// DefaultRuleRegistry is a simple, ordered, in-memory registry.
// Register panics on duplicate rule IDs to catch wiring mistakes at startup.
type DefaultRuleRegistry struct {
	rules []Rule
	index map[string]struct{}
}

// NewDefaultRuleRegistry returns a registry holding rs in order.
func NewDefaultRuleRegistry(rs ...Rule) *DefaultRuleRegistry {
	r := &DefaultRuleRegistry{
		index: make(map[string]struct{}),
	}
	for _, rule := range rs {
		r.Register(rule)
	}
	return r
}

// Register adds rule to the registry. Panics if the same ID is registered twice.
func (r *DefaultRuleRegistry) Register(rule Rule) {
	if _, exists := r.index[rule.ID()]; exists {
		panic(fmt.Sprintf("duplicate rule ID: %q", rule.ID()))
	}
	r.rules = append(r.rules, rule)
	r.index[rule.ID()] = struct{}{}
}

// All returns all registered rules in registration order.
func (r *DefaultRuleRegistry) All() []Rule {
	return r.rules
}

// EvaluateAll runs every registered rule against ctx sequentially in
// registration order. A nil report yields no issues.
func (r *DefaultRuleRegistry) EvaluateAll(ctx RuleContext) []models.Issue {
	if ctx.Report == nil {
		return nil
	}
	var issues []models.Issue
	for _, rule := range r.rules {
		issues = append(issues, rule.Evaluate(ctx)...)
	}
	return issues
}
