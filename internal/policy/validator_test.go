package policy_test

import (
	"strings"
	"testing"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/policy"
)

// knownRules is a fixed rule ID set used by all validator tests.
var knownRules = []string{"S3_PUBLIC_BUCKET", "S3_ENCRYPTION_MISSING", "RESOURCE_SCAN_FAILED"}

func boolPtr(b bool) *bool { return &b }

// ── happy path ────────────────────────────────────────────────────────────────

func TestValidate_ValidMinimalConfig(t *testing.T) {
	cfg := &policy.PolicyConfig{Version: 1}
	if errs := policy.Validate(cfg, knownRules); len(errs) != 0 {
		t.Errorf("expected no errors; got %d: %v", len(errs), errs)
	}
}

func TestValidate_ValidFullConfig(t *testing.T) {
	cfg := &policy.PolicyConfig{
		Version: 1,
		Domains: map[string]policy.DomainConfig{
			"posture": {Enabled: boolPtr(true), MinSeverity: "medium"},
		},
		Rules: map[string]policy.RuleConfig{
			"S3_PUBLIC_BUCKET":      {Severity: "CRITICAL"},
			"S3_ENCRYPTION_MISSING": {Severity: "low"},
			"RESOURCE_SCAN_FAILED":  {Enabled: boolPtr(false)},
		},
	}
	if errs := policy.Validate(cfg, knownRules); len(errs) != 0 {
		t.Errorf("expected no errors; got %d: %v", len(errs), errs)
	}
}

func TestValidate_SeverityCaseInsensitive(t *testing.T) {
	for _, sev := range []string{"critical", "High", "MEDIUM", "low", "Info"} {
		cfg := &policy.PolicyConfig{
			Version: 1,
			Rules:   map[string]policy.RuleConfig{"S3_PUBLIC_BUCKET": {Severity: sev}},
		}
		if errs := policy.Validate(cfg, knownRules); len(errs) != 0 {
			t.Errorf("severity %q: expected no errors; got %v", sev, errs)
		}
	}
}

// ── failures ──────────────────────────────────────────────────────────────────

func TestValidate_InvalidVersion(t *testing.T) {
	errs := policy.Validate(&policy.PolicyConfig{Version: 2}, knownRules)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error; got %d: %v", len(errs), errs)
	}
	if !strings.Contains(errs[0].Error(), "version") {
		t.Errorf("error should mention version; got %q", errs[0])
	}
}

func TestValidate_UnknownDomain(t *testing.T) {
	cfg := &policy.PolicyConfig{
		Version: 1,
		Domains: map[string]policy.DomainConfig{"cost": {}},
	}
	errs := policy.Validate(cfg, knownRules)
	if len(errs) != 1 || !strings.Contains(errs[0].Error(), "domains.cost") {
		t.Errorf("expected one domains.cost error; got %v", errs)
	}
}

func TestValidate_InvalidMinSeverity(t *testing.T) {
	cfg := &policy.PolicyConfig{
		Version: 1,
		Domains: map[string]policy.DomainConfig{"posture": {MinSeverity: "urgent"}},
	}
	if errs := policy.Validate(cfg, knownRules); len(errs) != 1 {
		t.Errorf("expected 1 error; got %v", errs)
	}
}

func TestValidate_UnknownRule(t *testing.T) {
	cfg := &policy.PolicyConfig{
		Version: 1,
		Rules:   map[string]policy.RuleConfig{"EC2_LOW_CPU": {Severity: "HIGH"}},
	}
	errs := policy.Validate(cfg, knownRules)
	if len(errs) != 1 || !strings.Contains(errs[0].Error(), "unknown rule ID") {
		t.Errorf("expected unknown rule error; got %v", errs)
	}
}

func TestValidate_MultipleErrorsAggregated(t *testing.T) {
	cfg := &policy.PolicyConfig{
		Version: 3,
		Domains: map[string]policy.DomainConfig{"security": {MinSeverity: "bad"}},
		Rules:   map[string]policy.RuleConfig{"NOPE": {Severity: "worse"}},
	}
	// version + unknown domain + bad min_severity + unknown rule + bad severity
	if errs := policy.Validate(cfg, knownRules); len(errs) != 5 {
		t.Errorf("expected 5 errors; got %d: %v", len(errs), errs)
	}
}

func TestValidate_SeverityOverrideOnDisabledRule(t *testing.T) {
	cfg := &policy.PolicyConfig{
		Version: 1,
		Rules: map[string]policy.RuleConfig{
			"S3_PUBLIC_BUCKET": {Enabled: boolPtr(false), Severity: "LOW"},
		},
	}
	errs := policy.Validate(cfg, knownRules)
	if len(errs) != 1 || !strings.Contains(errs[0].Error(), "disabled rule") {
		t.Errorf("expected one disabled-rule error; got %v", errs)
	}
}

func TestValidate_StableOrder(t *testing.T) {
	cfg := &policy.PolicyConfig{
		Version: 1,
		Rules: map[string]policy.RuleConfig{
			"ZZZ": {}, "AAA": {}, "MMM": {},
		},
	}
	for i := 0; i < 5; i++ {
		errs := policy.Validate(cfg, knownRules)
		if len(errs) != 3 {
			t.Fatalf("expected 3 errors; got %v", errs)
		}
		if !strings.HasPrefix(errs[0].Error(), "rules.AAA") || !strings.HasPrefix(errs[2].Error(), "rules.ZZZ") {
			t.Fatalf("errors not sorted by rule ID: %v", errs)
		}
	}
}

func TestParseSeverity(t *testing.T) {
	if sev, ok := policy.ParseSeverity(" high "); !ok || sev != "HIGH" {
		t.Errorf("got %q, %v; want HIGH, true", sev, ok)
	}
	if _, ok := policy.ParseSeverity("urgent"); ok {
		t.Error("urgent must not parse")
	}
}

func TestValidate_NilConfig(t *testing.T) {
	if errs := policy.Validate(nil, knownRules); len(errs) != 1 {
		t.Errorf("expected 1 error for nil config; got %v", errs)
	}
}
