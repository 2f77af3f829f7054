package policy

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// ParseSeverity accepts a severity name in any casing.
func ParseSeverity(s string) (models.Severity, bool) {
	sev := models.Severity(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := SeverityRank[sev]
	return sev, ok
}

const severityChoices = "CRITICAL, HIGH, MEDIUM, LOW, INFO"

// Validate returns every problem in cfg, in a stable order (version, then
// domains, then rules, each sorted by key). An empty result means valid.
//
// A rule entry that both disables the rule and overrides its severity is
// rejected: the override could never apply.
func Validate(cfg *PolicyConfig, availableRuleIDs []string) []error {
	if cfg == nil {
		return []error{fmt.Errorf("policy config is nil")}
	}

	var errs []error
	if cfg.Version != 1 {
		errs = append(errs, fmt.Errorf("version: unsupported value %d; must be 1", cfg.Version))
	}

	for _, name := range sortedKeys(cfg.Domains) {
		d := cfg.Domains[name]
		if name != Domain {
			errs = append(errs, fmt.Errorf("domains.%s: unknown domain; valid values: %s", name, Domain))
		}
		if d.MinSeverity == "" {
			continue
		}
		if _, ok := ParseSeverity(d.MinSeverity); !ok {
			errs = append(errs, fmt.Errorf("domains.%s.min_severity: invalid value %q; valid values: %s", name, d.MinSeverity, severityChoices))
		}
	}

	for _, id := range sortedKeys(cfg.Rules) {
		r := cfg.Rules[id]
		if !slices.Contains(availableRuleIDs, id) {
			errs = append(errs, fmt.Errorf("rules.%s: unknown rule ID", id))
		}
		if r.Severity == "" {
			continue
		}
		if _, ok := ParseSeverity(r.Severity); !ok {
			errs = append(errs, fmt.Errorf("rules.%s.severity: invalid value %q; valid values: %s", id, r.Severity, severityChoices))
		}
		if r.Enabled != nil && !*r.Enabled {
			errs = append(errs, fmt.Errorf("rules.%s: severity override on a disabled rule", id))
		}
	}
	return errs
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
