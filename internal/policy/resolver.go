package policy

import (
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// SeverityRank orders severities: CRITICAL (5) > HIGH (4) > MEDIUM (3) > LOW (2) > INFO (1).
// Unknown values rank 0.
var SeverityRank = map[models.Severity]int{
	models.SeverityCritical: 5,
	models.SeverityHigh:     4,
	models.SeverityMedium:   3,
	models.SeverityLow:      2,
	models.SeverityInfo:     1,
}

// ApplyPolicy filters and re-ranks issues for domain according to cfg.
// A nil cfg returns issues unchanged. The input slice is not modified.
func ApplyPolicy(issues []models.Issue, domain string, cfg *PolicyConfig) []models.Issue {
	if cfg == nil {
		return issues
	}

	var minRank int
	if d, ok := cfg.Domains[domain]; ok {
		if d.Enabled != nil && !*d.Enabled {
			return []models.Issue{}
		}
		if sev, ok := ParseSeverity(d.MinSeverity); ok {
			minRank = SeverityRank[sev]
		}
	}

	result := make([]models.Issue, 0, len(issues))
	for _, is := range issues {
		ruleCfg, hasRule := cfg.Rules[is.RuleID]

		if hasRule && ruleCfg.Enabled != nil && !*ruleCfg.Enabled {
			continue
		}
		if sev, ok := ParseSeverity(ruleCfg.Severity); hasRule && ok {
			is.Severity = sev
		}
		if SeverityRank[is.Severity] < minRank {
			continue
		}
		result = append(result, is)
	}
	return result
}
