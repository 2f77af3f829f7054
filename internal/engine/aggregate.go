package engine

import (
	"sort"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/policy"
)

// Assemble combines the three per-class finding sequences into a report.
// The sequences are carried over unchanged: no deduplication, no
// re-ordering, no correlation. It cannot fail.
func Assemble(buckets []models.BucketFinding, roles []models.RoleFinding, trails []models.TrailFinding) *models.AuditReport {
	return &models.AuditReport{
		BucketFindings: buckets,
		RoleFindings:   roles,
		TrailFindings:  trails,
	}
}

// sortResults orders every class by resource name, then region, so reports
// are reproducible even though listing order is not.
func sortResults(res *ClassResults) {
	sort.SliceStable(res.Buckets, func(i, j int) bool {
		a, b := res.Buckets[i], res.Buckets[j]
		if a.BucketName != b.BucketName {
			return a.BucketName < b.BucketName
		}
		return a.Region < b.Region
	})
	sort.SliceStable(res.Roles, func(i, j int) bool {
		return res.Roles[i].RoleName < res.Roles[j].RoleName
	})
	sort.SliceStable(res.Trails, func(i, j int) bool {
		a, b := res.Trails[i], res.Trails[j]
		if a.TrailName != b.TrailName {
			return a.TrailName < b.TrailName
		}
		return a.Region < b.Region
	})
}

// sortIssues sorts issues in-place: severity descending (CRITICAL first),
// then rule ID and resource ID for a stable order.
func sortIssues(issues []models.Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		ri := policy.SeverityRank[issues[i].Severity]
		rj := policy.SeverityRank[issues[j].Severity]
		if ri != rj {
			return ri > rj
		}
		if issues[i].RuleID != issues[j].RuleID {
			return issues[i].RuleID < issues[j].RuleID
		}
		return issues[i].ResourceID < issues[j].ResourceID
	})
}

// computeSummary counts findings, error entries and issues by severity.
func computeSummary(r *models.AuditReport) models.AuditSummary {
	var s models.AuditSummary
	s.Buckets = len(r.BucketFindings)
	for _, b := range r.BucketFindings {
		switch {
		case b.Failed():
			s.ResourceErrors++
		default:
			if b.IsPublic {
				s.PublicBuckets++
			}
			if !b.IsEncrypted {
				s.UnencryptedBuckets++
			}
		}
	}
	s.Roles = len(r.RoleFindings)
	for _, role := range r.RoleFindings {
		if role.Failed() {
			s.ResourceErrors++
		} else if role.IsOverlyPermissive {
			s.PermissiveRoles++
		}
	}
	s.Trails = len(r.TrailFindings)
	for _, t := range r.TrailFindings {
		if t.Failed() {
			s.ResourceErrors++
		} else if !t.IsLogging {
			s.TrailsNotLogging++
		}
	}
	for _, is := range r.Issues {
		switch is.Severity {
		case models.SeverityCritical:
			s.CriticalIssues++
		case models.SeverityHigh:
			s.HighIssues++
		case models.SeverityMedium:
			s.MediumIssues++
		case models.SeverityLow:
			s.LowIssues++
		}
	}
	return s
}
