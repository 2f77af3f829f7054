package models

import "time"

// Severity represents the impact level of an issue.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityInfo     Severity = "INFO"
)

// ResourceType identifies the kind of cloud resource an issue refers to.
type ResourceType string

const (
	ResourceS3Bucket   ResourceType = "S3_BUCKET"
	ResourceIAMRole    ResourceType = "IAM_ROLE"
	ResourceCloudTrail ResourceType = "CLOUDTRAIL_TRAIL"
)

// Issue is a severity-ranked problem derived from the findings of a finished
// report. It is what the table output and the policy file operate on.
type Issue struct {
	ID             string       `json:"id"`
	RuleID         string       `json:"rule_id"`
	ResourceID     string       `json:"resource_id"`
	ResourceType   ResourceType `json:"resource_type"`
	Region         string       `json:"region"`
	AccountID      string       `json:"account_id"`
	Severity       Severity     `json:"severity"`
	Explanation    string       `json:"explanation"`
	Recommendation string       `json:"recommendation"`
}

// ClassStatus records how completely one resource class was scanned.
// Complete is false when enumeration failed (Error is set and the class has
// no findings) or when the run was cancelled before every resource was
// dispatched (Truncated, with Skipped resources left out of the report).
type ClassStatus struct {
	Class      ResourceClass  `json:"class"`
	Complete   bool           `json:"complete"`
	Truncated  bool           `json:"truncated,omitempty"`
	Enumerated int            `json:"enumerated"`
	Scanned    int            `json:"scanned"`
	Failed     int            `json:"failed"`
	Skipped    int            `json:"skipped,omitempty"`
	Error      *ResourceError `json:"error,omitempty"`
}

// AuditSummary aggregates counts across the report.
type AuditSummary struct {
	Buckets            int `json:"buckets"`
	PublicBuckets      int `json:"public_buckets"`
	UnencryptedBuckets int `json:"unencrypted_buckets"`
	Roles              int `json:"roles"`
	PermissiveRoles    int `json:"overly_permissive_roles"`
	Trails             int `json:"trails"`
	TrailsNotLogging   int `json:"trails_not_logging"`
	ResourceErrors     int `json:"resource_errors"`
	CriticalIssues     int `json:"critical_issues"`
	HighIssues         int `json:"high_issues"`
	MediumIssues       int `json:"medium_issues"`
	LowIssues          int `json:"low_issues"`
}

// AuditReport is the single artifact of an audit run. It is built once by
// the engine and never mutated afterwards.
type AuditReport struct {
	ReportID       string          `json:"report_id,omitempty"`
	GeneratedAt    time.Time       `json:"generated_at"`
	AccountID      string          `json:"account_id,omitempty"`
	Profile        string          `json:"profile,omitempty"`
	Regions        []string        `json:"regions,omitempty"`
	BucketFindings []BucketFinding `json:"bucket_findings"`
	RoleFindings   []RoleFinding   `json:"role_findings"`
	TrailFindings  []TrailFinding  `json:"trail_findings"`
	ScanStatus     []ClassStatus   `json:"scan_status,omitempty"`
	Summary        AuditSummary    `json:"summary"`
	Issues         []Issue         `json:"issues,omitempty"`
}

// Partial reports whether any class scan was incomplete.
func (r *AuditReport) Partial() bool {
	for _, s := range r.ScanStatus {
		if !s.Complete {
			return true
		}
	}
	return false
}

// ScanFailed reports whether every class failed at enumeration, leaving the
// report with no audited resources at all.
func (r *AuditReport) ScanFailed() bool {
	if len(r.ScanStatus) == 0 {
		return false
	}
	for _, s := range r.ScanStatus {
		if s.Error == nil {
			return false
		}
	}
	return true
}

// TruncatedClasses returns the classes whose scan was cut short by
// cancellation.
func (r *AuditReport) TruncatedClasses() []ResourceClass {
	var out []ResourceClass
	for _, s := range r.ScanStatus {
		if s.Truncated {
			out = append(out, s.Class)
		}
	}
	return out
}
