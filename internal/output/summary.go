package output

import (
	"fmt"
	"io"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// RenderSummary writes the report header, counts and scan status.
func RenderSummary(w io.Writer, r *models.AuditReport, colored bool) {
	s := r.Summary
	fmt.Fprintf(w, "Account %s", orDash(r.AccountID))
	if r.Profile != "" {
		fmt.Fprintf(w, " (profile %s)", r.Profile)
	}
	fmt.Fprintf(w, ", %d region(s), generated %s\n\n", len(r.Regions), r.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	fmt.Fprintf(w, "  Buckets    %4d  public %d, unencrypted %d\n", s.Buckets, s.PublicBuckets, s.UnencryptedBuckets)
	fmt.Fprintf(w, "  Roles      %4d  overly permissive %d\n", s.Roles, s.PermissiveRoles)
	fmt.Fprintf(w, "  Trails     %4d  not logging %d\n", s.Trails, s.TrailsNotLogging)
	fmt.Fprintf(w, "  Errors     %4d\n", s.ResourceErrors)
	fmt.Fprintf(w, "  Issues     %s %d  %s %d  %s %d  %s %d\n",
		ColorSeverity(models.SeverityCritical, colored), s.CriticalIssues,
		ColorSeverity(models.SeverityHigh, colored), s.HighIssues,
		ColorSeverity(models.SeverityMedium, colored), s.MediumIssues,
		ColorSeverity(models.SeverityLow, colored), s.LowIssues,
	)

	if len(r.ScanStatus) > 0 {
		fmt.Fprintln(w, "\nScan status:")
		RenderScanStatus(w, r.ScanStatus, colored)
	}
	if r.Partial() {
		fmt.Fprintln(w, "\nThe audit is incomplete; see error entries and scan status.")
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
