package output_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/output"
)

// ── helpers ───────────────────────────────────────────────────────────────────

func renderToString(issues []models.Issue, opts output.TableOptions) string {
	var buf bytes.Buffer
	output.RenderTable(&buf, issues, opts)
	return buf.String()
}

func oneIssue(overrides ...func(*models.Issue)) models.Issue {
	is := models.Issue{
		ID:             "S3_PUBLIC_BUCKET-alpha",
		RuleID:         "S3_PUBLIC_BUCKET",
		ResourceID:     "alpha",
		ResourceType:   models.ResourceS3Bucket,
		Region:         "us-east-1",
		AccountID:      "111122223333",
		Severity:       models.SeverityHigh,
		Explanation:    "Bucket ACL grants access to all users.",
		Recommendation: "Remove the AllUsers grant.",
	}
	for _, fn := range overrides {
		fn(&is)
	}
	return is
}

// ── columns ───────────────────────────────────────────────────────────────────

func TestRenderTable_BaseColumns(t *testing.T) {
	out := renderToString([]models.Issue{oneIssue()}, output.TableOptions{})
	for _, want := range []string{"RESOURCE ID", "REGION", "SEVERITY", "TYPE", "MESSAGE", "alpha", "us-east-1", "S3_BUCKET"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output\ngot:\n%s", want, out)
		}
	}
	if strings.Contains(out, "RULE") {
		t.Errorf("RULE column must not appear when IncludeRule=false\ngot:\n%s", out)
	}
}

func TestRenderTable_RuleColumn_WhenEnabled(t *testing.T) {
	out := renderToString([]models.Issue{oneIssue()}, output.TableOptions{IncludeRule: true})
	if !strings.Contains(out, "RULE") || !strings.Contains(out, "S3_PUBLIC_BUCKET") {
		t.Errorf("expected RULE column with rule ID\ngot:\n%s", out)
	}
}

func TestRenderTable_Recommendation(t *testing.T) {
	out := renderToString([]models.Issue{oneIssue()}, output.TableOptions{})
	if strings.Contains(out, "Remove the AllUsers grant.") {
		t.Errorf("recommendation must be hidden by default\ngot:\n%s", out)
	}
	out = renderToString([]models.Issue{oneIssue()}, output.TableOptions{IncludeRecommendation: true})
	if !strings.Contains(out, "-> Remove the AllUsers grant.") {
		t.Errorf("expected recommendation line\ngot:\n%s", out)
	}
}

func TestRenderTable_RowsAlignWithHeader(t *testing.T) {
	issues := []models.Issue{
		oneIssue(),
		oneIssue(func(is *models.Issue) { is.Severity = models.SeverityInfo; is.ResourceID = "beta" }),
	}
	out := renderToString(issues, output.TableOptions{Colored: true})
	lines := strings.Split(out, "\n")
	col := strings.Index(lines[0], "TYPE")
	for _, line := range lines[2:4] {
		plain := stripANSI(line)
		if strings.Index(plain, "S3_BUCKET") != col {
			t.Errorf("TYPE column misaligned in %q", plain)
		}
	}
}

// ── messages ──────────────────────────────────────────────────────────────────

func TestRenderTable_MessageIsTruncatedWhenTooLong(t *testing.T) {
	long := strings.Repeat("x", 200)
	out := renderToString([]models.Issue{oneIssue(func(is *models.Issue) { is.Explanation = long })}, output.TableOptions{})
	if strings.Contains(out, long) {
		t.Errorf("long explanation must be shortened\ngot:\n%s", out)
	}
	if !strings.Contains(out, "...") {
		t.Errorf("shortened explanation must end with ...\ngot:\n%s", out)
	}
}

func TestRenderTable_LongResourceIDTruncated(t *testing.T) {
	id := strings.Repeat("r", 80)
	out := renderToString([]models.Issue{oneIssue(func(is *models.Issue) { is.ResourceID = id })}, output.TableOptions{})
	if strings.Contains(out, id) || !strings.Contains(out, "…") {
		t.Errorf("long resource ID must be truncated with an ellipsis\ngot:\n%s", out)
	}
}

// ── empty issues ──────────────────────────────────────────────────────────────

func TestRenderTable_EmptyIssues(t *testing.T) {
	out := renderToString(nil, output.TableOptions{})
	if !strings.Contains(out, "No issues found.") {
		t.Errorf("expected 'No issues found.' for empty slice\ngot:\n%s", out)
	}
	if strings.Contains(out, "RESOURCE ID") {
		t.Errorf("column headers must not appear for empty issues\ngot:\n%s", out)
	}
}

// ── color mode ────────────────────────────────────────────────────────────────

func TestRenderTable_ColoredFalse_NoAnsiCodes(t *testing.T) {
	out := renderToString([]models.Issue{oneIssue()}, output.TableOptions{Colored: false})
	if strings.Contains(out, "\033[") {
		t.Errorf("no ANSI codes must appear when Colored=false\ngot (hex): %q", out)
	}
}

func TestRenderTable_ColoredTrue_HasAnsiCodes(t *testing.T) {
	out := renderToString([]models.Issue{oneIssue()}, output.TableOptions{Colored: true})
	if !strings.Contains(out, "\033[") {
		t.Errorf("ANSI codes expected when Colored=true\ngot:\n%s", out)
	}
}

func TestColorSeverity_InfoIsNeverColored(t *testing.T) {
	if got := output.ColorSeverity(models.SeverityInfo, true); got != "INFO" {
		t.Errorf("got %q; want plain INFO", got)
	}
}

// ── ShortenMessage unit tests ─────────────────────────────────────────────────

func TestShortenMessage(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short unchanged", "hello", 80, "hello"},
		{"exact length unchanged", strings.Repeat("a", 10), 10, strings.Repeat("a", 10)},
		{"too long", "abcdefghij", 8, "abcde..."},
		{"tiny max treated as 4", "hello world", 2, "h..."},
		{"multibyte", "ääääääää", 6, "äää..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := output.ShortenMessage(tt.in, tt.max); got != tt.want {
				t.Errorf("got %q; want %q", got, tt.want)
			}
		})
	}
}

// ── scan status & summary ─────────────────────────────────────────────────────

func sampleReport() *models.AuditReport {
	return &models.AuditReport{
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		AccountID:   "111122223333",
		Profile:     "prod",
		Regions:     []string{"us-east-1"},
		Summary: models.AuditSummary{
			Buckets: 2, PublicBuckets: 1, UnencryptedBuckets: 1,
			Roles: 1, PermissiveRoles: 1, Trails: 1, ResourceErrors: 1, HighIssues: 3,
		},
		ScanStatus: []models.ClassStatus{
			{Class: models.ClassBuckets, Complete: false, Enumerated: 3, Scanned: 3, Failed: 1},
			{Class: models.ClassRoles, Complete: false, Error: &models.ResourceError{Kind: models.ErrAccessDenied, Message: "ListRoles: denied"}},
			{Class: models.ClassTrails, Complete: false, Truncated: true, Enumerated: 4, Scanned: 1, Skipped: 3},
		},
	}
}

func TestRenderScanStatus(t *testing.T) {
	var buf bytes.Buffer
	output.RenderScanStatus(&buf, sampleReport().ScanStatus, false)
	out := buf.String()

	for _, want := range []string{
		"buckets  PARTIAL  3/3 scanned, 1 failed",
		"roles    FAILED  0/0 scanned, access_denied: ListRoles: denied",
		"trails   TRUNCATED  1/4 scanned, 3 skipped",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q\ngot:\n%s", want, out)
		}
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	output.RenderSummary(&buf, sampleReport(), false)
	out := buf.String()

	for _, want := range []string{
		"Account 111122223333 (profile prod)",
		"public 1, unencrypted 1",
		"overly permissive 1",
		"HIGH 3",
		"Scan status:",
		"incomplete",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q\ngot:\n%s", want, out)
		}
	}
}

func TestEncodeJSON(t *testing.T) {
	r := sampleReport()
	r.BucketFindings = []models.BucketFinding{
		{BucketName: "alpha", IsPublic: true},
		{BucketName: "gamma", Error: &models.ResourceError{Kind: models.ErrAccessDenied, Message: "denied"}},
	}
	data, err := output.EncodeJSON(r)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasSuffix(data, []byte("\n")) {
		t.Error("encoded report must end with a newline")
	}

	var decoded struct {
		BucketFindings []map[string]any `json:"bucket_findings"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if _, ok := decoded.BucketFindings[1]["is_public"]; ok {
		t.Error("error entry must not carry is_public")
	}
}

func stripANSI(s string) string {
	var b strings.Builder
	inEsc := false
	for _, r := range s {
		switch {
		case r == '\033':
			inEsc = true
		case inEsc && r == 'm':
			inEsc = false
		case !inEsc:
			b.WriteRune(r)
		}
	}
	return b.String()
}
