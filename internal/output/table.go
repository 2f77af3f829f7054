package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// TableOptions controls how RenderTable lays out issues.
type TableOptions struct {
	// Colored wraps severity labels in ANSI codes. Default false (CI-safe).
	Colored bool

	// IncludeRule adds a RULE column.
	IncludeRule bool

	// IncludeRecommendation prints the recommendation under each row.
	IncludeRecommendation bool
}

func severityColor(sev models.Severity) *color.Color {
	switch sev {
	case models.SeverityCritical:
		return color.New(color.FgRed, color.Bold)
	case models.SeverityHigh:
		return color.New(color.FgRed)
	case models.SeverityMedium:
		return color.New(color.FgYellow)
	case models.SeverityLow:
		return color.New(color.FgBlue)
	default:
		return nil
	}
}

// ColorSeverity wraps a severity label with ANSI codes when colored is true,
// regardless of whether stdout is a terminal.
func ColorSeverity(sev models.Severity, colored bool) string {
	c := severityColor(sev)
	if !colored || c == nil {
		return string(sev)
	}
	c.EnableColor()
	return c.Sprint(string(sev))
}

// ShortenMessage truncates msg to at most max runes, appending "..." when truncated.
// max is treated as at least 4.
func ShortenMessage(msg string, max int) string {
	if max < 4 {
		max = 4
	}
	runes := []rune(msg)
	if len(runes) <= max {
		return msg
	}
	return string(runes[:max-3]) + "..."
}

// severityCell pads the label before colouring it so ANSI codes do not
// disturb column alignment.
func severityCell(sev models.Severity, width int, colored bool) string {
	text := string(sev)
	pad := width - len(text)
	if pad < 0 {
		pad = 0
	}
	return ColorSeverity(sev, colored) + strings.Repeat(" ", pad)
}

// truncateField shortens s to at most max runes for ID/label columns.
func truncateField(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

// RenderTable writes issues as a fixed-width table.
//
// Column order:
//
//	RESOURCE ID  REGION  SEVERITY  [RULE]  TYPE  MESSAGE
func RenderTable(w io.Writer, issues []models.Issue, opts TableOptions) {
	if len(issues) == 0 {
		fmt.Fprintln(w, "No issues found.")
		return
	}

	const (
		wResource = 40
		wRegion   = 15
		wSeverity = 10
		wRule     = 32
		wType     = 18
		wMessage  = 60
	)

	var hb strings.Builder
	hb.WriteString(fmt.Sprintf("%-*s", wResource, "RESOURCE ID"))
	hb.WriteString(fmt.Sprintf("  %-*s", wRegion, "REGION"))
	hb.WriteString(fmt.Sprintf("  %-*s", wSeverity, "SEVERITY"))
	if opts.IncludeRule {
		hb.WriteString(fmt.Sprintf("  %-*s", wRule, "RULE"))
	}
	hb.WriteString(fmt.Sprintf("  %-*s", wType, "TYPE"))
	hb.WriteString("  MESSAGE")
	header := hb.String()

	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", len(header)+wMessage-len("MESSAGE")))

	for _, is := range issues {
		var rb strings.Builder
		rb.WriteString(fmt.Sprintf("%-*s", wResource, truncateField(is.ResourceID, wResource)))
		rb.WriteString(fmt.Sprintf("  %-*s", wRegion, truncateField(is.Region, wRegion)))
		rb.WriteString("  " + severityCell(is.Severity, wSeverity, opts.Colored))
		if opts.IncludeRule {
			rb.WriteString(fmt.Sprintf("  %-*s", wRule, truncateField(is.RuleID, wRule)))
		}
		rb.WriteString(fmt.Sprintf("  %-*s", wType, truncateField(string(is.ResourceType), wType)))
		rb.WriteString("  " + ShortenMessage(is.Explanation, wMessage))
		fmt.Fprintln(w, strings.TrimRight(rb.String(), " "))
		if opts.IncludeRecommendation && is.Recommendation != "" {
			fmt.Fprintf(w, "%*s-> %s\n", wResource+2, "", is.Recommendation)
		}
	}
}
