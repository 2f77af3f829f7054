package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// RenderScanStatus writes one line per resource class describing how
// completely it was scanned.
func RenderScanStatus(w io.Writer, statuses []models.ClassStatus, colored bool) {
	ok := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)
	bad := color.New(color.FgRed)
	for _, c := range []*color.Color{ok, warn, bad} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	for _, s := range statuses {
		var state string
		switch {
		case s.Error != nil:
			state = bad.Sprint("FAILED")
		case s.Truncated:
			state = warn.Sprint("TRUNCATED")
		case s.Failed > 0:
			state = warn.Sprint("PARTIAL")
		default:
			state = ok.Sprint("COMPLETE")
		}

		var parts []string
		parts = append(parts, fmt.Sprintf("%d/%d scanned", s.Scanned, s.Enumerated))
		if s.Failed > 0 {
			parts = append(parts, fmt.Sprintf("%d failed", s.Failed))
		}
		if s.Skipped > 0 {
			parts = append(parts, fmt.Sprintf("%d skipped", s.Skipped))
		}
		if s.Error != nil {
			parts = append(parts, s.Error.Error())
		}
		fmt.Fprintf(w, "  %-8s %s  %s\n", s.Class, state, strings.Join(parts, ", "))
	}
}
