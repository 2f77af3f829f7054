package output

import (
	"encoding/json"
	"fmt"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// EncodeJSON renders the report as indented JSON with a trailing newline.
func EncodeJSON(r *models.AuditReport) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return append(data, '\n'), nil
}
