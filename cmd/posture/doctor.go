package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/policy"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/providers/aws/common"
	posturepack "github.com/pankaj-dahiya-devops/cloud-posture/internal/rulepacks/posture"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/rules"
)

// DoctorResult is the structured output of posture doctor. It can be
// serialised to JSON via --format=json or rendered as a table (default).
type DoctorResult struct {
	AWS struct {
		Profile     string   `json:"profile,omitempty"`
		Credentials bool     `json:"credentials_ok"`
		AccountID   string   `json:"account_id,omitempty"`
		CallerARN   string   `json:"caller_arn,omitempty"`
		RegionsOK   bool     `json:"regions_ok"`
		Regions     []string `json:"regions,omitempty"`
		Error       string   `json:"error,omitempty"`
	} `json:"aws"`

	Profiles struct {
		Names []string `json:"names,omitempty"`
		Error string   `json:"error,omitempty"`
	} `json:"profiles"`

	Policy struct {
		Path    string   `json:"path,omitempty"`
		Present bool     `json:"present"`
		Valid   bool     `json:"valid"`
		Errors  []string `json:"errors,omitempty"`
	} `json:"policy"`

	OverallHealthy bool `json:"overall_healthy"`
}

func newDoctorCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check credentials, region discovery and policy file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, _ := cmd.Flags().GetString("format")
			result, err := runDoctor(cmd.Context(), a.provider, cmd.OutOrStdout(), format, a.cfg.Profile, a.cfg.Policy, a.cfg.Endpoint)
			if err != nil {
				return err
			}
			if !result.OverallHealthy {
				return errUnhealthy
			}
			return nil
		},
	}
	cmd.Flags().String("format", "table", `Output format: "table" or "json"`)
	cmd.Flags().String("policy", "", "policy YAML to validate")
	return cmd
}

// runDoctor collects all diagnostic results, renders them to w in the
// requested format, and returns the result. The returned error covers only
// rendering failures; callers inspect result.OverallHealthy.
func runDoctor(ctx context.Context, provider common.AWSClientProvider, w io.Writer, format, profile, policyPath, endpoint string) (DoctorResult, error) {
	result := collectDoctorResult(ctx, provider, profile, policyPath, endpoint)

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return result, fmt.Errorf("encode doctor result: %w", err)
		}
	default:
		renderDoctorTable(result, w)
	}
	return result, nil
}

// collectDoctorResult runs all environment checks without rendering.
func collectDoctorResult(ctx context.Context, provider common.AWSClientProvider, profile, policyPath, endpoint string) DoctorResult {
	var result DoctorResult

	// Credentials -> STS identity -> region discovery.
	result.AWS.Profile = profile
	profileCfg, err := provider.LoadProfile(ctx, profile, common.WithEndpoint(endpoint))
	if err != nil {
		result.AWS.Error = err.Error()
	} else {
		result.AWS.Credentials = true
		result.AWS.AccountID = profileCfg.AccountID
		result.AWS.CallerARN = profileCfg.CallerARN
		regions, err := provider.GetActiveRegions(ctx, profileCfg)
		if err != nil {
			result.AWS.Error = err.Error()
		} else {
			result.AWS.RegionsOK = true
			result.AWS.Regions = regions
		}
	}

	// Profiles are informational; the default chain works without any.
	names, err := common.DiscoverProfiles()
	if err != nil {
		result.Profiles.Error = err.Error()
	}
	result.Profiles.Names = names

	// Policy: optional, but a configured file must exist and validate.
	if policyPath != "" {
		result.Policy.Path = policyPath
		if _, statErr := os.Stat(policyPath); statErr != nil {
			result.Policy.Errors = []string{statErr.Error()}
		} else {
			result.Policy.Present = true
			cfg, loadErr := policy.LoadPolicy(policyPath)
			if loadErr != nil {
				result.Policy.Errors = []string{loadErr.Error()}
			} else if errs := policy.Validate(cfg, ruleIDs(rules.NewDefaultRuleRegistry(posturepack.New()...))); len(errs) > 0 {
				for _, e := range errs {
					result.Policy.Errors = append(result.Policy.Errors, e.Error())
				}
			} else {
				result.Policy.Valid = true
			}
		}
	}

	result.OverallHealthy = result.AWS.Credentials &&
		result.AWS.RegionsOK &&
		(policyPath == "" || result.Policy.Valid)

	return result
}

func renderDoctorTable(result DoctorResult, w io.Writer) {
	fmt.Fprintln(w, "Environment Diagnostics")

	if result.AWS.Profile != "" {
		fmt.Fprintf(w, "\nAWS (profile: %s):\n", result.AWS.Profile)
	} else {
		fmt.Fprintln(w, "\nAWS:")
	}
	if !result.AWS.Credentials {
		doctorPrint(w, "Credentials", "FAIL", result.AWS.Error)
		doctorPrint(w, "STS Identity", "FAIL", "skipped")
		doctorPrint(w, "Regions API", "FAIL", "skipped")
	} else {
		doctorPrint(w, "Credentials", "OK", "")
		doctorPrint(w, "STS Identity", "OK", "Account: "+result.AWS.AccountID)
		if result.AWS.RegionsOK {
			doctorPrint(w, "Regions API", "OK", fmt.Sprintf("%d active", len(result.AWS.Regions)))
		} else {
			doctorPrint(w, "Regions API", "FAIL", result.AWS.Error)
		}
	}

	fmt.Fprintln(w, "\nProfiles:")
	switch {
	case result.Profiles.Error != "":
		doctorPrint(w, "Shared config", "WARN", result.Profiles.Error)
	case len(result.Profiles.Names) == 0:
		doctorPrint(w, "Shared config", "none found (optional)", "")
	default:
		doctorPrint(w, "Shared config", "OK", strings.Join(result.Profiles.Names, ", "))
	}

	fmt.Fprintln(w, "\nPolicy:")
	switch {
	case result.Policy.Path == "":
		doctorPrint(w, "Policy file", "not configured (optional)", "")
	case !result.Policy.Present:
		doctorPrint(w, "Policy file", "FAIL", strings.Join(result.Policy.Errors, "; "))
	case result.Policy.Valid:
		doctorPrint(w, "Policy file", "OK", result.Policy.Path)
	default:
		for _, e := range result.Policy.Errors {
			doctorPrint(w, "Policy valid", "FAIL", e)
		}
	}
}

// doctorPrint writes a single diagnostic check line to w.
func doctorPrint(w io.Writer, label, status, detail string) {
	if detail != "" {
		fmt.Fprintf(w, "  %s: %s (%s)\n", label, status, detail)
	} else {
		fmt.Fprintf(w, "  %s: %s\n", label, status)
	}
}
