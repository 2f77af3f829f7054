package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/config"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/engine"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/output"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/policy"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/providers/aws/common"
	posturepack "github.com/pankaj-dahiya-devops/cloud-posture/internal/rulepacks/posture"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/rules"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/storage"
)

func newAuditCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit bucket exposure and encryption, role permissiveness and trail logging",
		Long: `Audit runs one pass over the account's S3 buckets, IAM roles and CloudTrail
trails and writes a JSON report. Resources that cannot be audited appear in the
report as error entries; the command still exits 0 unless setup fails, every
resource class fails to enumerate, or the report cannot be written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runAudit(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.StringSlice("region", nil, "region(s) searched for trails (default: all active regions)")
	f.Int("concurrency", engine.DefaultConcurrency, "in-flight resource fetches per class")
	f.Duration("call-timeout", engine.DefaultCallTimeout, "timeout for each external call")
	f.Duration("timeout", 0, "overall deadline; the report is truncated when it expires (0 = none)")
	f.Int("max-attempts", 3, "SDK attempts per call, including retries")
	f.StringP("output", "o", config.DefaultOutput, `report destination: file path, "-" for stdout, or s3://bucket/key`)
	f.String("format", config.FormatTable, "stdout rendering: table, json or summary")
	f.String("policy", "", "policy YAML that disables rules or overrides severity")
	f.String("wildcards", string(rules.WildcardExact), `action wildcard matching: "exact" or "service"`)
	return cmd
}

func (a *app) runAudit(ctx context.Context) error {
	cfg := a.cfg

	loc, err := storage.ParseLocation(cfg.Output)
	if err != nil {
		return fmt.Errorf("%w: %w", engine.ErrSetup, err)
	}

	registry := rules.NewDefaultRuleRegistry(posturepack.New()...)
	pol, err := loadPolicy(cfg.Policy, registry)
	if err != nil {
		return fmt.Errorf("%w: %w", engine.ErrSetup, err)
	}

	eng := engine.NewPostureEngine(a.provider, a.directories, registry,
		engine.WithLogger(a.log),
		engine.WithPolicy(pol),
	)
	report, err := eng.RunAudit(ctx, engine.AuditOptions{
		Profile:     cfg.Profile,
		Regions:     cfg.Regions,
		Concurrency: cfg.Concurrency,
		CallTimeout: cfg.CallTimeout,
		Timeout:     cfg.Timeout,
		MaxAttempts: cfg.MaxAttempts,
		Endpoint:    cfg.Endpoint,
		Wildcards:   cfg.WildcardMode(),
	})
	if err != nil {
		return err
	}
	if truncated := report.TruncatedClasses(); len(truncated) > 0 {
		a.log.Warn().Interface("classes", truncated).Msg("audit interrupted; report is partial")
	}

	if err := a.writeReport(ctx, loc, report); err != nil {
		return fmt.Errorf("%w: %w", engine.ErrOutput, err)
	}

	if loc.Scheme != storage.SchemeStdout {
		if err := render(a.stdout, cfg.Format, report, colored(cfg)); err != nil {
			return fmt.Errorf("%w: %w", engine.ErrOutput, err)
		}
	}

	if report.ScanFailed() {
		return errScanFailed
	}
	return nil
}

// writeReport persists the JSON report. Writes use a fresh context so an
// interrupted audit still saves its partial report.
func (a *app) writeReport(ctx context.Context, loc storage.Location, report *models.AuditReport) error {
	data, err := output.EncodeJSON(report)
	if err != nil {
		return err
	}

	var awsCfg aws.Config
	if loc.Scheme == storage.SchemeS3 {
		p, err := a.provider.LoadProfile(context.WithoutCancel(ctx), a.cfg.Profile,
			common.WithMaxAttempts(a.cfg.MaxAttempts),
			common.WithEndpoint(a.cfg.Endpoint),
		)
		if err != nil {
			return fmt.Errorf("load credentials for upload: %w", err)
		}
		awsCfg = p.Config
	}

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.CallTimeout)
	defer cancel()
	if err := loc.Open(awsCfg, a.stdout).Write(wctx, data); err != nil {
		return err
	}
	a.log.Info().Str("destination", loc.URI).Str("report_id", report.ReportID).Msg("report written")
	return nil
}

// loadPolicy reads and validates the policy file; an empty path means none.
func loadPolicy(path string, registry rules.RuleRegistry) (*policy.PolicyConfig, error) {
	if path == "" {
		return nil, nil
	}
	pol, err := policy.LoadPolicy(path)
	if err != nil {
		return nil, err
	}
	if errs := policy.Validate(pol, ruleIDs(registry)); len(errs) > 0 {
		return nil, fmt.Errorf("policy %s: %w", path, errors.Join(errs...))
	}
	return pol, nil
}

func ruleIDs(registry rules.RuleRegistry) []string {
	all := registry.All()
	ids := make([]string, 0, len(all))
	for _, r := range all {
		ids = append(ids, r.ID())
	}
	return ids
}

func render(w io.Writer, format string, report *models.AuditReport, colored bool) error {
	switch format {
	case config.FormatJSON:
		data, err := output.EncodeJSON(report)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case config.FormatSummary:
		output.RenderSummary(w, report, colored)
	default:
		output.RenderSummary(w, report, colored)
		fmt.Fprintln(w)
		output.RenderTable(w, report.Issues, output.TableOptions{Colored: colored, IncludeRule: true})
	}
	return nil
}

// colored reports whether severity labels should carry ANSI codes.
// fatih/color already sets NoColor when stdout is not a terminal.
func colored(cfg *config.Config) bool {
	if cfg.Log.NoColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return !color.NoColor
}
