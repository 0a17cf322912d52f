package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"radiocorpus/internal/deps"
	"radiocorpus/internal/fileutil"
	"radiocorpus/internal/ledger"
	"radiocorpus/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, binaries and service reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			problems := 0

			lines := renderSectionHeader("Configuration", colorize)
			if ctx.configExists {
				lines = append(lines, renderStatusLine("Config file", statusOK, ctx.configPath, colorize))
			} else {
				lines = append(lines, renderStatusLine("Config file", statusInfo, "defaults (no file at "+ctx.configPath+")", colorize))
			}
			lines = append(lines, renderStatusLine("Corpus", statusInfo, cfg.OutputPath(), colorize))
			lines = append(lines, renderStatusLine("Classifier", statusInfo, cfg.Classifier.Strictness, colorize))
			lines = append(lines, renderStatusLine("Workers", statusInfo, fmt.Sprint(cfg.Pipeline.Workers), colorize))

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Binaries", colorize)...)
			for _, status := range preflight.CheckSystemDeps(cfg) {
				switch {
				case status.Available:
					detail := status.Command
					if version, err := deps.Version(cmd.Context(), status.Command, versionArgs(status.Name)...); err == nil && version != "" {
						detail = fmt.Sprintf("%s (%s)", status.Command, version)
					}
					lines = append(lines, renderStatusLine(status.Name, statusOK, detail, colorize))
				case status.Optional:
					lines = append(lines, renderStatusLine(status.Name, statusWarn, status.Detail+"; "+status.Description, colorize))
				default:
					problems++
					lines = append(lines, renderStatusLine(status.Name, statusError, status.Detail+"; "+status.Description, colorize))
				}
			}

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Preflight", colorize)...)
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
					problems++
				}
				lines = append(lines, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Ledger", colorize)...)
			lines = append(lines, ledgerStatusLine(cmd, cfg.LedgerPath(), colorize))

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			if problems > 0 {
				return fmt.Errorf("doctor found %d problem(s)", problems)
			}
			return nil
		},
	}
}

func versionArgs(name string) []string {
	if name == "FFmpeg" {
		return []string{"-version"}
	}
	return []string{"--version"}
}

func ledgerStatusLine(cmd *cobra.Command, path string, colorize bool) string {
	if ok, _ := fileutil.Exists(path); !ok {
		return renderStatusLine("Progress", statusInfo, "no builds recorded yet", colorize)
	}
	store, err := ledger.Open(path)
	if err != nil {
		if errors.Is(err, ledger.ErrSchemaMismatch) {
			return renderStatusLine("Progress", statusError, "schema mismatch; remove "+path+" to rebuild", colorize)
		}
		return renderStatusLine("Progress", statusError, err.Error(), colorize)
	}
	defer store.Close()
	runs, err := store.Runs(cmd.Context(), 1)
	if err != nil {
		return renderStatusLine("Progress", statusError, err.Error(), colorize)
	}
	if len(runs) == 0 {
		return renderStatusLine("Progress", statusInfo, "no builds recorded yet", colorize)
	}
	last := runs[0]
	return renderStatusLine("Last run", statusInfo,
		fmt.Sprintf("%s %s (%d units, %d pairs)", last.StartedAt.Local().Format("2006-01-02 15:04"), last.Status, last.Units, last.Pairs),
		colorize)
}
