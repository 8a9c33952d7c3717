package main

import (
	"fmt"
	"time"

	"github.com/biokb/biokb-obo/internal/models"
	"github.com/biokb/biokb-obo/internal/report"
	"github.com/biokb/biokb-obo/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newImportCmd(a *app) *cobra.Command {
	var (
		opts       service.ImportOptions
		reportPath string
	)

	cmd := &cobra.Command{
		Use:   "import [names...]",
		Short: "Download, parse and store ontologies",
		Long: `Download, parse and store the named ontologies (e.g. doid hp go).
Without names, the ontologies from OBO_NAMES or the OBO_CATALOG file are imported.
Ontologies already in the database are skipped unless --overwrite is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := service.Build(a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer c.Close()

			names := args
			if len(names) == 0 {
				names = c.Names
			}

			result, importErr := c.Service.Import(cmd.Context(), names, opts)

			if reportPath != "" && result != nil {
				if err := report.WriteFile(reportPath, toReport(result)); err != nil {
					a.logger.Error("Failed to write report", zap.Error(err))
				} else {
					a.logger.Info("Report written", zap.String("path", reportPath))
				}
			}
			if importErr != nil {
				return importErr
			}

			out := cmd.OutOrStdout()
			for _, s := range result.Statuses {
				fmt.Fprintf(out, "%-12s %-9s %d terms\n", s.Name, s.Status, s.Counts.Terms)
			}
			totals := result.Counts.Map()
			for _, kind := range models.Kinds {
				fmt.Fprintf(out, "%s=%d\n", kind, totals[kind])
			}
			if failed := result.Failed(); len(failed) > 0 {
				return fmt.Errorf("%d of %d ontologies failed", len(failed), len(result.Statuses))
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.Rebuild, "rebuild", false, "drop and recreate all tables before importing (destroys all imported ontologies)")
	flags.BoolVar(&opts.Overwrite, "overwrite", false, "replace ontologies that are already imported")
	flags.BoolVar(&opts.ForceDownload, "force-download", false, "download files even if they exist locally")
	flags.BoolVar(&opts.KeepFiles, "keep-files", false, "keep downloaded files after import")
	flags.BoolVar(&opts.ContinueOnError, "continue-on-error", false, "continue with the next ontology when one fails")
	flags.StringVar(&reportPath, "report", "", "write an Excel report of the import to this path")
	return cmd
}

func toReport(result *service.ImportResult) report.Report {
	r := report.Report{
		RunID:       result.RunID,
		GeneratedAt: time.Now(),
		Totals:      result.Counts,
	}
	for _, s := range result.Statuses {
		row := report.Row{
			Name:   s.Name,
			Status: s.Status,
			Counts: s.Counts,
			File:   s.File,
		}
		if s.Err != nil {
			row.Error = s.Err.Error()
		}
		r.Rows = append(r.Rows, row)
	}
	return r
}
