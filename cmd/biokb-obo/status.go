package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/biokb/biokb-obo/internal/database"
	"github.com/biokb/biokb-obo/internal/repository"

	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List imported ontologies with row counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := database.Open(&a.cfg.Database)
			if err != nil {
				return err
			}
			defer database.Close(db)

			repo := repository.NewOntologyRepository(db.DB, db.Dialect, a.cfg.Import.BatchSize, a.logger)
			if err := repo.CreateSchema(ctx); err != nil {
				return err
			}
			list, err := repo.ListOntologies(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ONTOLOGY\tVERSION\tTERMS\tSYNONYMS\tIDENTIFIERS\tXREFS\tPARENT/CHILD")
			for _, o := range list {
				counts, err := repo.CountRows(ctx, o.ID)
				if err != nil {
					return err
				}
				version := "-"
				if o.Version != nil {
					version = *o.Version
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\n", o.ID, version,
					counts.Terms, counts.Synonyms, counts.Identifiers, counts.XRefs, counts.ParentChild)
			}
			return w.Flush()
		},
	}
}
