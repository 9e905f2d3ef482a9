// cmd/parishscraper/familysearch.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valpere/parishscraper/internal/config"
	"github.com/valpere/parishscraper/internal/errors"
	"github.com/valpere/parishscraper/internal/familysearch"
)

func (a *app) familySearchCmd() *cobra.Command {
	var place string
	var from, to int

	cmd := &cobra.Command{
		Use:   "familysearch",
		Short: "Query FamilySearch burial records by place and year.",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Scrapes burial records for every year in the configured range.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, err := a.start(config.SiteFamilySearch)
			if err != nil {
				return err
			}
			defer r.close()

			fs := &r.cfg.FamilySearch
			if place != "" {
				fs.Place = place
			}
			if from != 0 {
				fs.YearFrom = from
			}
			if to != 0 {
				fs.YearTo = to
			}
			if fs.YearFrom > fs.YearTo {
				return errors.Config("familysearch run", fmt.Errorf("year range %d-%d is empty", fs.YearFrom, fs.YearTo))
			}

			locators, err := familysearch.LoadLocators(fs.LocatorsFile)
			if err != nil {
				return errors.Config("familysearch locators", err)
			}
			session, err := r.openBrowser()
			if err != nil {
				return err
			}
			opts := r.cfg.FamilySearchOptions()
			opts.Render = r.errs.Policy()
			s := familysearch.New(session, opts,
				familysearch.WithLocators(locators),
				familysearch.WithLogger(r.logger),
				familysearch.WithMetrics(r.metrics),
				familysearch.WithRateLimiter(r.limiter))
			defer s.Close()

			r.stage("signing in")
			if err := s.Authenticate(ctx, r.cfg.FamilySearchCredentials()); err != nil {
				return err
			}

			r.stage(fmt.Sprintf("querying burials in %s, %d-%d", fs.Place, fs.YearFrom, fs.YearTo))
			table, err := s.BurialRecords(ctx, fs.Place, fs.YearFrom, fs.YearTo)
			return r.finish(ctx, table, err)
		},
	}
	runCmd.Flags().StringVar(&place, "place", "", "place name (overrides familysearch.place)")
	runCmd.Flags().IntVar(&from, "from", 0, "first year (overrides familysearch.year_from)")
	runCmd.Flags().IntVar(&to, "to", 0, "last year (overrides familysearch.year_to)")

	cmd.AddCommand(runCmd)
	return cmd
}
