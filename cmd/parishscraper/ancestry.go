// cmd/parishscraper/ancestry.go
package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valpere/parishscraper/internal/ancestry"
	"github.com/valpere/parishscraper/internal/config"
	"github.com/valpere/parishscraper/internal/errors"
	"github.com/valpere/parishscraper/internal/output"
)

func (a *app) ancestryCmd() *cobra.Command {
	var collection string
	cmd := &cobra.Command{
		Use:   "ancestry",
		Short: "Browse an Ancestry collection and scrape its record viewers.",
	}
	cmd.PersistentFlags().StringVar(&collection, "collection", "", "collection code (overrides ancestry.collection)")

	override := func(r *run) {
		if collection != "" {
			r.cfg.Ancestry.Collection = collection
		}
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Collects every detail URL in the collection and scrapes them into one table.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withAncestry(cmd.Context(), override, func(ctx context.Context, r *run, s *ancestry.Scraper) error {
				r.stage("collecting detail urls")
				urls, err := s.CollectionURLs(ctx, r.cfg.Ancestry.Collection)
				if urls != nil && r.cfg.Ancestry.URLsFile != "" {
					if serr := output.SaveURLMap(r.cfg.Ancestry.URLsFile, urls); serr != nil {
						r.logger.Warnf("could not save url map: %v", serr)
					}
				}
				if err != nil {
					return err
				}
				r.logger.Infof("collected %d detail urls across %d paths", urls.URLCount(), urls.Len())

				r.stage(fmt.Sprintf("scraping %d record viewers", urls.URLCount()))
				table, err := s.ScrapeCollection(ctx, urls)
				return r.finish(ctx, table, err)
			})
		},
	}

	var partitions int
	var urlsOut string
	urlsCmd := &cobra.Command{
		Use:   "urls",
		Short: "Collects the detail URLs only and saves them as JSON.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if partitions < 1 {
				return errors.Config("ancestry urls", fmt.Errorf("--partitions must be at least 1"))
			}
			return a.withAncestry(cmd.Context(), override, func(ctx context.Context, r *run, s *ancestry.Scraper) error {
				path := firstNonEmpty(urlsOut, r.cfg.Ancestry.URLsFile)
				if path == "" {
					return errors.Config("ancestry urls", fmt.Errorf("set ancestry.urls_file or --out"))
				}

				r.stage("collecting detail urls")
				urls, err := s.CollectionURLs(ctx, r.cfg.Ancestry.Collection)
				if err != nil && urls == nil {
					return err
				}
				if serr := output.SaveURLMap(path, urls); serr != nil {
					return errors.Output("save url map", serr)
				}
				r.stopSpinner()
				fmt.Fprintf(a.stdout, "Saved %d detail urls across %d paths to %s\n", urls.URLCount(), urls.Len(), path)

				if partitions > 1 {
					names, perr := output.SavePartitions(path, urls, partitions)
					if perr != nil {
						return errors.Output("save url partitions", perr)
					}
					for _, name := range names {
						fmt.Fprintf(a.stdout, "  %s\n", name)
					}
				}
				return err
			})
		},
	}
	urlsCmd.Flags().IntVar(&partitions, "partitions", 1, "also split the map into this many files for parallel scraping")
	urlsCmd.Flags().StringVarP(&urlsOut, "out", "o", "", "output file (overrides ancestry.urls_file)")

	var urlsIn string
	scrapeCmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrapes the record viewers listed in a saved URL map.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withAncestry(cmd.Context(), override, func(ctx context.Context, r *run, s *ancestry.Scraper) error {
				path := firstNonEmpty(urlsIn, r.cfg.Ancestry.URLsFile)
				if path == "" {
					return errors.Config("ancestry scrape", fmt.Errorf("set ancestry.urls_file or --urls"))
				}
				urls, err := output.LoadURLMap(path)
				if err != nil {
					return errors.Config("ancestry scrape", err)
				}

				r.stage(fmt.Sprintf("scraping %d record viewers", urls.URLCount()))
				table, err := s.ScrapeCollection(ctx, urls)
				return r.finish(ctx, table, err)
			})
		},
	}
	scrapeCmd.Flags().StringVar(&urlsIn, "urls", "", "URL map written by 'ancestry urls' (overrides ancestry.urls_file)")

	cmd.AddCommand(runCmd, urlsCmd, scrapeCmd)
	return cmd
}

// withAncestry starts a run, signs in and hands a ready scraper to fn.
func (a *app) withAncestry(ctx context.Context, override func(*run), fn func(context.Context, *run, *ancestry.Scraper) error) error {
	r, err := a.start(config.SiteAncestry)
	if err != nil {
		return err
	}
	defer r.close()
	override(r)

	locators, err := ancestry.LoadLocators(r.cfg.Ancestry.LocatorsFile)
	if err != nil {
		return errors.Config("ancestry locators", err)
	}
	session, err := r.openBrowser()
	if err != nil {
		return err
	}

	opts := r.cfg.AncestryOptions()
	opts.Render = r.errs.Policy()
	s := ancestry.New(session, opts,
		ancestry.WithLocators(locators),
		ancestry.WithLogger(r.logger),
		ancestry.WithMetrics(r.metrics),
		ancestry.WithRateLimiter(r.limiter))
	defer s.Close()

	r.stage("signing in")
	if err := s.Authenticate(ctx, r.cfg.AncestryCredentials()); err != nil {
		return err
	}
	return fn(ctx, r, s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
