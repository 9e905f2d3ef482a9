// cmd/parishscraper/runtime.go - per-run wiring of config, logging, metrics and output
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"

	"github.com/valpere/parishscraper/internal/browser"
	"github.com/valpere/parishscraper/internal/config"
	"github.com/valpere/parishscraper/internal/dataset"
	"github.com/valpere/parishscraper/internal/errors"
	"github.com/valpere/parishscraper/internal/monitoring"
	"github.com/valpere/parishscraper/internal/output"
	"github.com/valpere/parishscraper/internal/utils"
)

// run holds everything one scraping command needs.
type run struct {
	site    string
	cfg     *config.Config
	errs    *errors.Service
	logger  utils.Logger
	metrics *monitoring.Metrics
	server  *monitoring.Server
	limiter *utils.RateLimiter
	spin    *spinner.Spinner
	closers []io.Closer
}

func readConfigFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Config("load config", err)
	}
	return data, nil
}

// start loads the configuration for site and brings up logging, metrics and
// the progress spinner.
func (a *app) start(site string) (*run, error) {
	data, err := readConfigFile(a.configFile)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Parse(data)
	if err != nil {
		return nil, errors.Config("load config", err)
	}
	if cfg.Site == "" {
		cfg.Site = site
	}
	if cfg.Site != site {
		return nil, errors.Config("load config", fmt.Errorf("%s configures site %q, not %q", a.configFile, cfg.Site, site))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}

	r := &run{site: site, cfg: cfg, errs: a.errs}
	logger, closer := utils.NewLoggerFromConfig(cfg.Logging, a.stderr)
	r.logger = logger.WithField("site", site)
	r.closers = append(r.closers, closer)
	r.limiter = utils.NewRateLimiter(cfg.RateLimit)

	if cfg.Metrics.Enabled {
		r.metrics = monitoring.NewMetrics(cfg.Metrics)
		r.server = monitoring.NewServer(cfg.Metrics, r.metrics)
		r.server.Start(func(err error) { r.logger.Errorf("metrics server: %v", err) })
		r.logger.Infof("metrics listening on %s%s", cfg.Metrics.ListenAddress, cfg.Metrics.MetricsPath)
	}

	a.errs.WithPolicy(cfg.Retry.Render).WithFailurePolicy(cfg.FailurePolicy)

	if !a.verbose {
		r.spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(a.stderr))
		r.spin.Start()
	}
	return r, nil
}

// stage updates the spinner and the /health endpoint.
func (r *run) stage(name string) {
	r.server.SetStage(r.site, name)
	if r.spin != nil {
		r.spin.Lock()
		r.spin.Suffix = " " + name
		r.spin.Unlock()
	} else {
		r.logger.Info(name)
	}
}

func (r *run) openBrowser() (browser.Session, error) {
	r.stage("starting browser")
	session, err := browser.Open(&r.cfg.Browser)
	if err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	return session, nil
}

// finish writes table and reports runErr. Rows gathered before a failure are
// written only when the failure policy keeps partial results.
func (r *run) finish(ctx context.Context, table *dataset.Table, runErr error) error {
	if runErr != nil && !r.errs.SavePartialResults() {
		return runErr
	}
	if table.Len() == 0 {
		r.logger.Warn("nothing scraped; no output written")
		return runErr
	}
	if runErr != nil {
		r.logger.Warnf("run failed after %d rows, saving partial results: %v", table.Len(), runErr)
	}

	r.stage("writing output")
	manager, err := output.NewManager(&r.cfg.Output,
		output.WithManagerLogger(r.logger),
		output.WithManagerMetrics(r.metrics))
	if err != nil {
		return err
	}
	// Partial results are still written after Ctrl-C.
	result, err := manager.Write(context.WithoutCancel(ctx), table)
	if err != nil {
		if runErr != nil {
			r.logger.Errorf("saving partial results failed: %v", err)
			return runErr
		}
		return err
	}
	r.stopSpinner()
	r.logger.Infof("wrote %d records (%d columns) to %s in %s",
		result.RecordsCount, result.Columns, result.Destination, result.Duration.Round(time.Millisecond))
	return runErr
}

func (r *run) stopSpinner() {
	if r.spin != nil {
		r.spin.Stop()
		r.spin = nil
	}
}

// close releases the run's resources in reverse order of acquisition.
func (r *run) close() {
	r.stopSpinner()
	if r.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.server.Shutdown(ctx); err != nil {
			r.logger.Warnf("metrics server shutdown: %v", err)
		}
	}
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i].Close()
	}
}
