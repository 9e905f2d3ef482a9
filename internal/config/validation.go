// internal/config/validation.go - validation with field-level error messages
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valpere/parishscraper/internal/browser"
	"github.com/valpere/parishscraper/internal/errors"
)

// ValidationError represents a detailed validation error
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

func (ve ValidationError) Error() string {
	if ve.Value == "" {
		return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
	}
	return fmt.Sprintf("%s: %s (got %q)", ve.Field, ve.Message, ve.Value)
}

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []string          `json:"warnings"`
}

func (r *ValidationResult) addError(field, value, message string) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Value: value, Message: message})
}

func (r *ValidationResult) addWarning(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Output formats grouped by destination.
var (
	FileFormats     = []string{"csv", "tsv", "json", "yaml", "xlsx"}
	DatabaseFormats = []string{"sqlite", "postgresql", "mysql", "mssql", "mongodb"}
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json", "logfmt"}
)

// Validate returns an error listing every problem found.
func (c *Config) Validate() error {
	result := c.ValidateDetailed()
	if result.Valid {
		return nil
	}
	return formatValidationError(result)
}

// ValidateDetailed runs every check and returns errors and warnings.
func (c *Config) ValidateDetailed() *ValidationResult {
	result := &ValidationResult{
		Errors:   make([]ValidationError, 0),
		Warnings: make([]string, 0),
	}

	c.validateSite(result)
	c.validateBrowser(result)
	c.validateRetry(result)
	c.validateWaits(result)
	c.validateOutput(result)
	c.validateLogging(result)
	c.validateMetrics(result)

	result.Valid = len(result.Errors) == 0
	return result
}

func (c *Config) validateSite(result *ValidationResult) {
	switch c.Site {
	case SiteAncestry:
		a := c.Ancestry
		if a.Collection == "" {
			result.addError("ancestry.collection", "", "collection code is required")
		}
		validateURL(result, "ancestry.base_url", a.BaseURL)
		validateURL(result, "ancestry.login_url", a.LoginURL)
		if a.Levels < 0 {
			result.addError("ancestry.levels", fmt.Sprint(a.Levels), "must not be negative")
		}
		if a.MaxPages < 0 {
			result.addError("ancestry.max_pages", fmt.Sprint(a.MaxPages), "must not be negative")
		}
		if a.Username == "" || a.Password == "" {
			result.addWarning("ancestry credentials are empty; set %s and %s", EnvAncestryUsername, EnvAncestryPassword)
		}
	case SiteFamilySearch:
		f := c.FamilySearch
		if strings.TrimSpace(f.Place) == "" {
			result.addError("familysearch.place", "", "place name is required")
		}
		if f.YearFrom <= 0 {
			result.addError("familysearch.year_from", fmt.Sprint(f.YearFrom), "must be a positive year")
		}
		if f.YearTo < f.YearFrom {
			result.addError("familysearch.year_to", fmt.Sprint(f.YearTo), fmt.Sprintf("must not be before year_from (%d)", f.YearFrom))
		}
		validateURL(result, "familysearch.search_url", f.SearchURL)
		validateURL(result, "familysearch.login_url", f.LoginURL)
		validateURL(result, "familysearch.home_url", f.HomeURL)
		if f.Username == "" || f.Password == "" {
			result.addWarning("familysearch credentials are empty; set %s and %s", EnvFamilySearchUsername, EnvFamilySearchPassword)
		}
	case "":
		result.addError("site", "", "site is required (ancestry or familysearch)")
	default:
		result.addError("site", c.Site, "unknown site, expected ancestry or familysearch")
	}
}

func (c *Config) validateBrowser(result *ValidationResult) {
	b := c.Browser
	switch b.Driver {
	case browser.DriverChromedp, browser.DriverRod:
	default:
		result.addError("browser.driver", b.Driver, "expected chromedp or rod")
	}
	if b.Timeout < 0 {
		result.addError("browser.timeout", b.Timeout.String(), "must not be negative")
	}
	if b.ViewportWidth < 0 || b.ViewportHeight < 0 {
		result.addError("browser.viewport", fmt.Sprintf("%dx%d", b.ViewportWidth, b.ViewportHeight), "must not be negative")
	}
	if b.RemoteURL != "" {
		validateURL(result, "browser.remote_url", b.RemoteURL)
	}
}

func (c *Config) validateRetry(result *ValidationResult) {
	policies := []struct {
		field  string
		policy errors.RetryPolicy
	}{
		{"retry.render", c.Retry.Render},
		{"retry.interact", c.Retry.Interact},
		{"retry.familysearch_interact", c.Retry.FamilySearchInteract},
	}
	for _, p := range policies {
		if p.policy.MaxAttempts < 1 {
			result.addError(p.field+".max_attempts", fmt.Sprint(p.policy.MaxAttempts), "must be at least 1")
		}
		if p.policy.BackoffFactor < 1 {
			result.addError(p.field+".backoff_factor", fmt.Sprint(p.policy.BackoffFactor), "must be at least 1")
		}
		if p.policy.BaseDelay < 0 {
			result.addError(p.field+".base_delay", p.policy.BaseDelay.String(), "must not be negative")
		}
		if p.policy.MaxDelay < p.policy.BaseDelay {
			result.addError(p.field+".max_delay", p.policy.MaxDelay.String(), "must not be shorter than base_delay")
		}
	}
	if c.RateLimit.RequestsPerSecond < 0 {
		result.addError("rate_limit.requests_per_second", fmt.Sprint(c.RateLimit.RequestsPerSecond), "must not be negative")
	}
	if c.RateLimit.Burst < 0 {
		result.addError("rate_limit.burst", fmt.Sprint(c.RateLimit.Burst), "must not be negative")
	}
}

func (c *Config) validateWaits(result *ValidationResult) {
	waits := []struct {
		field string
		d     time.Duration
	}{
		{"waits.element", c.Waits.Element},
		{"waits.options", c.Waits.Options},
		{"waits.leaf", c.Waits.Leaf},
		{"waits.results", c.Waits.Results},
		{"waits.sign_in", c.Waits.SignIn},
		{"waits.poll", c.Waits.Poll},
	}
	for _, w := range waits {
		if w.d <= 0 {
			result.addError(w.field, w.d.String(), "must be positive")
		}
	}
	if c.Waits.Poll > c.Waits.Element {
		result.addWarning("waits.poll (%s) is longer than waits.element (%s)", c.Waits.Poll, c.Waits.Element)
	}
}

func (c *Config) validateOutput(result *ValidationResult) {
	o := c.Output
	switch {
	case contains(FileFormats, o.Format):
		if o.File == "" {
			result.addError("output.file", "", fmt.Sprintf("output file is required for %s", o.Format))
		}
	case contains(DatabaseFormats, o.Format):
		if o.Database == nil {
			result.addError("output.database", "", fmt.Sprintf("database settings are required for %s", o.Format))
			return
		}
		if o.Database.DSN == "" {
			result.addError("output.database.dsn", "", "connection string is required")
		}
		if o.Database.Table == "" {
			result.addError("output.database.table", "", "table or collection name is required")
		}
		if o.Format == "mongodb" && o.Database.Database == "" {
			result.addError("output.database.database", "", "database name is required for mongodb")
		}
		if o.Database.BatchSize < 0 {
			result.addError("output.database.batch_size", fmt.Sprint(o.Database.BatchSize), "must not be negative")
		}
	default:
		result.addError("output.format", o.Format, fmt.Sprintf("unsupported format, expected one of %s",
			strings.Join(append(append([]string{}, FileFormats...), DatabaseFormats...), ", ")))
	}
}

func (c *Config) validateLogging(result *ValidationResult) {
	if !contains(logLevels, strings.ToLower(c.Logging.Level)) {
		result.addError("logging.level", c.Logging.Level, "expected debug, info, warn or error")
	}
	if c.Logging.Format != "" && !contains(logFormats, strings.ToLower(c.Logging.Format)) {
		result.addError("logging.format", c.Logging.Format, "expected text, json or logfmt")
	}
}

func (c *Config) validateMetrics(result *ValidationResult) {
	if !c.Metrics.Enabled {
		return
	}
	if c.Metrics.ListenAddress == "" {
		result.addError("metrics.listen_address", "", "required when metrics are enabled")
	}
	if !strings.HasPrefix(c.Metrics.MetricsPath, "/") {
		result.addError("metrics.path", c.Metrics.MetricsPath, "must start with /")
	}
}

func validateURL(result *ValidationResult, field, raw string) {
	if raw == "" {
		result.addError(field, "", "URL is required")
		return
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		result.addError(field, raw, "must be an absolute URL")
		return
	}
	if u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "ws" && u.Scheme != "wss" {
		result.addError(field, raw, "unsupported URL scheme")
	}
}

func formatValidationError(result *ValidationResult) error {
	lines := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		lines = append(lines, "  - "+e.Error())
	}
	return errors.Config("validate", fmt.Errorf("%d configuration error(s):\n%s", len(result.Errors), strings.Join(lines, "\n")))
}

// Suggestions gives actionable hints for the errors in result.
func Suggestions(result *ValidationResult) []string {
	var suggestions []string
	seen := map[string]bool{}
	add := func(key string, hints ...string) {
		if !seen[key] {
			seen[key] = true
			suggestions = append(suggestions, hints...)
		}
	}

	for _, err := range result.Errors {
		switch {
		case strings.HasSuffix(err.Field, "_url"):
			add("url", "Ensure URLs include protocol (http:// or https://)")
		case strings.HasPrefix(err.Field, "output"):
			add("output", "Run 'parishscraper template' to see a complete output section")
		case strings.HasPrefix(err.Field, "familysearch"), strings.HasPrefix(err.Field, "ancestry"), err.Field == "site":
			add("site", "Set site and fill in the matching section, e.g. ancestry.collection or familysearch.place")
		case strings.HasPrefix(err.Field, "retry"), strings.HasPrefix(err.Field, "waits"):
			add("timing", "Durations use Go syntax such as 500ms, 10s or 1m")
		}
	}
	if len(suggestions) == 0 {
		suggestions = append(suggestions,
			"Review the configuration file for syntax errors",
			"Check YAML indentation and formatting")
	}
	return suggestions
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
