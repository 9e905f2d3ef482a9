// internal/config/config_test.go
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/valpere/parishscraper/internal/errors"
	"github.com/valpere/parishscraper/internal/familysearch"
)

func TestLoadFromBytes(t *testing.T) {
	t.Setenv("ANC_USERNAME", "jane")
	t.Setenv("ANC_PASSWORD", "secret")

	configYAML := `
site: ancestry
ancestry:
  collection: "61085"
  max_pages: 40
  username: ${ANC_USERNAME}
waits:
  element: 5s
retry:
  render:
    max_attempts: 7
output:
  format: csv
  file: out/records.csv
`
	config, err := LoadFromBytes([]byte(configYAML))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}

	if config.Ancestry.Collection != "61085" || config.Ancestry.MaxPages != 40 {
		t.Errorf("ancestry section not decoded: %+v", config.Ancestry)
	}
	if config.Ancestry.Username != "jane" {
		t.Errorf("expected expanded username, got %q", config.Ancestry.Username)
	}
	if config.Ancestry.Password != "secret" {
		t.Errorf("expected password from environment, got %q", config.Ancestry.Password)
	}
	if config.Waits.Element != 5*time.Second {
		t.Errorf("element wait = %s", config.Waits.Element)
	}
	if config.Retry.Render.MaxAttempts != 7 {
		t.Errorf("render attempts = %d", config.Retry.Render.MaxAttempts)
	}
	if config.Retry.Render.MaxDelay != errors.DefaultRetryPolicy().MaxDelay {
		t.Errorf("unset retry fields should keep defaults, got %+v", config.Retry.Render)
	}
	if config.Browser.Driver != "chromedp" || !config.Browser.Headless {
		t.Errorf("browser defaults lost: %+v", config.Browser)
	}
	if config.Ancestry.BaseURL != "https://www.ancestry.co.uk" {
		t.Errorf("base url default lost: %q", config.Ancestry.BaseURL)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "familysearch.yaml")
	configYAML := `
site: familysearch
familysearch:
  place: "Ash, Kent, England"
  year_from: 1813
  year_to: 1815
output:
  format: SQLITE
  database:
    dsn: burials.db
    table: burials
`
	if err := os.WriteFile(path, []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if config.Output.Format != "sqlite" {
		t.Errorf("format should be normalised, got %q", config.Output.Format)
	}
	if config.Output.Database.BatchSize != 500 {
		t.Errorf("batch size default = %d", config.Output.Database.BatchSize)
	}

	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadFromFile(""); err == nil {
		t.Error("expected error for empty filename")
	}
}

func TestLoadFromReader_Invalid(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("site: ancestry\noutput:\n  format: pdf\n"))
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.IsKind(err, errors.KindConfig) {
		t.Errorf("expected config error kind, got %v", err)
	}
	for _, want := range []string{"ancestry.collection", "output.format"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s: %v", want, err)
		}
	}

	if _, err := LoadFromBytes([]byte("site: [")); err == nil {
		t.Error("expected YAML syntax error")
	}
}

func TestValidateDetailed(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		fields []string
	}{
		{"valid ancestry", func(c *Config) {}, nil},
		{"missing site", func(c *Config) { c.Site = "" }, []string{"site"}},
		{"unknown driver", func(c *Config) { c.Browser.Driver = "selenium" }, []string{"browser.driver"}},
		{"zero attempts", func(c *Config) { c.Retry.Interact.MaxAttempts = 0 }, []string{"retry.interact.max_attempts"}},
		{"max below base", func(c *Config) {
			c.Retry.Render.BaseDelay = time.Minute
			c.Retry.Render.MaxDelay = time.Second
		}, []string{"retry.render.max_delay"}},
		{"negative wait", func(c *Config) { c.Waits.Leaf = -time.Second }, []string{"waits.leaf"}},
		{"relative url", func(c *Config) { c.Ancestry.BaseURL = "/search" }, []string{"ancestry.base_url"}},
		{"file format without file", func(c *Config) { c.Output.File = "" }, []string{"output.file"}},
		{"database without settings", func(c *Config) { c.Output.Format = "postgresql" }, []string{"output.database"}},
		{"mongodb without database", func(c *Config) {
			c.Output.Format = "mongodb"
			c.Output.Database = &DatabaseConfig{DSN: "mongodb://localhost", Table: "records"}
		}, []string{"output.database.database"}},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, []string{"logging.level"}},
		{"metrics path", func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.MetricsPath = "metrics"
		}, []string{"metrics.path"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := GenerateTemplate(SiteAncestry)
			tt.modify(c)

			var got []string
			for _, e := range c.ValidateDetailed().Errors {
				got = append(got, e.Field)
			}
			if diff := cmp.Diff(tt.fields, got); diff != "" {
				t.Errorf("error fields mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidateDetailed_FamilySearchYears(t *testing.T) {
	c := GenerateTemplate(SiteFamilySearch)
	c.FamilySearch.YearFrom = 1850
	c.FamilySearch.YearTo = 1840

	result := c.ValidateDetailed()
	if result.Valid || len(result.Errors) != 1 || result.Errors[0].Field != "familysearch.year_to" {
		t.Errorf("unexpected result: %+v", result.Errors)
	}
}

func TestValidateDetailed_CredentialWarning(t *testing.T) {
	c := GenerateTemplate(SiteAncestry)
	c.Ancestry.Username = ""

	result := c.ValidateDetailed()
	if !result.Valid {
		t.Fatalf("missing credentials should not be an error: %+v", result.Errors)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "ANC_USERNAME") {
		t.Errorf("expected credential warning, got %v", result.Warnings)
	}
}

func TestGenerateTemplate(t *testing.T) {
	for _, site := range []string{SiteAncestry, SiteFamilySearch} {
		t.Run(site, func(t *testing.T) {
			config := GenerateTemplate(site)
			if config.Site != site {
				t.Errorf("expected site %q, got %q", site, config.Site)
			}
			if err := config.Validate(); err != nil {
				t.Errorf("generated template should be valid: %v", err)
			}

			var buf bytes.Buffer
			if err := SaveToWriter(config, &buf); err != nil {
				t.Fatalf("SaveToWriter: %v", err)
			}
			if !strings.Contains(buf.String(), "${") {
				t.Error("template should reference credential environment variables")
			}

			reloaded, err := Parse(buf.Bytes())
			if err != nil {
				t.Fatalf("template does not parse back: %v", err)
			}
			if reloaded.Site != site || reloaded.Waits != config.Waits {
				t.Errorf("round trip changed the template: %+v", reloaded)
			}
		})
	}
}

func TestSaveToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := SaveToFile(GenerateTemplate(SiteFamilySearch), path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file not written: %v", err)
	}
}

func TestScraperOptions(t *testing.T) {
	c := GenerateTemplate(SiteAncestry)
	c.Ancestry.Levels = 3
	c.Waits.Options = 4 * time.Second
	c.Retry.Render.MaxAttempts = 9

	anc := c.AncestryOptions()
	if anc.Levels != 3 || anc.OptionsTimeout != 4*time.Second || anc.Render.MaxAttempts != 9 {
		t.Errorf("ancestry options not mapped: %+v", anc)
	}

	c.Waits.Results = 12 * time.Second
	fs := c.FamilySearchOptions()
	if fs.ResultsTimeout != 12*time.Second || fs.Render.MaxAttempts != 9 {
		t.Errorf("familysearch options not mapped: %+v", fs)
	}
}

func TestFamilySearchInteractPolicy(t *testing.T) {
	c := GenerateTemplate(SiteFamilySearch)
	c.Retry.Interact.MaxAttempts = 10

	want := familysearch.DefaultOptions().Interact
	if diff := cmp.Diff(want, c.FamilySearchOptions().Interact); diff != "" {
		t.Errorf("familysearch interact policy should keep its own default (-want +got):\n%s", diff)
	}

	config, err := Parse([]byte(`
site: familysearch
retry:
  interact:
    max_attempts: 12
  familysearch_interact:
    max_attempts: 5
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	got := config.FamilySearchOptions().Interact
	if got.MaxAttempts != 5 || got.MaxDelay != want.MaxDelay {
		t.Errorf("familysearch_interact not applied over defaults: %+v", got)
	}
	if config.AncestryOptions().Interact.MaxAttempts != 12 {
		t.Errorf("ancestry interact attempts = %d", config.AncestryOptions().Interact.MaxAttempts)
	}
}
