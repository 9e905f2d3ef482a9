// cmd/parishscraper/main_test.go
package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valpere/parishscraper/internal/config"
	"github.com/valpere/parishscraper/internal/dataset"
	"github.com/valpere/parishscraper/internal/errors"
)

// execute runs the CLI with args and returns stdout.
func execute(t *testing.T, args ...string) (string, *app, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a := newApp(&stdout, &stderr)
	cmd := a.root()
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "none.env")))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), a, err
}

func writeConfig(t *testing.T, c *config.Config) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := config.SaveToFile(c, path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCLIVersion(t *testing.T) {
	version = "test-version"
	buildTime = "2025-06-23"
	gitCommit = "abc123"

	out, _, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"test-version", "2025-06-23", "abc123"} {
		if !strings.Contains(out, want) {
			t.Errorf("version output should contain %q, got: %s", want, out)
		}
	}
}

func TestCLIHelp(t *testing.T) {
	out, _, err := execute(t, "--help")
	if err != nil {
		t.Fatal(err)
	}
	for _, cmd := range []string{"ancestry", "familysearch", "validate", "template", "version"} {
		if !strings.Contains(out, cmd) {
			t.Errorf("help output should contain command %q, got: %s", cmd, out)
		}
	}

	out, _, err = execute(t, "ancestry", "--help")
	if err != nil {
		t.Fatal(err)
	}
	for _, cmd := range []string{"run", "urls", "scrape"} {
		if !strings.Contains(out, cmd) {
			t.Errorf("ancestry help should contain %q, got: %s", cmd, out)
		}
	}
}

func TestCLITemplate(t *testing.T) {
	for _, site := range []string{config.SiteAncestry, config.SiteFamilySearch} {
		t.Run(site, func(t *testing.T) {
			out, _, err := execute(t, "template", "--site", site)
			if err != nil {
				t.Fatal(err)
			}
			c, err := config.Parse([]byte(out))
			if err != nil {
				t.Fatalf("template output does not parse: %v", err)
			}
			if c.Site != site {
				t.Errorf("site = %q", c.Site)
			}
		})
	}

	_, a, err := execute(t, "template", "--site", "findmypast")
	if a.errs.GetExitCode(err) != 2 {
		t.Errorf("unknown site should be a config error, got %v", err)
	}
}

func TestCLITemplateToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fs.yaml")
	out, _, err := execute(t, "template", "--site", "familysearch", "-o", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, path) {
		t.Errorf("expected confirmation, got %q", out)
	}
	if _, err := config.LoadFromFile(path); err != nil {
		t.Errorf("written template is not a valid config: %v", err)
	}
}

func TestCLIValidate(t *testing.T) {
	path := writeConfig(t, config.GenerateTemplate(config.SiteAncestry))
	out, _, err := execute(t, "validate", "--config", path)
	if err != nil {
		t.Fatalf("valid config rejected: %v\n%s", err, out)
	}
	if !strings.Contains(out, "is valid") {
		t.Errorf("unexpected output: %s", out)
	}

	bad := config.GenerateTemplate(config.SiteAncestry)
	bad.Output.Format = "pdf"
	bad.Ancestry.Collection = ""
	out, a, err := execute(t, "validate", "--config", writeConfig(t, bad))
	if err == nil {
		t.Fatal("expected validation failure")
	}
	if code := a.errs.GetExitCode(err); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	for _, want := range []string{"output.format", "ancestry.collection"} {
		if !strings.Contains(out, want) {
			t.Errorf("report should mention %s:\n%s", want, out)
		}
	}
}

func TestCLIValidate_MissingFile(t *testing.T) {
	_, _, err := execute(t, "validate", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.IsKind(err, errors.KindConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
	if !strings.Contains(err.Error(), "missing.yaml") {
		t.Errorf("error should name the file: %v", err)
	}
}

func TestCLISiteMismatch(t *testing.T) {
	path := writeConfig(t, config.GenerateTemplate(config.SiteFamilySearch))
	_, _, err := execute(t, "ancestry", "run", "--config", path)
	if !errors.IsKind(err, errors.KindConfig) {
		t.Errorf("expected config error for site mismatch, got %v", err)
	}
}

func TestCLIAncestryURLsPartitions(t *testing.T) {
	path := writeConfig(t, config.GenerateTemplate(config.SiteAncestry))
	_, _, err := execute(t, "ancestry", "urls", "--partitions", "0", "--config", path)
	if !errors.IsKind(err, errors.KindConfig) {
		t.Errorf("expected config error for zero partitions, got %v", err)
	}
}

func TestCLIUnknownDriver(t *testing.T) {
	c := config.GenerateTemplate(config.SiteFamilySearch)
	c.Browser.Driver = "selenium"
	path := writeConfig(t, c)

	_, a, err := execute(t, "familysearch", "run", "--config", path)
	if code := a.errs.GetExitCode(err); code != 2 {
		t.Errorf("exit code = %d (%v), want 2", code, err)
	}
}

func TestRunFailurePolicy(t *testing.T) {
	table := &dataset.Table{
		Columns: []string{"Name"},
		Rows:    []dataset.Row{{dataset.Text("Ann")}},
	}
	runErr := errors.New("viewer stopped rendering")

	for _, keep := range []bool{true, false} {
		c := config.GenerateTemplate(config.SiteAncestry)
		c.FailurePolicy.SavePartialResults = keep
		c.Retry.Render.MaxAttempts = 4
		c.Output.File = filepath.Join(t.TempDir(), "records.csv")

		var stderr bytes.Buffer
		a := newApp(&stderr, &stderr)
		a.configFile = writeConfig(t, c)
		a.verbose = true
		r, err := a.start(config.SiteAncestry)
		if err != nil {
			t.Fatalf("start: %v", err)
		}

		if got := r.errs.Policy().MaxAttempts; got != 4 {
			t.Errorf("render attempts = %d, want 4", got)
		}
		if err := r.finish(context.Background(), table, runErr); err != runErr {
			t.Errorf("finish should report the run error, got %v", err)
		}
		r.close()

		_, statErr := os.Stat(c.Output.File)
		if written := statErr == nil; written != keep {
			t.Errorf("save_partial_results=%v: output written = %v", keep, written)
		}
	}
}
