// internal/config/config.go
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/valpere/parishscraper/internal/ancestry"
	"github.com/valpere/parishscraper/internal/browser"
	"github.com/valpere/parishscraper/internal/errors"
	"github.com/valpere/parishscraper/internal/familysearch"
	"github.com/valpere/parishscraper/internal/monitoring"
	"github.com/valpere/parishscraper/internal/utils"
)

// Default returns a configuration with every tunable set. Loading decodes a
// file on top of it, so absent keys keep these values.
func Default() *Config {
	anc := ancestry.DefaultOptions()
	fs := familysearch.DefaultOptions()

	return &Config{
		Browser: *browser.DefaultBrowserConfig(),
		Retry: RetryConfig{
			Render:               anc.Render,
			Interact:             anc.Interact,
			FamilySearchInteract: fs.Interact,
		},
		Waits: WaitsConfig{
			Element: anc.ElementTimeout,
			Options: anc.OptionsTimeout,
			Leaf:    anc.LeafTimeout,
			Results: fs.ResultsTimeout,
			SignIn:  fs.SignInTimeout,
			Poll:    browser.DefaultPollInterval,
		},
		RateLimit: utils.RateLimitConfig{RequestsPerSecond: 0.5, Burst: 1},
		Ancestry: AncestryConfig{
			BaseURL:  anc.BaseURL,
			LoginURL: anc.LoginURL,
		},
		FamilySearch: FamilySearchConfig{
			SearchURL: fs.SearchURL,
			LoginURL:  fs.LoginURL,
			HomeURL:   fs.HomeURL,
		},
		Output: OutputConfig{Format: "csv"},
		Logging: utils.LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Metrics: monitoring.MetricsConfig{
			Namespace:     "parishscraper",
			MetricsPath:   "/metrics",
			ListenAddress: ":9090",
		},
	}
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(filename string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("configuration filename cannot be empty")
	}
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", filename)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes expands ${VAR} references, decodes the YAML over the
// defaults and validates the result.
func LoadFromBytes(data []byte) (*Config, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("configuration data cannot be empty")
	}

	config, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// Parse decodes configuration without validating it.
func Parse(data []byte) (*Config, error) {
	expanded := expandEnvironmentVariables(string(data))

	config := Default()
	if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %w", err)
	}
	applyDefaults(config)
	return config, nil
}

// LoadFromReader loads configuration from an io.Reader
func LoadFromReader(reader io.Reader) (*Config, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader cannot be nil")
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read from reader: %w", err)
	}
	return LoadFromBytes(data)
}

// SaveToFile writes configuration as YAML, creating the directory if needed.
func SaveToFile(config *Config, filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}
	defer f.Close()
	return SaveToWriter(config, f)
}

// SaveToWriter writes configuration as YAML.
func SaveToWriter(config *Config, writer io.Writer) error {
	if config == nil {
		return fmt.Errorf("configuration cannot be nil")
	}
	if writer == nil {
		return fmt.Errorf("writer cannot be nil")
	}

	enc := yaml.NewEncoder(writer)
	enc.SetIndent(2)
	if err := enc.Encode(config); err != nil {
		return fmt.Errorf("failed to marshal configuration to YAML: %w", err)
	}
	return enc.Close()
}

// GenerateTemplate returns a starter configuration for site.
func GenerateTemplate(site string) *Config {
	config := Default()
	config.Ancestry.Username = "${ANC_USERNAME}"
	config.Ancestry.Password = "${ANC_PASSWORD}"
	config.FamilySearch.Username = "${FS_USERNAME}"
	config.FamilySearch.Password = "${FS_PASSWORD}"
	switch strings.ToLower(site) {
	case SiteFamilySearch:
		config.Site = SiteFamilySearch
		config.FamilySearch.Place = "Ash, Kent, England"
		config.FamilySearch.YearFrom = 1813
		config.FamilySearch.YearTo = 1837
		config.Output.File = "burials.csv"
	default:
		config.Site = SiteAncestry
		config.Ancestry.Collection = "1234"
		config.Ancestry.URLsFile = "urls.json"
		config.Output.File = "records.csv"
	}
	return config
}

// AncestryOptions maps the configuration onto scraper options.
func (c *Config) AncestryOptions() ancestry.Options {
	opts := ancestry.DefaultOptions()
	opts.BaseURL = c.Ancestry.BaseURL
	opts.LoginURL = c.Ancestry.LoginURL
	opts.Levels = c.Ancestry.Levels
	opts.MaxPages = c.Ancestry.MaxPages
	opts.ElementTimeout = c.Waits.Element
	opts.OptionsTimeout = c.Waits.Options
	opts.LeafTimeout = c.Waits.Leaf
	opts.PollInterval = c.Waits.Poll
	opts.Render = c.Retry.Render
	opts.Interact = c.Retry.Interact
	return opts
}

func (c *Config) AncestryCredentials() ancestry.Credentials {
	return ancestry.Credentials{Username: c.Ancestry.Username, Password: c.Ancestry.Password}
}

// FamilySearchOptions maps the configuration onto scraper options.
func (c *Config) FamilySearchOptions() familysearch.Options {
	opts := familysearch.DefaultOptions()
	opts.SearchURL = c.FamilySearch.SearchURL
	opts.LoginURL = c.FamilySearch.LoginURL
	opts.HomeURL = c.FamilySearch.HomeURL
	opts.ElementTimeout = c.Waits.Element
	opts.ResultsTimeout = c.Waits.Results
	opts.SignInTimeout = c.Waits.SignIn
	opts.PollInterval = c.Waits.Poll
	opts.Render = c.Retry.Render
	opts.Interact = c.Retry.FamilySearchInteract
	return opts
}

func (c *Config) FamilySearchCredentials() familysearch.Credentials {
	return familysearch.Credentials{Username: c.FamilySearch.Username, Password: c.FamilySearch.Password}
}

// expandEnvironmentVariables substitutes environment variables in the configuration
func expandEnvironmentVariables(content string) string {
	return os.ExpandEnv(content)
}

// Credential environment variables, used when the file leaves them out.
const (
	EnvAncestryUsername     = "ANC_USERNAME"
	EnvAncestryPassword     = "ANC_PASSWORD"
	EnvFamilySearchUsername = "FS_USERNAME"
	EnvFamilySearchPassword = "FS_PASSWORD"
)

// applyDefaults fills values an explicit zero in the file would break.
func applyDefaults(config *Config) {
	defaults := Default()

	credentials := []struct {
		value *string
		env   string
	}{
		{&config.Ancestry.Username, EnvAncestryUsername},
		{&config.Ancestry.Password, EnvAncestryPassword},
		{&config.FamilySearch.Username, EnvFamilySearchUsername},
		{&config.FamilySearch.Password, EnvFamilySearchPassword},
	}
	for _, c := range credentials {
		if *c.value == "" {
			*c.value = os.Getenv(c.env)
		}
	}

	if config.Browser.Driver == "" {
		config.Browser.Driver = browser.DriverChromedp
	}
	if config.Browser.Timeout == 0 {
		config.Browser.Timeout = defaults.Browser.Timeout
	}
	fillPolicy(&config.Retry.Render, defaults.Retry.Render)
	fillPolicy(&config.Retry.Interact, defaults.Retry.Interact)
	fillPolicy(&config.Retry.FamilySearchInteract, defaults.Retry.FamilySearchInteract)

	waits := []struct {
		value *time.Duration
		def   time.Duration
	}{
		{&config.Waits.Element, defaults.Waits.Element},
		{&config.Waits.Options, defaults.Waits.Options},
		{&config.Waits.Leaf, defaults.Waits.Leaf},
		{&config.Waits.Results, defaults.Waits.Results},
		{&config.Waits.SignIn, defaults.Waits.SignIn},
		{&config.Waits.Poll, defaults.Waits.Poll},
	}
	for _, w := range waits {
		if *w.value == 0 {
			*w.value = w.def
		}
	}

	if config.Output.Format == "" {
		config.Output.Format = defaults.Output.Format
	}
	config.Output.Format = strings.ToLower(config.Output.Format)
	if db := config.Output.Database; db != nil {
		if db.BatchSize == 0 {
			db.BatchSize = 500
		}
		if db.Timeout == 0 {
			db.Timeout = 30 * time.Second
		}
	}
	if config.Logging.Level == "" {
		config.Logging.Level = defaults.Logging.Level
	}
	if config.Metrics.MetricsPath == "" {
		config.Metrics.MetricsPath = defaults.Metrics.MetricsPath
	}
}

func fillPolicy(p *errors.RetryPolicy, def errors.RetryPolicy) {
	if p.MaxAttempts == 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.BackoffFactor == 0 {
		p.BackoffFactor = def.BackoffFactor
	}
	if p.MaxDelay == 0 {
		p.MaxDelay = def.MaxDelay
	}
}
