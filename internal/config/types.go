// internal/config/types.go
package config

import (
	"time"

	"github.com/valpere/parishscraper/internal/browser"
	"github.com/valpere/parishscraper/internal/errors"
	"github.com/valpere/parishscraper/internal/monitoring"
	"github.com/valpere/parishscraper/internal/utils"
)

// Site names accepted in Config.Site.
const (
	SiteAncestry     = "ancestry"
	SiteFamilySearch = "familysearch"
)

// Config is the whole run configuration.
type Config struct {
	Site          string                   `yaml:"site" json:"site"`
	Browser       browser.BrowserConfig    `yaml:"browser" json:"browser"`
	Retry         RetryConfig              `yaml:"retry" json:"retry"`
	Waits         WaitsConfig              `yaml:"waits" json:"waits"`
	RateLimit     utils.RateLimitConfig    `yaml:"rate_limit" json:"rate_limit"`
	Ancestry      AncestryConfig           `yaml:"ancestry" json:"ancestry"`
	FamilySearch  FamilySearchConfig       `yaml:"familysearch" json:"familysearch"`
	Output        OutputConfig             `yaml:"output" json:"output"`
	FailurePolicy errors.FailurePolicy     `yaml:"failure_policy" json:"failure_policy"`
	Logging       utils.LogConfig          `yaml:"logging" json:"logging"`
	Metrics       monitoring.MetricsConfig `yaml:"metrics" json:"metrics"`
}

// RetryConfig bounds the kinds of retry the scrapers perform.
type RetryConfig struct {
	// Render covers reloading a page whose controls never appear.
	Render errors.RetryPolicy `yaml:"render" json:"render"`
	// Interact covers clicks and key presses on controls that re-render.
	Interact errors.RetryPolicy `yaml:"interact" json:"interact"`
	// FamilySearchInteract replaces Interact for the FamilySearch scraper,
	// whose result rows re-render less often than Ancestry's selects.
	FamilySearchInteract errors.RetryPolicy `yaml:"familysearch_interact" json:"familysearch_interact"`
}

// WaitsConfig holds the per-element wait budgets.
type WaitsConfig struct {
	Element time.Duration `yaml:"element" json:"element"`
	Options time.Duration `yaml:"options" json:"options"`
	Leaf    time.Duration `yaml:"leaf" json:"leaf"`
	Results time.Duration `yaml:"results" json:"results"`
	SignIn  time.Duration `yaml:"sign_in" json:"sign_in"`
	Poll    time.Duration `yaml:"poll" json:"poll"`
}

type AncestryConfig struct {
	Username     string `yaml:"username" json:"-"`
	Password     string `yaml:"password" json:"-"`
	BaseURL      string `yaml:"base_url" json:"base_url"`
	LoginURL     string `yaml:"login_url" json:"login_url"`
	Collection   string `yaml:"collection" json:"collection"`
	Levels       int    `yaml:"levels,omitempty" json:"levels,omitempty"`
	MaxPages     int    `yaml:"max_pages,omitempty" json:"max_pages,omitempty"`
	URLsFile     string `yaml:"urls_file,omitempty" json:"urls_file,omitempty"`
	LocatorsFile string `yaml:"locators_file,omitempty" json:"locators_file,omitempty"`
}

type FamilySearchConfig struct {
	Username     string `yaml:"username" json:"-"`
	Password     string `yaml:"password" json:"-"`
	SearchURL    string `yaml:"search_url" json:"search_url"`
	LoginURL     string `yaml:"login_url" json:"login_url"`
	HomeURL      string `yaml:"home_url" json:"home_url"`
	Place        string `yaml:"place" json:"place"`
	YearFrom     int    `yaml:"year_from" json:"year_from"`
	YearTo       int    `yaml:"year_to" json:"year_to"`
	LocatorsFile string `yaml:"locators_file,omitempty" json:"locators_file,omitempty"`
}

// OutputConfig selects where the result table goes.
type OutputConfig struct {
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
	// NAValue is written for missing cells in text formats.
	NAValue  string          `yaml:"na_value,omitempty" json:"na_value,omitempty"`
	Sheet    string          `yaml:"sheet,omitempty" json:"sheet,omitempty"`
	Database *DatabaseConfig `yaml:"database,omitempty" json:"database,omitempty"`
}

// DatabaseConfig addresses a SQL table or a MongoDB collection.
type DatabaseConfig struct {
	DSN         string        `yaml:"dsn" json:"-"`
	Database    string        `yaml:"database,omitempty" json:"database,omitempty"`
	Table       string        `yaml:"table" json:"table"`
	BatchSize   int           `yaml:"batch_size,omitempty" json:"batch_size,omitempty"`
	CreateTable bool          `yaml:"create_table" json:"create_table"`
	Timeout     time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}
