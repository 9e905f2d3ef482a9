// internal/familysearch/locators.go
package familysearch

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/valpere/parishscraper/internal/browser"
)

// Locators holds the FamilySearch selectors. The results page renders inside
// nested shadow roots, so the page-level entries are plain CSS selectors
// resolved with a shadow-piercing search.
type Locators struct {
	Spinner      string `yaml:"spinner"`
	SpinnerAttr  string `yaml:"spinner_attr"`
	ResultsTable string `yaml:"results_table"`
	ResultCount  string `yaml:"result_count"`
	Alert        string `yaml:"alert"`

	Row        browser.Locator `yaml:"row"`
	RowName    browser.Locator `yaml:"row_name"`
	NameAttr   string          `yaml:"name_attr"`
	RowEvents  browser.Locator `yaml:"row_events"`
	EventType  string          `yaml:"event_type"`
	EventDate  string          `yaml:"event_date"`
	EventPlace string          `yaml:"event_place"`

	Username      browser.Locator `yaml:"username"`
	Password      browser.Locator `yaml:"password"`
	SignInButton  browser.Locator `yaml:"sign_in_button"`
	SurveyDismiss browser.Locator `yaml:"survey_dismiss"`
	CookieFrame   browser.Locator `yaml:"cookie_frame"`
	CookieAgree   browser.Locator `yaml:"cookie_agree"`
}

func DefaultLocators() Locators {
	return Locators{
		Spinner:      "fs-spinner",
		SpinnerAttr:  "style",
		ResultsTable: "div.table",
		ResultCount:  "p.search-criteria",
		Alert:        "section.right div.fs-alert",

		Row:        browser.CSS(":scope > div"),
		RowName:    browser.CSS("span > sr-cell-name"),
		NameAttr:   "name",
		RowEvents:  browser.CSS("span > sr-cell-events"),
		EventType:  "span.event-type",
		EventDate:  "span.event-date",
		EventPlace: "span.event-place",

		Username:      browser.CSS("#userName"),
		Password:      browser.CSS("#password"),
		SignInButton:  browser.CSS("#login"),
		SurveyDismiss: browser.XPath(`//*[@id="pagekey__home__lihp_arches"]/div[5]/div[2]/div/div[3]/button[2]`),
		CookieFrame:   browser.XPath(`/html/body/div[3]/div/iframe`),
		CookieAgree:   browser.CSS("body > div:nth-of-type(8) > div:nth-of-type(1) > div > div:nth-of-type(3) > a:nth-of-type(1)"),
	}
}

// LoadLocators overlays a YAML file on the defaults.
func LoadLocators(path string) (Locators, error) {
	locators := DefaultLocators()
	if path == "" {
		return locators, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return locators, fmt.Errorf("failed to read locator file: %w", err)
	}
	if err := yaml.Unmarshal(data, &locators); err != nil {
		return locators, fmt.Errorf("failed to parse locator file: %w", err)
	}
	return locators, nil
}
