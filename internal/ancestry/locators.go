// internal/ancestry/locators.go
package ancestry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/valpere/parishscraper/internal/browser"
)

// Locators holds every selector the Ancestry scraper relies on. Templated
// entries take the 1-based level index or the leaf depth.
type Locators struct {
	BrowseBox     browser.Locator `yaml:"browse_box"`
	BrowseLevels  browser.Locator `yaml:"browse_levels"`
	LevelSelect   browser.Locator `yaml:"level_select"`
	LevelOptions  browser.Locator `yaml:"level_options"`
	LevelLabels   browser.Locator `yaml:"level_labels"`
	ResultItems   browser.Locator `yaml:"result_items"`
	ResultLink    browser.Locator `yaml:"result_link"`
	PagingPanel   browser.Locator `yaml:"paging_panel"`
	PanelButtons  browser.Locator `yaml:"panel_buttons"`
	NextPage      browser.Locator `yaml:"next_page"`
	PageCount     browser.Locator `yaml:"page_count"`
	IndexPanel    browser.Locator `yaml:"index_panel"`
	GridContainer browser.Locator `yaml:"grid_container"`
	GridRow       string          `yaml:"grid_row"`
	GridCell      string          `yaml:"grid_cell"`

	CookieAccept   browser.Locator `yaml:"cookie_accept"`
	SignInFrame    browser.Locator `yaml:"sign_in_frame"`
	Username       browser.Locator `yaml:"username"`
	Password       browser.Locator `yaml:"password"`
	SignInButton   browser.Locator `yaml:"sign_in_button"`
	WelcomeHeading browser.Locator `yaml:"welcome_heading"`
	WelcomeText    string          `yaml:"welcome_text"`
}

// DefaultLocators matches ancestry.co.uk's collection browser and image viewer.
func DefaultLocators() Locators {
	return Locators{
		BrowseBox:     browser.CSS("#divBrowse"),
		BrowseLevels:  browser.CSS("#browseControls > div"),
		LevelSelect:   browser.CSS("#browseControls > div:nth-of-type(%d) > div > select"),
		LevelOptions:  browser.CSS("#browseControls > div:nth-of-type(%d) > div > select > option"),
		LevelLabels:   browser.CSS("#browseControls label"),
		ResultItems:   browser.CSS("#divBL_%d > div > ul > li"),
		ResultLink:    browser.CSS("a"),
		PagingPanel:   browser.CSS(".paging-wrapper"),
		PanelButtons:  browser.CSS(":scope > button"),
		NextPage:      browser.CSS("button.page"),
		PageCount:     browser.CSS("span.imageCountText.middle"),
		IndexPanel:    browser.CSS("div.index-panel"),
		GridContainer: browser.CSS("div.grid-container"),
		GridRow:       "div.grid-row",
		GridCell:      "div",

		CookieAccept:   browser.XPath(`//*[@id="Banner_cookie_0"]/div[2]/div/div[2]/div/button[1]`),
		SignInFrame:    browser.XPath(`/html/body/main/div/div/section/div/div/div[2]/div[1]/iframe`),
		Username:       browser.CSS("#username"),
		Password:       browser.CSS("#password"),
		SignInButton:   browser.CSS("main form > div > div:nth-of-type(3) > button"),
		WelcomeHeading: browser.XPath(`//h1[@class="pageTitle"]`),
		WelcomeText:    "Welcome,",
	}
}

// LoadLocators reads a YAML override file on top of the defaults. Keys absent
// from the file keep their default value.
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
