// internal/ancestry/traversal_test.go
package ancestry

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/valpere/parishscraper/internal/browser/browsertest"
	"github.com/valpere/parishscraper/internal/dataset"
	"github.com/valpere/parishscraper/internal/errors"
	"github.com/valpere/parishscraper/internal/utils"
)

var parishes = map[string][]string{
	"Kent":   {"Ash", "Wye"},
	"Surrey": {"Bletchingley"},
}

func countyParishSite() *browseSite {
	counties := []string{"Kent", "Surrey"}
	return newBrowseSite(
		[]string{"County", "Parish"},
		func(level int, sel []int) []string {
			if level == 1 {
				return counties
			}
			return parishes[counties[sel[1]-1]]
		},
		func(sel []int) [][2]string {
			parish := parishes[counties[sel[1]-1]][sel[2]-1]
			if parish == "Wye" {
				return nil
			}
			return [][2]string{
				{"1813-1850", "/imageviewer/collections/1234/images/" + parish + "-1"},
				{"1851-1900", "https://www.ancestry.co.uk/imageviewer/collections/1234/images/" + parish + "-2"},
			}
		},
	)
}

func authenticatedScraper(site *browseSite) *Scraper {
	s := New(site.session, testOptions())
	s.authenticated = true
	return s
}

func TestTraverse_DepthFirstPaths(t *testing.T) {
	site := countyParishSite()
	s := authenticatedScraper(site)

	urls, err := s.Traverse(context.Background())
	if err != nil {
		t.Fatalf("Traverse: %v", err)
	}

	var got []dataset.Entry
	got = append(got, urls.Entries()...)
	want := []dataset.Entry{
		{
			Path: dataset.Path{{Label: "County", Option: "Kent"}, {Label: "Parish", Option: "Ash"}},
			Links: dataset.Links{
				{Label: "1813-1850", URL: "https://www.ancestry.co.uk/imageviewer/collections/1234/images/Ash-1"},
				{Label: "1851-1900", URL: "https://www.ancestry.co.uk/imageviewer/collections/1234/images/Ash-2"},
			},
		},
		{
			Path:  dataset.Path{{Label: "County", Option: "Kent"}, {Label: "Parish", Option: "Wye"}},
			Links: dataset.Links{},
		},
		{
			Path: dataset.Path{{Label: "County", Option: "Surrey"}, {Label: "Parish", Option: "Bletchingley"}},
			Links: dataset.Links{
				{Label: "1813-1850", URL: "https://www.ancestry.co.uk/imageviewer/collections/1234/images/Bletchingley-1"},
				{Label: "1851-1900", URL: "https://www.ancestry.co.uk/imageviewer/collections/1234/images/Bletchingley-2"},
			},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("URL map mismatch (-want +got):\n%s", diff)
	}

	for _, e := range got {
		if len(e.Path) != 2 {
			t.Errorf("path %v has %d levels, want 2", e.Path, len(e.Path))
		}
	}
}

func TestTraverse_RefreshesWhenOptionsDoNotRender(t *testing.T) {
	site := countyParishSite()
	site.failOptions[1] = 1
	s := authenticatedScraper(site)

	urls, err := s.Traverse(context.Background())
	if err != nil {
		t.Fatalf("Traverse: %v", err)
	}
	if site.session.Refreshes != 1 {
		t.Errorf("expected 1 refresh, got %d", site.session.Refreshes)
	}
	if urls.Len() != 3 {
		t.Errorf("expected 3 paths, got %d", urls.Len())
	}
}

func TestTraverse_GivesUpAfterRetryBudget(t *testing.T) {
	site := countyParishSite()
	site.session.OnRefresh = nil
	site.failOptions[1] = 100
	s := authenticatedScraper(site)

	_, err := s.Traverse(context.Background())
	if !errors.IsKind(err, errors.KindTransientRender) {
		t.Fatalf("expected transient render failure, got %v", err)
	}
	if site.session.Refreshes != 2 {
		t.Errorf("expected 2 refreshes for 3 attempts, got %d", site.session.Refreshes)
	}
}

func TestTraverse_RelocatesStaleSelect(t *testing.T) {
	site := countyParishSite()
	site.staleSelect[1] = 2
	s := authenticatedScraper(site)

	urls, err := s.Traverse(context.Background())
	if err != nil {
		t.Fatalf("Traverse: %v", err)
	}
	if urls.Len() != 3 {
		t.Errorf("expected 3 paths, got %d", urls.Len())
	}
}

func TestTraverse_ConfiguredLevels(t *testing.T) {
	site := countyParishSite()
	site.session.Unhandle(DefaultLocators().BrowseLevels.Expr)
	opts := testOptions()
	opts.Levels = 2
	s := New(site.session, opts)

	urls, err := s.Traverse(context.Background())
	if err != nil {
		t.Fatalf("Traverse: %v", err)
	}
	if urls.Len() != 3 {
		t.Errorf("expected 3 paths, got %d", urls.Len())
	}
}

func TestCollectionURLs(t *testing.T) {
	site := countyParishSite()
	s := authenticatedScraper(site)

	urls, err := s.CollectionURLs(context.Background(), "1234")
	if err != nil {
		t.Fatalf("CollectionURLs: %v", err)
	}
	if got := site.session.Navigations[0]; got != "https://www.ancestry.co.uk/search/collections/1234/" {
		t.Errorf("navigated to %q", got)
	}
	if urls.URLCount() != 4 {
		t.Errorf("expected 4 urls, got %d", urls.URLCount())
	}
}

func TestCollectionURLs_NoBrowseBox(t *testing.T) {
	site := countyParishSite()
	site.session.Unhandle(DefaultLocators().BrowseBox.Expr)
	s := authenticatedScraper(site)

	_, err := s.CollectionURLs(context.Background(), "9999")
	if !errors.IsKind(err, errors.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestCollectionURLs_RequiresSignIn(t *testing.T) {
	site := countyParishSite()
	s := New(site.session, testOptions())

	_, err := s.CollectionURLs(context.Background(), "1234")
	if !errors.IsKind(err, errors.KindAuthentication) {
		t.Errorf("expected authentication failure, got %v", err)
	}
	if len(site.session.Navigations) != 0 {
		t.Error("should not navigate before signing in")
	}
}

func TestCollectURLs_UnknownPageURL(t *testing.T) {
	site := countyParishSite()
	site.sel[1], site.sel[2] = 1, 1
	site.session.URLErr = errors.New("target closed")

	var logs bytes.Buffer
	logger, _ := utils.NewLoggerFromConfig(utils.LogConfig{Level: "debug"}, &logs)
	s := New(site.session, testOptions(), WithLogger(logger))
	s.authenticated = true

	links := s.CollectURLs(context.Background(), 2)
	want := dataset.Links{
		{Label: "1813-1850", URL: "/imageviewer/collections/1234/images/Ash-1"},
		{Label: "1851-1900", URL: "https://www.ancestry.co.uk/imageviewer/collections/1234/images/Ash-2"},
	}
	if diff := cmp.Diff(want, links); diff != "" {
		t.Errorf("links mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(logs.String(), "target closed") {
		t.Errorf("expected the URL failure to be logged, got: %s", logs.String())
	}
}

func TestCollectURLs_MissingLinkYieldsEmpty(t *testing.T) {
	site := countyParishSite()
	site.sel[1], site.sel[2] = 1, 1
	s := authenticatedScraper(site)

	links := s.CollectURLs(context.Background(), 2)
	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %v", links)
	}

	site.session.Handle(DefaultLocators().ResultItems.Format(2).Expr, func() []*browsertest.Element {
		return []*browsertest.Element{{Name: "li without anchor"}}
	})
	if links := s.CollectURLs(context.Background(), 2); links == nil || len(links) != 0 {
		t.Errorf("expected empty non-nil links, got %#v", links)
	}
}
