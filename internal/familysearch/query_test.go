// internal/familysearch/query_test.go
package familysearch

import (
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuildQueryURL(t *testing.T) {
	raw := BuildQueryURL(DefaultOptions().SearchURL, "Ash, Kent, England", 1850, 200)
	if !strings.HasPrefix(raw, "https://www.familysearch.org/search/record/results/?") {
		t.Fatalf("unexpected base: %s", raw)
	}

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	want := url.Values{
		"q.deathLikePlace":                {"Ash, Kent, England"},
		"q.deathLikePlace.exact":          {"on"},
		"q.deathLikeDate.from":            {"1850"},
		"q.deathLikeDate.to":              {"1850"},
		"m.defaultFacets":                 {"on"},
		"m.queryRequireDefault":           {"on"},
		"m.facetNestCollectionInCategory": {"on"},
		"count":                           {"100"},
		"offset":                          {"200"},
	}
	if diff := cmp.Diff(want, u.Query()); diff != "" {
		t.Errorf("query mismatch (-want +got):\n%s", diff)
	}
}

func TestParseResultCount(t *testing.T) {
	tests := []struct {
		text string
		want int
		ok   bool
	}{
		{"1-100 of 1,234 Results", 1234, true},
		{"of 57 Results", 57, true},
		{"Showing 1-20 of 12,345,678 Results for Ash", 12345678, true},
		{"No results", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseResultCount(tt.text)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseResultCount(%q) = %d, %v; want %d, %v", tt.text, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMaxOffset(t *testing.T) {
	tests := map[int]int{0: 0, 57: 0, 99: 0, 100: 100, 250: 200, 1234: 1200}
	for total, want := range tests {
		if got := MaxOffset(total); got != want {
			t.Errorf("MaxOffset(%d) = %d, want %d", total, got, want)
		}
	}
}

func TestCursor_VisitsEveryOffset(t *testing.T) {
	c := NewCursor(1850)
	if c.Known() {
		t.Fatal("new cursor should not know its total")
	}
	c.SetTotal(1234)

	var offsets []int
	for {
		offsets = append(offsets, c.Offset)
		if !c.Advance() {
			break
		}
	}
	if len(offsets) != 13 || offsets[0] != 0 || offsets[12] != 1200 {
		t.Errorf("offsets = %v", offsets)
	}
	if c.Offset != 1300 {
		t.Errorf("cursor should stop at 1300, got %d", c.Offset)
	}
}
