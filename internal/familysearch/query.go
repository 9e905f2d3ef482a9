// internal/familysearch/query.go - result query URLs and offset cursor
package familysearch

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// PageSize is the number of results the search returns per offset.
const PageSize = 100

// BuildQueryURL returns the burial search for place in a single year,
// starting at offset.
func BuildQueryURL(base, place string, year, offset int) string {
	params := url.Values{}
	params.Set("q.deathLikePlace", place)
	params.Set("q.deathLikePlace.exact", "on")
	params.Set("q.deathLikeDate.from", strconv.Itoa(year))
	params.Set("q.deathLikeDate.to", strconv.Itoa(year))
	params.Set("m.defaultFacets", "on")
	params.Set("m.queryRequireDefault", "on")
	params.Set("m.facetNestCollectionInCategory", "on")
	params.Set("count", strconv.Itoa(PageSize))
	params.Set("offset", strconv.Itoa(offset))

	if !strings.HasSuffix(base, "?") {
		base += "?"
	}
	return base + params.Encode()
}

var resultCountPattern = regexp.MustCompile(`of ([0-9]+) Results`)

// ParseResultCount extracts N from text such as "1-100 of 1,234 Results".
func ParseResultCount(text string) (int, bool) {
	m := resultCountPattern.FindStringSubmatch(strings.ReplaceAll(text, ",", ""))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// MaxOffset is the offset of the last result page for total results.
func MaxOffset(total int) int {
	if total <= 0 {
		return 0
	}
	return PageSize * (total / PageSize)
}

// Cursor tracks the position within one year's results.
type Cursor struct {
	Year      int
	Offset    int
	MaxOffset int
	known     bool
}

func NewCursor(year int) *Cursor {
	return &Cursor{Year: year}
}

// Known reports whether the result count has been read for this year.
func (c *Cursor) Known() bool { return c.known }

// SetTotal records the year's result count.
func (c *Cursor) SetTotal(total int) {
	c.MaxOffset = MaxOffset(total)
	c.known = true
}

// Advance moves to the next page and reports whether it is still in range.
func (c *Cursor) Advance() bool {
	c.Offset += PageSize
	return c.Offset <= c.MaxOffset
}
