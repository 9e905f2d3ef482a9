// internal/dataset/urlmap.go - navigation paths and the result URL map
package dataset

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Step is one selector level's contribution to a path.
type Step struct {
	Label  string `json:"label"`
	Option string `json:"option"`
}

// Path is an ordered selection, outermost level first.
type Path []Step

// Extend returns a new path with step appended; p is never modified.
func (p Path) Extend(step Step) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, step)
}

// Options returns the option names in order.
func (p Path) Options() []string {
	out := make([]string, len(p))
	for i, s := range p {
		out[i] = s.Option
	}
	return out
}

// Key is a stable identity for map lookups.
func (p Path) Key() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.Label + "\x1e" + s.Option
	}
	return strings.Join(parts, "\x1f")
}

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.Option
	}
	return strings.Join(parts, " > ")
}

// Link is one date-range entry found at a leaf.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Links is an ordered label → URL mapping with unique labels.
type Links []Link

// Set adds or replaces the URL for label, keeping the first position.
func (l Links) Set(label, url string) Links {
	for i := range l {
		if l[i].Label == label {
			l[i].URL = url
			return l
		}
	}
	return append(l, Link{Label: label, URL: url})
}

// Lookup returns the URL stored for label.
func (l Links) Lookup(label string) (string, bool) {
	for _, link := range l {
		if link.Label == label {
			return link.URL, true
		}
	}
	return "", false
}

// Entry pairs a completed path with the links found at its leaf.
type Entry struct {
	Path  Path  `json:"path"`
	Links Links `json:"links"`
}

// URLMap maps navigation paths to the detail URLs found at each leaf,
// in insertion order.
type URLMap struct {
	entries []Entry
	index   map[string]int
}

// NewURLMap creates an empty map.
func NewURLMap() *URLMap {
	return &URLMap{index: make(map[string]int)}
}

// Put stores links for path, replacing any earlier value for the same path.
func (m *URLMap) Put(path Path, links Links) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	key := path.Key()
	if i, ok := m.index[key]; ok {
		m.entries[i].Links = links
		return
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, Entry{Path: path, Links: links})
}

// Get returns the links stored for path.
func (m *URLMap) Get(path Path) (Links, bool) {
	i, ok := m.index[path.Key()]
	if !ok {
		return nil, false
	}
	return m.entries[i].Links, true
}

// Len returns the number of paths.
func (m *URLMap) Len() int { return len(m.entries) }

// URLCount returns the number of detail URLs across all paths.
func (m *URLMap) URLCount() int {
	n := 0
	for _, e := range m.entries {
		n += len(e.Links)
	}
	return n
}

// Entries returns the entries in insertion order.
func (m *URLMap) Entries() []Entry {
	return append([]Entry(nil), m.entries...)
}

// SortedBySize returns the entries ordered by ascending link count; ties keep
// insertion order.
func (m *URLMap) SortedBySize() []Entry {
	out := m.Entries()
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].Links) < len(out[j].Links)
	})
	return out
}

// Partition deals the entries, smallest first, round-robin into n maps so
// each share carries a similar number of detail pages.
func (m *URLMap) Partition(n int) ([]*URLMap, error) {
	if n < 1 {
		return nil, fmt.Errorf("partition count must be positive, got %d", n)
	}
	parts := make([]*URLMap, n)
	for i := range parts {
		parts[i] = NewURLMap()
	}
	for i, e := range m.SortedBySize() {
		parts[i%n].Put(e.Path, e.Links)
	}
	return parts, nil
}

func (m *URLMap) MarshalJSON() ([]byte, error) {
	entries := m.entries
	if entries == nil {
		entries = []Entry{}
	}
	return json.Marshal(entries)
}

func (m *URLMap) UnmarshalJSON(data []byte) error {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	m.entries = nil
	m.index = make(map[string]int, len(entries))
	for _, e := range entries {
		m.Put(e.Path, e.Links)
	}
	return nil
}
