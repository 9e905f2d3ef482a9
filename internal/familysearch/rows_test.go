// internal/familysearch/rows_test.go
package familysearch

import "testing"

func TestIsBurial(t *testing.T) {
	tests := map[string]bool{
		"Burial":             true,
		"burial":             true,
		"BURIAL":             true,
		" Burial ":           true,
		"Burial (Cremation)": true,
		"Death":              false,
		"Reburial":           false,
		"Christening":        false,
		"":                   false,
	}
	for in, want := range tests {
		if got := IsBurial(in); got != want {
			t.Errorf("IsBurial(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFirstBurial(t *testing.T) {
	events := []Event{
		{Type: "Death", Date: "1 Jan 1850"},
		{Type: "Burial", Date: "4 Jan 1850", Place: "Ash"},
		{Type: "burial", Date: "9 Jan 1850", Place: "Wye"},
	}
	got, ok := FirstBurial(events)
	if !ok || got.Date != "4 Jan 1850" || got.Place != "Ash" {
		t.Errorf("FirstBurial = %+v, %v", got, ok)
	}
	if _, ok := FirstBurial(events[:1]); ok {
		t.Error("expected no burial")
	}
}
