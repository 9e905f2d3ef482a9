// internal/output/urlmap.go - persisted collection URL maps
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/valpere/parishscraper/internal/dataset"
)

// SaveURLMap writes m as indented JSON.
func SaveURLMap(path string, m *dataset.URLMap) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode URL map: %w", err)
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// LoadURLMap reads a map written by SaveURLMap.
func LoadURLMap(path string) (*dataset.URLMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read URL map: %w", err)
	}
	m := dataset.NewURLMap()
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to parse URL map %s: %w", path, err)
	}
	return m, nil
}

// PartitionPath names share i (1-based) of n: urls.json becomes urls-2-of-4.json.
func PartitionPath(path string, i, n int) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s-%d-of-%d%s", strings.TrimSuffix(path, ext), i, n, ext)
}

// SavePartitions splits m into n shares and writes each next to path.
// It returns the written file names in order.
func SavePartitions(path string, m *dataset.URLMap, n int) ([]string, error) {
	parts, err := m.Partition(n)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(parts))
	for i, part := range parts {
		names[i] = PartitionPath(path, i+1, n)
		if err := SaveURLMap(names[i], part); err != nil {
			return nil, err
		}
	}
	return names, nil
}
