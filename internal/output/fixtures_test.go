// internal/output/fixtures_test.go
package output

import "github.com/valpere/parishscraper/internal/dataset"

// burials is a small table with a missing cell and text that needs quoting.
func burials() *dataset.Table {
	return &dataset.Table{
		Columns: []string{"Parish", "Name", "Date"},
		Rows: []dataset.Row{
			{dataset.Text("Ash"), dataset.Text("Ann Smith"), dataset.Text("1850")},
			{dataset.Text("Ash"), dataset.Text("Bob \"Jr\", Hill"), dataset.NA},
			{dataset.Text("Wye"), dataset.NA, dataset.Text("1851")},
		},
	}
}
