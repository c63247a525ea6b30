package corpus

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
)

// table is a parsed CSV file: header plus rows keyed by column name.
type table struct {
	columns []string
	rows    []map[string]string
}

func (t *table) empty() bool { return len(t.rows) == 0 }

// readTable parses a CSV file. Missing cells become empty strings.
func readTable(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // ragged rows tolerated

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	if len(records) == 0 {
		return &table{}, nil
	}

	columns := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(rec) {
				row[col] = rec[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return &table{columns: columns, rows: rows}, nil
}

// textColumnCandidates are checked in order before falling back to the
// longest-content heuristic.
var textColumnCandidates = []string{
	"text", "snippet_text", "simple_question", "question", "source", "content",
}

// chooseTextColumn picks the column holding the free-form text: a known name
// if present, otherwise the column with the greatest median value length.
func chooseTextColumn(t *table) string {
	if t.empty() {
		return ""
	}
	for _, c := range textColumnCandidates {
		for _, col := range t.columns {
			if col == c {
				return c
			}
		}
	}

	best, bestMedian := "", -1.0
	for _, col := range t.columns {
		lengths := make([]int, 0, len(t.rows))
		for _, row := range t.rows {
			lengths = append(lengths, len(row[col]))
		}
		m := median(lengths)
		if m > bestMedian {
			best, bestMedian = col, m
		}
	}
	return best
}

func median(vals []int) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := make([]int, len(vals))
	copy(sorted, vals)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return float64(sorted[mid-1]+sorted[mid]) / 2.0
	}
	return float64(sorted[mid])
}
