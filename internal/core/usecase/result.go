package usecase

import (
	"fmt"
	"sort"
)

// ScoreRow is one line of the result view. Fraction is in [0,1].
type ScoreRow struct {
	Category string  `json:"category"`
	Fraction float64 `json:"fraction"`
	Percent  string  `json:"percent"`
}

// RankScores lists every known category by descending score. Categories the
// classifier did not score show 0. When no catalog is known, the scored
// categories are listed by name before ranking.
func RankScores(categories []string, scores map[string]float64) []ScoreRow {
	names := categories
	if len(names) == 0 {
		names = make([]string, 0, len(scores))
		for name := range scores {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	rows := make([]ScoreRow, 0, len(names))
	for _, name := range names {
		fraction := scores[name]
		rows = append(rows, ScoreRow{
			Category: name,
			Fraction: fraction,
			Percent:  FormatPercent(fraction),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Fraction > rows[j].Fraction
	})
	return rows
}

// FormatPercent renders a fraction as a percentage with two decimals.
func FormatPercent(fraction float64) string {
	return fmt.Sprintf("%.2f%%", fraction*100)
}
