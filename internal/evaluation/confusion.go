package evaluation

import (
	"slices"
)

// ConfusionRow is one key of the outer join between classifier output and
// ground truth. Exactly one of TP, FP and FN is set.
type ConfusionRow struct {
	Key        AggregationKey
	Human      int
	Classifier int

	// Confidence is only meaningful when HasConfidence is true.
	Confidence    float64
	HasConfidence bool

	TP int
	FP int
	FN int
}

// ConfusionMatrix holds the joined rows and the threshold-independent
// count of ground-truth occurrences.
type ConfusionMatrix struct {
	Rows       []ConfusionRow
	HumanTotal int
}

// MatrixCounts summarizes a matrix before any threshold is applied.
type MatrixCounts struct {
	TP, FP, FN int
}

// Counts returns TP, FP and FN totals over all rows.
func (m *ConfusionMatrix) Counts() MatrixCounts {
	var c MatrixCounts
	for i := range m.Rows {
		c.TP += m.Rows[i].TP
		c.FP += m.Rows[i].FP
		c.FN += m.Rows[i].FN
	}
	return c
}

// BuildConfusionMatrix full outer joins aggregated detections with
// normalized ground truth on their keys. A non-empty species list restricts
// both sides to those species first. Rows are sorted by key.
func BuildConfusionMatrix(detections []AggregatedDetection, human []AggregationKey, species []string) *ConfusionMatrix {
	allowed := speciesSet(species)
	keep := func(code string) bool {
		if allowed == nil {
			return true
		}
		_, ok := allowed[code]
		return ok
	}

	humanKeys := make(map[AggregationKey]struct{}, len(human))
	for _, key := range human {
		if keep(key.SpeciesCode) {
			humanKeys[key] = struct{}{}
		}
	}

	rows := make([]ConfusionRow, 0, len(detections)+len(humanKeys))
	matched := make(map[AggregationKey]struct{}, len(humanKeys))

	for _, det := range detections {
		if !keep(det.Key.SpeciesCode) {
			continue
		}

		row := ConfusionRow{
			Key:           det.Key,
			Classifier:    1,
			Confidence:    det.Confidence,
			HasConfidence: true,
		}
		if _, ok := humanKeys[det.Key]; ok {
			matched[det.Key] = struct{}{}
			row.Human = 1
			row.TP = 1
		} else {
			row.FP = 1
		}
		rows = append(rows, row)
	}

	for key := range humanKeys {
		if _, ok := matched[key]; ok {
			continue
		}
		rows = append(rows, ConfusionRow{Key: key, Human: 1, FN: 1})
	}

	slices.SortFunc(rows, func(a, b ConfusionRow) int {
		return compareKeys(a.Key, b.Key)
	})

	return &ConfusionMatrix{Rows: rows, HumanTotal: len(humanKeys)}
}

func speciesSet(species []string) map[string]struct{} {
	if len(species) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(species))
	for _, s := range species {
		set[s] = struct{}{}
	}
	return set
}
