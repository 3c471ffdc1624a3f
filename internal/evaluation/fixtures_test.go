package evaluation

import "time"

// gt builds a bird tag on a 1SPT task of recording rec in project 1,
// location 1.
func gt(rec, task int64, species string) GroundTruthEvent {
	return GroundTruthEvent{
		ProjectID:    1,
		LocationID:   1,
		RecordingID:  rec,
		TaskID:       task,
		SpeciesCode:  species,
		Category:     CategoryBird,
		TaskDuration: 180,
		TaskMethod:   MethodPerTask,
		Location:     "L1",
	}
}

// det builds a classifier detection for recording rec in project 1,
// location 1.
func det(rec int64, species string, confidence, start float64) DetectionEvent {
	return DetectionEvent{
		ProjectID:                 1,
		LocationID:                1,
		RecordingID:               rec,
		SpeciesCode:               species,
		Confidence:                confidence,
		StartOffset:               start,
		IsSpeciesAllowedInProject: true,
		Location:                  "L1",
		RecordingDateTime:         time.Date(2024, 5, 1, 5, 0, 0, 0, time.UTC).Add(time.Duration(rec) * time.Hour),
	}
}

// scenarioA is the two-recording evaluation fixture: A@R1 matched, A@R2
// unmatched and B@R2 matched below most thresholds.
func scenarioA() Reports {
	return Reports{
		Main: []GroundTruthEvent{
			gt(1, 11, "A"),
			gt(2, 21, "B"),
		},
		Classifier: []DetectionEvent{
			det(1, "A", 60, 10),
			det(2, "A", 90, 20),
			det(2, "B", 40, 30),
		},
	}
}
