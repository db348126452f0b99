package domain

// StatEntry is the reduced projection of a document used for aggregates.
// Confidence is a percentage in [0,100].
type StatEntry struct {
	Classification  string  `json:"classification"`
	Confidence      float64 `json:"confidence"`
	UploadTimestamp string  `json:"upload_timestamp"`
}

type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type StatsSummary struct {
	Total             int          `json:"total"`
	AverageConfidence float64      `json:"average_confidence"`
	Distribution      []LabelCount `json:"distribution"`
}
