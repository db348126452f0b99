package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// DocumentID is opaque to the client. The service emits integers today, but
// strings are accepted so the client never does arithmetic on ids.
type DocumentID string

func (id *DocumentID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = DocumentID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("document id: %w", err)
	}
	*id = DocumentID(n.String())
	return nil
}

func (id DocumentID) String() string {
	return string(id)
}

// DocumentRecord is one classified document as returned by the service.
// Confidence is a percentage for list responses and a fraction for the
// upload response.
type DocumentRecord struct {
	ID              DocumentID         `json:"id,omitempty"`
	Filename        string             `json:"filename"`
	Classification  string             `json:"classification"`
	Confidence      float64            `json:"confidence"`
	UploadTimestamp string             `json:"upload_timestamp"`
	AllScores       map[string]float64 `json:"all_scores,omitempty"`
	DownloadRef     string             `json:"s3_url,omitempty"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999Z",
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// UploadedAt parses UploadTimestamp. The service is not consistent about the
// trailing zone designator, so a few layouts are tried.
func (d DocumentRecord) UploadedAt() (time.Time, bool) {
	raw := strings.TrimSpace(d.UploadTimestamp)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// DocumentPage is one validated page of the document history.
type DocumentPage struct {
	Page       int              `json:"page"`
	TotalPages int              `json:"total_pages"`
	Documents  []DocumentRecord `json:"documents"`
}

// RawDocumentPage is the list response before element validation.
type RawDocumentPage struct {
	Documents  json.RawMessage `json:"documents"`
	TotalPages int             `json:"totalPages"`
}

// ClassificationResult is what the result view shows after a classify call.
// Scores are fractions in [0,1].
type ClassificationResult struct {
	Category  string             `json:"category"`
	AllScores map[string]float64 `json:"all_scores"`
	Document  DocumentRecord     `json:"document"`
}

// PendingFile is a file chosen for classification but not yet uploaded.
type PendingFile struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}
