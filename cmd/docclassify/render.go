package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/kirillkom/document-classifier-client/internal/core/domain"
	"github.com/kirillkom/document-classifier-client/internal/core/usecase"
)

const timestampLayout = "2006-01-02 15:04:05"

func formatTimestamp(doc domain.DocumentRecord) string {
	ts, ok := doc.UploadedAt()
	if !ok {
		return "Invalid Date"
	}
	return ts.Local().Format(timestampLayout)
}

func renderResult(w io.Writer, result domain.ClassificationResult, rows []usecase.ScoreRow) {
	fmt.Fprintf(w, "Category: %s\n\n", result.Category)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tSCORE")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", row.Category, row.Percent)
	}
	_ = tw.Flush()
}

func renderHistory(w io.Writer, page domain.PageState, docs []domain.DocumentRecord) {
	if len(docs) == 0 {
		fmt.Fprintln(w, "No documents yet.")
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tFILENAME\tCATEGORY\tCONFIDENCE\tUPLOADED")
		for _, doc := range docs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f%%\t%s\n",
				doc.ID, doc.Filename, doc.Classification, doc.Confidence, formatTimestamp(doc))
		}
		_ = tw.Flush()
	}
	fmt.Fprintf(w, "\nPage %d of %d\n", page.CurrentPage, page.TotalPages)
}

func renderStats(w io.Writer, summary domain.StatsSummary) {
	fmt.Fprintf(w, "Documents: %d\n", summary.Total)
	fmt.Fprintf(w, "Average confidence: %.2f%%\n\n", summary.AverageConfidence)
	if len(summary.Distribution) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tDOCUMENTS")
	for _, entry := range summary.Distribution {
		fmt.Fprintf(tw, "%s\t%d\n", entry.Label, entry.Count)
	}
	_ = tw.Flush()
}
