package ui

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/brogergvhs/reciterd/internal/harvest"
)

// PrintSummary writes the end-of-run report.
func PrintSummary(w io.Writer, s harvest.Summary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "\n===== HARVEST SUMMARY =====")
	fmt.Fprintf(tw, "Run:\t%s\n", s.RunID)
	fmt.Fprintf(tw, "Pages processed:\t%d (%d requested)\n", s.Pages, s.PageRequests)
	fmt.Fprintf(tw, "Candidates:\t%d\n", s.Candidates)
	if s.Planned > 0 {
		fmt.Fprintf(tw, "Planned:\t%d\n", s.Planned)
	}
	fmt.Fprintf(tw, "Downloaded:\t%d\n", s.Downloaded)
	fmt.Fprintf(tw, "Skipped (existing):\t%d\n", s.Skipped())
	fmt.Fprintf(tw, "Skipped (not an image):\t%d\n", s.SkippedNonImage)
	fmt.Fprintf(tw, "Failed:\t%d\n", s.Failed)
	fmt.Fprintf(tw, "Written:\t%s\n", HumanBytes(s.Bytes))
	fmt.Fprintf(tw, "Elapsed:\t%s\n", Elapsed(s.Duration()))
	fmt.Fprintf(tw, "Stopped:\t%s\n", s.StopReason)
	fmt.Fprintln(tw, "===========================")

	_ = tw.Flush()
}
