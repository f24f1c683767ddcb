package harvest

import "time"

// Outcome is what happened to a single candidate.
type Outcome int

const (
	Downloaded Outcome = iota
	SkippedExisting
	SkippedNonImage
	Failed
	Planned
)

func (o Outcome) String() string {
	switch o {
	case Downloaded:
		return "downloaded"
	case SkippedExisting:
		return "skipped-existing"
	case SkippedNonImage:
		return "skipped-non-image"
	case Failed:
		return "failed"
	case Planned:
		return "planned"
	default:
		return "unknown"
	}
}

// StopReason records why the page loop ended.
type StopReason string

const (
	StopEmptyPage StopReason = "empty-page"
	StopMaxPages  StopReason = "max-pages"
	StopPageError StopReason = "page-error"
	StopCancelled StopReason = "cancelled"
)

// PageReport holds the counts for one processed listing page.
type PageReport struct {
	Page            int
	URL             string
	Candidates      int
	Downloaded      int
	SkippedExisting int
	SkippedNonImage int
	Failed          int
	Planned         int
	Bytes           int64
}

func (r *PageReport) record(o Outcome, n int64) {
	switch o {
	case Downloaded:
		r.Downloaded++
		r.Bytes += n
	case SkippedExisting:
		r.SkippedExisting++
	case SkippedNonImage:
		r.SkippedNonImage++
	case Failed:
		r.Failed++
	case Planned:
		r.Planned++
	}
}

// Summary is the result of a whole run. Pages counts listing pages whose
// candidates were processed; PageRequests counts every listing fetch,
// including the empty or failing one that ended the run.
type Summary struct {
	RunID           string
	Pages           int
	PageRequests    int
	Candidates      int
	Downloaded      int
	SkippedExisting int
	SkippedNonImage int
	Failed          int
	Planned         int
	Bytes           int64
	Started         time.Time
	Finished        time.Time
	StopReason      StopReason
	Reports         []PageReport
}

// Skipped is the number of candidates left alone because the file existed.
func (s Summary) Skipped() int { return s.SkippedExisting }

func (s Summary) Duration() time.Duration {
	if s.Finished.IsZero() {
		return 0
	}
	return s.Finished.Sub(s.Started)
}

func (s *Summary) add(r PageReport) {
	s.Pages++
	s.Candidates += r.Candidates
	s.Downloaded += r.Downloaded
	s.SkippedExisting += r.SkippedExisting
	s.SkippedNonImage += r.SkippedNonImage
	s.Failed += r.Failed
	s.Planned += r.Planned
	s.Bytes += r.Bytes
	s.Reports = append(s.Reports, r)
}
