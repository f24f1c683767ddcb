package harvest

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	DefaultImagePause = 1 * time.Second
	DefaultPagePause  = 2 * time.Second
	DefaultCacheSize  = 1024
)

// Logger is the logging surface the harvester needs.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// Progress reports how far a single page has got.
type Progress interface {
	SetTotal(total int)
	Update(done int, bytes int64)
	MarkDone()
}

type Options struct {
	BaseURL    string
	MaxPages   int // 0 means no limit
	PageSuffix string
	PathPrefix string
	AllowExt   []string

	ImagePause time.Duration
	PagePause  time.Duration
	CacheSize  int
	DryRun     bool
	RunID      string

	Logger   Logger
	Metrics  *Metrics
	Progress func(page int) Progress
	Pause    func(ctx context.Context, d time.Duration) error
}

// DefaultOptions returns the options used by the CLI when nothing is set.
func DefaultOptions(baseURL string) Options {
	return Options{
		BaseURL:    baseURL,
		PageSuffix: DefaultPageSuffix,
		PathPrefix: DefaultPathPrefix,
		AllowExt:   DefaultAllowExt,
		ImagePause: DefaultImagePause,
		PagePause:  DefaultPagePause,
		CacheSize:  DefaultCacheSize,
	}
}

type Harvester struct {
	fetcher Fetcher
	store   Store
	opts    Options
	log     Logger
	allow   []string
	cache   *lru.Cache[string, Outcome]
}

func New(fetcher Fetcher, store Store, opts Options) (*Harvester, error) {
	if fetcher == nil {
		return nil, errors.New("harvest: nil fetcher")
	}
	if store == nil {
		return nil, errors.New("harvest: nil store")
	}

	u, err := url.Parse(opts.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("harvest: invalid base url %q", opts.BaseURL)
	}
	if opts.MaxPages < 0 {
		return nil, fmt.Errorf("harvest: max pages must be >= 0, got %d", opts.MaxPages)
	}

	if opts.PageSuffix == "" {
		opts.PageSuffix = DefaultPageSuffix
	}
	if opts.PathPrefix == "" {
		opts.PathPrefix = DefaultPathPrefix
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	if opts.Pause == nil {
		opts.Pause = sleepCtx
	}

	allow := NormalizeExtList(opts.AllowExt)
	if len(allow) == 0 {
		allow = DefaultAllowExt
	}

	cache, err := lru.New[string, Outcome](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("harvest: url cache: %w", err)
	}

	return &Harvester{
		fetcher: fetcher,
		store:   store,
		opts:    opts,
		log:     opts.Logger,
		allow:   allow,
		cache:   cache,
	}, nil
}

func (h *Harvester) RunID() string { return h.opts.RunID }

// Run walks the listing pages until one is empty, fails, the page limit is
// reached or ctx is cancelled. It never returns an error: problems are
// logged and counted in the returned Summary.
func (h *Harvester) Run(ctx context.Context) Summary {
	sum := Summary{RunID: h.opts.RunID, Started: time.Now()}

	for n := 1; ; n++ {
		if ctx.Err() != nil {
			sum.StopReason = StopCancelled
			break
		}

		page := Page{Number: n, URL: PageURL(h.opts.BaseURL, h.opts.PageSuffix, n)}
		h.log.Infof("Page %d: %s", page.Number, page.URL)

		sum.PageRequests++
		baseURL, cands, err := h.scanPage(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				sum.StopReason = StopCancelled
				break
			}
			h.opts.Metrics.IncPage("error")
			h.opts.Metrics.IncError(ErrorType(err))
			h.log.Errorf("Page %d failed (%s): %v", page.Number, ErrorType(err), err)
			sum.StopReason = StopPageError
			break
		}

		if len(cands) == 0 {
			h.opts.Metrics.IncPage("empty")
			h.log.Infof("Page %d has no portraits, stopping", page.Number)
			sum.StopReason = StopEmptyPage
			break
		}
		h.opts.Metrics.IncPage("ok")
		h.log.Debugf("Page %d: %d candidates", page.Number, len(cands))

		rep := h.processPage(ctx, page, baseURL, cands)
		sum.add(rep)
		h.logReport(rep)

		if ctx.Err() != nil {
			sum.StopReason = StopCancelled
			break
		}
		if h.opts.MaxPages > 0 && n >= h.opts.MaxPages {
			sum.StopReason = StopMaxPages
			break
		}
		if err := h.opts.Pause(ctx, h.opts.PagePause); err != nil {
			sum.StopReason = StopCancelled
			break
		}
	}

	sum.Finished = time.Now()
	return sum
}

// scanPage fetches a listing page and returns the URL relative sources
// resolve against along with the portrait candidates.
func (h *Harvester) scanPage(ctx context.Context, page Page) (string, []Candidate, error) {
	resp, err := h.fetcher.Fetch(ctx, page.URL, AcceptHTML)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("parse page %d: %w", page.Number, err)
	}

	base := page.URL
	if resp.URL != "" {
		base = resp.URL
	}

	return base, ExtractCandidates(doc, h.opts.PathPrefix, page.Number), nil
}

func (h *Harvester) processPage(ctx context.Context, page Page, baseURL string, cands []Candidate) PageReport {
	rep := PageReport{Page: page.Number, URL: page.URL}

	var prog Progress
	if h.opts.Progress != nil {
		prog = h.opts.Progress(page.Number)
	}
	if prog != nil {
		prog.SetTotal(len(cands))
		defer prog.MarkDone()
	}

	for i, c := range cands {
		if ctx.Err() != nil {
			break
		}

		var onBytes func(int64)
		if prog != nil {
			done, before := i, rep.Bytes
			onBytes = func(n int64) { prog.Update(done, before+n) }
		}

		out, n := h.processCandidate(ctx, baseURL, c, onBytes)
		rep.Candidates++
		rep.record(out, n)
		h.opts.Metrics.IncOutcome(out)

		if prog != nil {
			prog.Update(i+1, rep.Bytes)
		}

		if out == Downloaded {
			_ = h.opts.Pause(ctx, h.opts.ImagePause)
		}
	}

	return rep
}

func (h *Harvester) processCandidate(ctx context.Context, baseURL string, c Candidate, onBytes func(int64)) (Outcome, int64) {
	imageURL := resolve(baseURL, c.Source)
	name := c.Filename(imageURL, h.allow)

	if h.opts.DryRun {
		h.log.Infof("Would download %s -> %s", imageURL, name)
		return Planned, 0
	}

	exists, err := h.store.Exists(name)
	if err != nil {
		h.log.Errorf("Checking %s: %v", name, err)
		h.opts.Metrics.IncError("io")
		return Failed, 0
	}
	if exists {
		h.log.Debugf("Skipping %s: already exists", name)
		return SkippedExisting, 0
	}

	if prev, ok := h.cache.Get(imageURL); ok {
		h.log.Debugf("Skipping %s: %s earlier in this run", imageURL, prev)
		return prev, 0
	}

	resp, err := h.fetcher.Fetch(ctx, imageURL, AcceptImage)
	if err != nil {
		if ctx.Err() == nil {
			h.cache.Add(imageURL, Failed)
		}
		h.opts.Metrics.IncError(ErrorType(err))
		h.log.Errorf("Fetching %s (%s): %v", imageURL, ErrorType(err), err)
		return Failed, 0
	}
	defer resp.Body.Close()

	if !isImage(resp.ContentType) {
		h.cache.Add(imageURL, SkippedNonImage)
		h.log.Warnf("Skipping %s: %v", imageURL, fmt.Errorf("%w (content type %q)", ErrNotImage, resp.ContentType))
		return SkippedNonImage, 0
	}

	n, err := h.store.Save(name, resp.Body, onBytes)
	if err != nil {
		h.opts.Metrics.IncError("io")
		h.log.Errorf("Saving %s: %v", name, err)
		return Failed, 0
	}

	h.opts.Metrics.AddBytes(n)
	h.log.Infof("Downloaded %s (%d bytes)", name, n)
	return Downloaded, n
}

func (h *Harvester) logReport(r PageReport) {
	if h.opts.DryRun {
		h.log.Infof("Page %d: %d candidates planned", r.Page, r.Planned)
		return
	}
	h.log.Infof(
		"Page %d done: %d downloaded, %d existing, %d non-image, %d failed",
		r.Page, r.Downloaded, r.SkippedExisting, r.SkippedNonImage, r.Failed,
	)
}

func isImage(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.HasPrefix(mt, "image/")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
