package ui

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/brogergvhs/reciterd/internal/harvest"
)

// ProgressManager draws one bar per listing page.
type ProgressManager struct {
	p *mpb.Progress
}

func NewProgressManager(w io.Writer) *ProgressManager {
	p := mpb.New(
		mpb.WithWidth(40),
		mpb.WithOutput(w),
		mpb.WithRefreshRate(120*time.Millisecond),
	)
	return &ProgressManager{p: p}
}

func (pm *ProgressManager) Close() {
	pm.p.Wait()
}

// ForPage matches harvest.Options.Progress.
func (pm *ProgressManager) ForPage(page int) harvest.Progress {
	return pm.Register(fmt.Sprintf("page %-3d", page))
}

func (pm *ProgressManager) Register(prefix string) *ProgressHandle {
	h := &ProgressHandle{
		pm:     pm,
		prefix: prefix,
	}
	h.initBar()
	return h
}

type ProgressHandle struct {
	pm     *ProgressManager
	prefix string
	bar    *mpb.Bar

	total int64
	bytes atomic.Int64

	start   time.Time
	elapsed atomic.Int64

	final atomic.Bool
}

func (h *ProgressHandle) initBar() {
	h.start = time.Now()

	h.bar = h.pm.p.New(
		0,
		mpb.BarStyle().Rbound("]"),

		mpb.PrependDecorators(
			decor.Name(h.prefix+"  "),
		),

		mpb.AppendDecorators(
			decor.CountersNoUnit("%d/%d images", decor.WCSyncWidth),
			decor.Any(func(_ decor.Statistics) string {
				return " | " + HumanBytes(h.bytes.Load())
			}),
			decor.Any(func(_ decor.Statistics) string {
				if h.final.Load() {
					return fmt.Sprintf(" | %ds", h.elapsed.Load())
				}
				return fmt.Sprintf(" | %ds", int(time.Since(h.start).Seconds()))
			}),
		),
	)
}

func (h *ProgressHandle) SetTotal(total int) {
	if h.final.Load() {
		return
	}

	atomic.StoreInt64(&h.total, int64(total))
	h.bar.SetTotal(int64(total), false)
}

func (h *ProgressHandle) Update(done int, bytes int64) {
	if h.final.Load() {
		return
	}

	h.bytes.Store(bytes)
	h.bar.SetCurrent(int64(done))
}

func (h *ProgressHandle) MarkDone() {
	if h.final.Swap(true) {
		return
	}

	h.elapsed.Store(int64(time.Since(h.start).Seconds()))
	total := atomic.LoadInt64(&h.total)
	h.bar.SetCurrent(total)
	h.bar.SetTotal(total, true)
}
