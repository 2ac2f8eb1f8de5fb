// Package dispatcher turns incoming links into share resolutions and applies
// them to the session, one at a time.
package dispatcher

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/ichi0g0y/luckydraw/internal/appstate"
	"github.com/ichi0g0y/luckydraw/internal/deeplink"
	"github.com/ichi0g0y/luckydraw/internal/share"
	"github.com/ichi0g0y/luckydraw/internal/shared/logger"
	"go.uber.org/zap"
)

// Source tells how a link reached the app.
type Source string

const (
	SourceColdStart Source = "cold_start"
	SourceEvent     Source = "event"
	SourceWeb       Source = "web"
)

// ユーザー向けの通知文言
const (
	NoticeTitleLoadFailed = "載入失敗"
	NoticeNotFound        = "找不到分享的內容"
	NoticeLoadError       = "無法載入分享的內容"
)

var ErrStopped = errors.New("dispatcher stopped")

const defaultQueueSize = 16

// Notice is a user-visible message.
type Notice struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	ShareID string `json:"shareId,omitempty"`
}

type Notifier interface {
	Notify(Notice)
}

// URLRewriter replaces the visible page URL without adding a history entry.
type URLRewriter interface {
	ReplaceURL(path string)
}

type Resolver interface {
	Resolve(ctx context.Context, id string) (share.Resolution, error)
}

// StateApplier is the part of the session store the dispatcher drives.
type StateApplier interface {
	BeginLoading()
	EndLoading()
	ApplyShare(res share.Resolution) appstate.State
}

// Outcome is delivered once per accepted link. Status is meaningful only when Err is nil.
type Outcome struct {
	ShareID string
	Source  Source
	Status  share.Status
	Err     error
}

type job struct {
	id     string
	source Source
	done   chan Outcome
}

// Dispatcher processes at most one resolution at a time. A link whose id is
// already queued or resolving is dropped.
type Dispatcher struct {
	resolver Resolver
	state    StateApplier
	notifier Notifier

	queue    chan job
	mu       sync.Mutex
	pending  map[string]bool
	stopped  bool
	launched atomic.Bool
}

func New(resolver Resolver, state StateApplier, notifier Notifier) *Dispatcher {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Dispatcher{
		resolver: resolver,
		state:    state,
		notifier: notifier,
		queue:    make(chan job, defaultQueueSize),
		pending:  map[string]bool{},
	}
}

// Launch handles the link the app was started with (mobile cold start).
// Only the first launch call of a session is honored.
func (d *Dispatcher) Launch(initialURL string) (<-chan Outcome, bool) {
	if initialURL == "" || !d.launched.CompareAndSwap(false, true) {
		return nil, false
	}
	id, ok := deeplink.Extract(initialURL)
	if !ok {
		return nil, false
	}
	return d.Submit(id, SourceColdStart)
}

// LaunchWeb handles a page load. When a share is referenced the visible URL
// is replaced with "/" before resolution starts.
func (d *Dispatcher) LaunchWeb(query url.Values, path string, rewriter URLRewriter) (string, <-chan Outcome, bool) {
	id, ok := deeplink.FromWebLaunch(query, path)
	if !ok {
		return "", nil, false
	}
	if rewriter != nil {
		rewriter.ReplaceURL("/")
	}
	done, accepted := d.Submit(id, SourceWeb)
	return id, done, accepted
}

// HandleURL handles a link event received while running. URLs without a
// share reference are ignored.
func (d *Dispatcher) HandleURL(raw string) (string, <-chan Outcome, bool) {
	id, ok := deeplink.Extract(raw)
	if !ok {
		logger.Debug("Ignoring link without share reference", zap.String("url", raw))
		return "", nil, false
	}
	done, accepted := d.Submit(id, SourceEvent)
	return id, done, accepted
}

// Submit queues id. It returns false when id is already pending, the queue is
// full, or Run has returned.
func (d *Dispatcher) Submit(id string, source Source) (<-chan Outcome, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		logger.Debug("Link dispatcher stopped, dropping link", zap.String("share_id", id), zap.String("source", string(source)))
		return nil, false
	}
	if d.pending[id] {
		logger.Debug("Share already pending, dropping link", zap.String("share_id", id), zap.String("source", string(source)))
		return nil, false
	}

	j := job{id: id, source: source, done: make(chan Outcome, 1)}
	select {
	case d.queue <- j:
		d.pending[id] = true
		return j.done, true
	default:
		logger.Warn("Link queue full, dropping link", zap.String("share_id", id))
		return nil, false
	}
}

// Run processes queued links until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.mu.Lock()
	d.stopped = false
	d.mu.Unlock()

	logger.Info("Link dispatcher started")
	for {
		select {
		case <-ctx.Done():
			// 以降の Submit を断ってから残りを片付ける
			d.mu.Lock()
			d.stopped = true
			d.mu.Unlock()
			d.drain()
			logger.Info("Link dispatcher stopped")
			return nil
		case j := <-d.queue:
			if ctx.Err() != nil {
				d.finish(j, stoppedOutcome(j))
				continue
			}
			d.process(ctx, j)
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case j := <-d.queue:
			d.finish(j, stoppedOutcome(j))
		default:
			return
		}
	}
}

func stoppedOutcome(j job) Outcome {
	return Outcome{ShareID: j.id, Source: j.source, Status: share.StatusNotFound, Err: ErrStopped}
}

func (d *Dispatcher) process(ctx context.Context, j job) {
	d.state.BeginLoading()
	defer d.state.EndLoading()

	logger.Info("Resolving shared link", zap.String("share_id", j.id), zap.String("source", string(j.source)))
	res, err := d.resolver.Resolve(ctx, j.id)
	out := Outcome{ShareID: j.id, Source: j.source, Status: res.Status, Err: err}

	switch {
	case err != nil:
		logger.Error("Failed to load shared content", zap.String("share_id", j.id), zap.Error(err))
		d.notifier.Notify(Notice{Title: NoticeTitleLoadFailed, Message: NoticeLoadError, ShareID: j.id})
	case res.Status == share.StatusNotFound:
		d.notifier.Notify(Notice{Title: NoticeTitleLoadFailed, Message: NoticeNotFound, ShareID: j.id})
	default:
		d.state.ApplyShare(res)
		logger.Info("Share loaded", zap.String("share_id", j.id), zap.String("type", string(res.GameType)))
	}

	d.finish(j, out)
}

func (d *Dispatcher) finish(j job, out Outcome) {
	d.mu.Lock()
	delete(d.pending, j.id)
	d.mu.Unlock()
	j.done <- out
}

// LogNotifier writes notices to the log.
type LogNotifier struct{}

func (LogNotifier) Notify(n Notice) {
	logger.Warn(n.Title, zap.String("message", n.Message), zap.String("share_id", n.ShareID))
}
