package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/angas/nmcweather-go/nmc"
)

var ErrBusy = errors.New("a refresh is already running")

type Fetcher interface {
	Fetch(ctx context.Context) (*nmc.Snapshot, error)
}

// Update is handed to listeners after a snapshot has been swapped in.
type Update struct {
	Current  *nmc.Snapshot
	Previous *nmc.Snapshot
}

// ImageChanged reports whether the image of kind has a new url or update
// time compared to the previous snapshot. Without a previous snapshot any
// image counts as changed.
func (u Update) ImageChanged(kind nmc.ImageKind) bool {
	return imageChanged(u.Current, u.Previous, kind)
}

func imageChanged(curr, prev *nmc.Snapshot, kind nmc.ImageKind) bool {
	if curr == nil {
		return false
	}
	img, ok := curr.Image(kind)
	if !ok {
		return false
	}
	if prev == nil {
		return true
	}
	old, ok := prev.Image(kind)
	if !ok {
		return true
	}
	return old.URL != img.URL || !old.UpdatedAt.Equal(img.UpdatedAt)
}

type Listener func(u Update)

type Status struct {
	LastAttempt time.Time
	LastSuccess time.Time
	LastError   error
}

func (s Status) Healthy() bool {
	return s.LastError == nil && !s.LastSuccess.IsZero()
}

// Coordinator owns the last snapshot of a station. Refreshes are serialized
// and a snapshot is only ever replaced as a whole.
type Coordinator struct {
	fetcher   Fetcher
	logger    *slog.Logger
	refreshMu sync.Mutex

	mu        sync.RWMutex
	current   *nmc.Snapshot
	previous  *nmc.Snapshot
	status    Status
	listeners []Listener
}

func New(fetcher Fetcher) *Coordinator {
	return &Coordinator{
		fetcher: fetcher,
		logger:  slog.Default().With("module", "coordinator"),
	}
}

// Seed installs a snapshot restored from storage. It does not notify
// listeners and does not count as a successful refresh.
func (c *Coordinator) Seed(s *nmc.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		c.current = s
	}
}

func (c *Coordinator) OnUpdate(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Refresh runs one fetch cycle. On failure the current snapshot is left
// untouched and the error is returned. ErrBusy is returned right away if
// another refresh is in progress.
func (c *Coordinator) Refresh(ctx context.Context) error {
	if !c.refreshMu.TryLock() {
		return ErrBusy
	}
	defer c.refreshMu.Unlock()

	started := time.Now()
	s, err := c.fetcher.Fetch(ctx)

	c.mu.Lock()
	c.status.LastAttempt = started
	c.status.LastError = err
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.previous, c.current = c.current, s
	c.status.LastSuccess = started
	u := Update{Current: c.current, Previous: c.previous}
	listeners := append([]Listener(nil), c.listeners...)
	c.mu.Unlock()

	c.logger.Debug("snapshot replaced", slog.String("station", s.Station.Code), slog.Duration("duration", time.Since(started)))

	for _, l := range listeners {
		l(u)
	}

	return nil
}

func (c *Coordinator) Current() *nmc.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

func (c *Coordinator) Previous() *nmc.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.previous
}

func (c *Coordinator) ImageChanged(kind nmc.ImageKind) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return imageChanged(c.current, c.previous, kind)
}

func (c *Coordinator) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}
