package transportboard

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/miaucl/swiss-transport-board/opendata"
)

// TransportClient abstracts the upstream fetch. The coordinator depends on
// the reshaped result only; transport and auth live in the client.
type TransportClient interface {
	Fetch(ctx context.Context) error
	Latest() ([]opendata.Connection, string, string)
}

// Update is the "data updated" notification delivered to subscribers.
// Err is non-nil when the poll behind it failed; the published ResultSet is
// then unchanged.
type Update struct {
	At  time.Time
	Err error
}

// Coordinator owns the poll timer and is the single source of truth for the
// latest fetched data. A refresh happens once on start and then on every
// tick; ticks are serialized by the single refresh goroutine, so polls never
// overlap. The published ResultSet is swapped atomically under the lock and
// kept as last-known-good across failed polls.
type Coordinator struct {
	client   TransportClient
	interval time.Duration
	now      func() time.Time

	mu          sync.RWMutex
	data        ResultSet
	lastUpdated time.Time
	lastErr     error

	subMu       sync.Mutex
	subscribers map[chan Update]struct{}
	cancel      context.CancelFunc
	done        chan struct{}
}

// NewCoordinator creates a coordinator polling at UpdateInterval.
func NewCoordinator(client TransportClient) *Coordinator {
	return &Coordinator{
		client:      client,
		interval:    UpdateInterval,
		now:         time.Now,
		subscribers: make(map[chan Update]struct{}),
	}
}

// RefreshOnce performs exactly one poll cycle: fetch, transform, publish.
// On failure the previous ResultSet stays published and subscribers receive
// an update-failed signal.
func (c *Coordinator) RefreshOnce(ctx context.Context) error {
	if err := c.client.Fetch(ctx); err != nil {
		log.Printf("unable to retrieve data from transport.opendata.ch: %v", err)
		err = fmt.Errorf("update failed: %w", err)

		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()

		c.notify(Update{At: c.now(), Err: err})
		return err
	}

	conns, from, to := c.client.Latest()
	rs := buildResultSet(conns, from, to, c.now())
	at := c.now()

	c.mu.Lock()
	c.data = rs
	c.lastUpdated = at
	c.lastErr = nil
	c.mu.Unlock()

	c.notify(Update{At: at})
	return nil
}

// Data returns the latest published ResultSet. Read-only for callers.
func (c *Coordinator) Data() ResultSet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data
}

// LastUpdated returns the time of the last successful refresh, zero before
// the first success.
func (c *Coordinator) LastUpdated() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastUpdated
}

// LastError returns the error of the most recent poll, nil after a success.
func (c *Coordinator) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Healthy reports whether the coordinator has data and the latest poll
// succeeded.
func (c *Coordinator) Healthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr == nil && !c.lastUpdated.IsZero()
}

// Subscribe registers an update listener and returns its channel together
// with an unsubscribe func. The refresh loop starts with the first
// subscriber and stops when the last one unsubscribes; unsubscribing closes
// the channel, so ranging consumers terminate. Updates are delivered
// best-effort: a subscriber that is not draining its channel only ever
// misses intermediate notifications, never the accessor state.
func (c *Coordinator) Subscribe() (<-chan Update, func()) {
	ch := make(chan Update, 1)

	c.subMu.Lock()
	c.subscribers[ch] = struct{}{}
	if len(c.subscribers) == 1 {
		c.start()
	}
	c.subMu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subscribers, ch)
			// Safe: notify sends under subMu, so no send can race the close.
			close(ch)
			var cancel context.CancelFunc
			var done chan struct{}
			if len(c.subscribers) == 0 {
				cancel, done = c.cancel, c.done
				c.cancel, c.done = nil, nil
			}
			c.subMu.Unlock()

			// Wait outside the lock: the loop may be mid-notify.
			if cancel != nil {
				cancel()
				<-done
			}
		})
	}
	return ch, unsubscribe
}

// start launches the refresh loop. Caller holds subMu.
func (c *Coordinator) start() {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.run(ctx, c.done)
}

// run refreshes once immediately, then on every tick.
func (c *Coordinator) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	_ = c.RefreshOnce(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = c.RefreshOnce(ctx)
		}
	}
}

// notify sends best-effort under subMu. Holding the lock while sending keeps
// the sends ordered against unsubscribe's close; the sends never block, so
// the lock is held only briefly.
func (c *Coordinator) notify(u Update) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for ch := range c.subscribers {
		select {
		case ch <- u:
		default:
		}
	}
}
