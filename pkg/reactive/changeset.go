package reactive

import (
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
)

// ChangeTracker is anything the ChangeSet can flush. Implementations embed
// ChangeLink, which carries the queue link.
type ChangeTracker interface {
	FlushChanges() error
	changeLink() *ChangeLink
}

// ChangeLink is the intrusive queue link of a ChangeTracker. A nil next means
// "not queued"; the last queued tracker points at a marker instead of nil.
type ChangeLink struct {
	next ChangeTracker
}

func (l *ChangeLink) changeLink() *ChangeLink { return l }

type changeMarker struct{ ChangeLink }

func (*changeMarker) FlushChanges() error { return nil }

var tailMarker ChangeTracker = &changeMarker{}

// TaskQueue runs tasks after the current synchronous work completes.
type TaskQueue interface {
	Post(task func())
}

// ChangeSetConfig configures a ChangeSet.
type ChangeSetConfig struct {
	// Logger receives drain errors when no ErrorHandler is set.
	Logger *slog.Logger

	// ErrorHandler receives the aggregated error of a drain that was started
	// by the task queue rather than by a direct FlushChanges call.
	ErrorHandler func(error)

	// Monitor observes every drain.
	Monitor Monitor
}

// ChangeSetOption configures a ChangeSet.
type ChangeSetOption func(*ChangeSetConfig)

// WithChangeSetLogger sets the logger.
func WithChangeSetLogger(logger *slog.Logger) ChangeSetOption {
	return func(c *ChangeSetConfig) {
		c.Logger = logger
	}
}

// WithErrorHandler sets the handler for errors of scheduled drains.
func WithErrorHandler(fn func(error)) ChangeSetOption {
	return func(c *ChangeSetConfig) {
		c.ErrorHandler = fn
	}
}

// WithChangeSetMonitor sets the drain monitor.
func WithChangeSetMonitor(m Monitor) ChangeSetOption {
	return func(c *ChangeSetConfig) {
		c.Monitor = m
	}
}

func defaultChangeSetConfig() ChangeSetConfig {
	return ChangeSetConfig{
		Logger:  slog.Default(),
		Monitor: nopMonitor{},
	}
}

// ChangeSet is the change-tracker batching queue: a FIFO of trackers in
// which each tracker appears at most once. Adding to an empty set schedules
// one drain on the task queue.
type ChangeSet struct {
	config ChangeSetConfig
	queue  TaskQueue

	mu       sync.Mutex
	head     ChangeTracker
	tail     ChangeTracker
	size     int
	flushing bool
	flushed  chan struct{}
}

// NewChangeSet creates a ChangeSet that schedules its drains on queue.
func NewChangeSet(queue TaskQueue, opts ...ChangeSetOption) *ChangeSet {
	config := defaultChangeSetConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Monitor == nil {
		config.Monitor = nopMonitor{}
	}
	return &ChangeSet{config: config, queue: queue}
}

// Add queues t unless it is already queued. The returned channel is closed
// when the drain that will flush t has finished.
func (c *ChangeSet) Add(t ChangeTracker) <-chan struct{} {
	c.mu.Lock()
	if c.flushed == nil {
		c.flushed = make(chan struct{})
	}
	flushed := c.flushed

	link := t.changeLink()
	if link.next != nil {
		c.mu.Unlock()
		return flushed
	}
	link.next = tailMarker
	if c.tail == nil {
		c.head = t
	} else {
		c.tail.changeLink().next = t
	}
	c.tail = t
	c.size++
	schedule := c.size == 1 && !c.flushing
	c.mu.Unlock()

	if schedule && c.queue != nil {
		c.queue.Post(c.scheduledFlush)
	}
	return flushed
}

// Flushed returns a channel closed after the next drain. It is already closed
// when nothing is pending.
func (c *ChangeSet) Flushed() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.flushed == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	return c.flushed
}

// Has reports whether t is queued.
func (c *ChangeSet) Has(t ChangeTracker) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return t.changeLink().next != nil
}

// Size returns the number of queued trackers.
func (c *ChangeSet) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// IsFlushing reports whether a drain is in progress.
func (c *ChangeSet) IsFlushing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flushing
}

// Trackers returns the queued trackers in order.
func (c *ChangeSet) Trackers() []ChangeTracker {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ChangeTracker, 0, c.size)
	for cur := c.head; cur != nil && cur != tailMarker; cur = cur.changeLink().next {
		out = append(out, cur)
	}
	return out
}

func (c *ChangeSet) scheduledFlush() {
	if err := c.FlushChanges(); err != nil {
		if c.config.ErrorHandler != nil {
			c.config.ErrorHandler(err)
			return
		}
		c.config.Logger.Error("change set flush failed", "error", err)
	}
}

// FlushChanges drains the set. Each batch is detached before its trackers
// run, so trackers added while flushing form a new batch that is drained
// before FlushChanges returns. A failing tracker does not stop the drain;
// all failures are returned together. Calling FlushChanges from inside a
// tracker returns nil immediately; the running drain picks up its work.
func (c *ChangeSet) FlushChanges() error {
	c.mu.Lock()
	if c.flushing {
		c.mu.Unlock()
		return nil
	}
	c.flushing = true
	c.mu.Unlock()

	start := time.Now()
	count := 0
	var result *multierror.Error

	for {
		c.mu.Lock()
		cur := c.head
		c.head, c.tail, c.size = nil, nil, 0
		c.mu.Unlock()
		if cur == nil {
			break
		}

		for cur != tailMarker {
			link := cur.changeLink()
			c.mu.Lock()
			next := link.next
			link.next = nil
			c.mu.Unlock()

			count++
			if err := cur.FlushChanges(); err != nil {
				result = multierror.Append(result, err)
			}
			cur = next
		}
	}

	c.mu.Lock()
	c.flushing = false
	flushed := c.flushed
	c.flushed = nil
	c.mu.Unlock()
	if flushed != nil {
		close(flushed)
	}

	err := result.ErrorOrNil()
	if count > 0 {
		c.config.Monitor.ChangeSetFlushed(start, count, err)
	}
	return err
}
