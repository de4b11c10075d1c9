package reactive

import (
	"log/slog"
	"time"
)

// Phase names one lifecycle queue.
type Phase int

// Creation phases drain in order PhaseFlushChanges, PhaseBound, PhaseMount,
// PhaseAttached; teardown phases in order PhaseUnmount, PhaseDetached,
// PhaseUnbound.
const (
	PhaseFlushChanges Phase = iota
	PhaseBound
	PhaseMount
	PhaseAttached
	PhaseUnmount
	PhaseDetached
	PhaseUnbound
	phaseCount
)

var phaseNames = [phaseCount]string{
	"flushChanges", "bound", "mount", "attached", "unmount", "detached", "unbound",
}

// String returns the phase name.
func (p Phase) String() string {
	if p < 0 || p >= phaseCount {
		return "unknown"
	}
	return phaseNames[p]
}

// Phases returns all phases in declaration order.
func Phases() []Phase {
	out := make([]Phase, phaseCount)
	for i := range out {
		out[i] = Phase(i)
	}
	return out
}

// first returns the first phase of p's direction.
func (p Phase) first() Phase {
	if p >= PhaseUnmount {
		return PhaseUnmount
	}
	return PhaseFlushChanges
}

// last returns the last phase of p's direction.
func (p Phase) last() Phase {
	if p >= PhaseUnmount {
		return PhaseUnbound
	}
	return PhaseAttached
}

// LifecycleItem is anything the Scheduler can queue. Implementations embed
// LifecycleNode, which holds one link per phase.
type LifecycleItem interface {
	lifecycleNode() *LifecycleNode
}

// LifecycleNode holds the per-phase queue links of a LifecycleItem. A nil
// link means "not queued in that phase".
type LifecycleNode struct {
	next  [phaseCount]LifecycleItem
	flags [phaseCount]Flags
}

func (n *LifecycleNode) lifecycleNode() *LifecycleNode { return n }

type lifecycleMarker struct{ LifecycleNode }

var phaseMarker LifecycleItem = &lifecycleMarker{}

// Phase callbacks.
type (
	FlushHook interface {
		LifecycleItem
		Flush(flags Flags)
	}
	BoundHook interface {
		LifecycleItem
		Bound(flags Flags)
	}
	MountHook interface {
		LifecycleItem
		Mount(flags Flags)
	}
	AttachedHook interface {
		LifecycleItem
		Attached(flags Flags)
	}
	UnmountHook interface {
		LifecycleItem
		Unmount(flags Flags)
	}
	DetachedHook interface {
		LifecycleItem
		Detached(flags Flags)
	}
	UnboundHook interface {
		LifecycleItem
		Unbound(flags Flags)
	}
)

// SchedulerConfig configures a Scheduler.
type SchedulerConfig struct {
	// ChangeSet, when set, is drained as part of the flushChanges phase.
	ChangeSet *ChangeSet

	// Monitor observes every phase drain.
	Monitor Monitor

	// Logger receives change set errors when no ErrorHandler is set.
	Logger *slog.Logger

	// ErrorHandler receives change set errors raised while draining the
	// flushChanges phase.
	ErrorHandler func(error)
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*SchedulerConfig)

// WithChangeSet drains changes as part of the flushChanges phase.
func WithChangeSet(changes *ChangeSet) SchedulerOption {
	return func(c *SchedulerConfig) {
		c.ChangeSet = changes
	}
}

// WithSchedulerMonitor sets the phase monitor.
func WithSchedulerMonitor(m Monitor) SchedulerOption {
	return func(c *SchedulerConfig) {
		c.Monitor = m
	}
}

// WithSchedulerLogger sets the logger.
func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(c *SchedulerConfig) {
		c.Logger = logger
	}
}

// WithSchedulerErrorHandler sets the change set error handler.
func WithSchedulerErrorHandler(fn func(error)) SchedulerOption {
	return func(c *SchedulerConfig) {
		c.ErrorHandler = fn
	}
}

func defaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Monitor: nopMonitor{},
		Logger:  slog.Default(),
	}
}

type phaseQueue struct {
	depth    int
	head     LifecycleItem
	tail     LifecycleItem
	draining bool
}

// Scheduler owns the lifecycle phase queues. Producers queue an item and
// later call the matching Unqueue; a phase drains when its depth returns to
// zero and no earlier phase of the same direction is still pending, then
// hands over to the next phase. Schedulers are independent of each other.
//
// A Scheduler is not safe for concurrent use.
type Scheduler struct {
	config SchedulerConfig
	queues [phaseCount]phaseQueue
}

// NewScheduler creates a Scheduler.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	config := defaultSchedulerConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Monitor == nil {
		config.Monitor = nopMonitor{}
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Scheduler{config: config}
}

// Depth returns the pending registration count of p.
func (s *Scheduler) Depth(p Phase) int {
	return s.queues[p].depth
}

// IsQueued reports whether item is linked into p.
func (s *Scheduler) IsQueued(item LifecycleItem, p Phase) bool {
	return item.lifecycleNode().next[p] != nil
}

// IsFlushing reports whether the flushChanges phase is draining.
func (s *Scheduler) IsFlushing() bool {
	return s.queues[PhaseFlushChanges].draining
}

// QueueFlushChanges links item into the flushChanges phase.
func (s *Scheduler) QueueFlushChanges(item FlushHook, flags Flags) { s.queue(PhaseFlushChanges, item, flags) }

// UnqueueFlushChanges releases one flushChanges registration.
func (s *Scheduler) UnqueueFlushChanges() { s.unqueue(PhaseFlushChanges) }

// QueueBound links item into the bound phase.
func (s *Scheduler) QueueBound(item BoundHook, flags Flags) { s.queue(PhaseBound, item, flags) }

// UnqueueBound releases one bound registration.
func (s *Scheduler) UnqueueBound() { s.unqueue(PhaseBound) }

// QueueMount links item into the mount phase.
func (s *Scheduler) QueueMount(item MountHook, flags Flags) { s.queue(PhaseMount, item, flags) }

// UnqueueMount releases one mount registration.
func (s *Scheduler) UnqueueMount() { s.unqueue(PhaseMount) }

// QueueAttached links item into the attached phase.
func (s *Scheduler) QueueAttached(item AttachedHook, flags Flags) { s.queue(PhaseAttached, item, flags) }

// UnqueueAttached releases one attached registration.
func (s *Scheduler) UnqueueAttached() { s.unqueue(PhaseAttached) }

// QueueUnmount links item into the unmount phase.
func (s *Scheduler) QueueUnmount(item UnmountHook, flags Flags) { s.queue(PhaseUnmount, item, flags) }

// UnqueueUnmount releases one unmount registration.
func (s *Scheduler) UnqueueUnmount() { s.unqueue(PhaseUnmount) }

// QueueDetached links item into the detached phase.
func (s *Scheduler) QueueDetached(item DetachedHook, flags Flags) { s.queue(PhaseDetached, item, flags) }

// UnqueueDetached releases one detached registration.
func (s *Scheduler) UnqueueDetached() { s.unqueue(PhaseDetached) }

// QueueUnbound links item into the unbound phase.
func (s *Scheduler) QueueUnbound(item UnboundHook, flags Flags) { s.queue(PhaseUnbound, item, flags) }

// UnqueueUnbound releases one unbound registration.
func (s *Scheduler) UnqueueUnbound() { s.unqueue(PhaseUnbound) }

// queue links item into p. An item that is already linked is left where it
// is and does not add to the depth.
func (s *Scheduler) queue(p Phase, item LifecycleItem, flags Flags) {
	n := item.lifecycleNode()
	if n.next[p] != nil {
		return
	}
	n.next[p] = phaseMarker
	n.flags[p] = flags

	q := &s.queues[p]
	if q.tail == nil {
		q.head = item
	} else {
		q.tail.lifecycleNode().next[p] = item
	}
	q.tail = item
	q.depth++
}

func (s *Scheduler) unqueue(p Phase) {
	q := &s.queues[p]
	if q.depth > 0 {
		q.depth--
	}
	if q.depth > 0 || s.blocked(p) {
		return
	}
	s.drainFrom(p)
}

// blocked reports whether p must wait: it is draining already, or an
// earlier phase of its direction still has pending registrations or is
// draining.
func (s *Scheduler) blocked(p Phase) bool {
	if s.queues[p].draining {
		return true
	}
	for e := p.first(); e < p; e++ {
		if s.queues[e].depth > 0 || s.queues[e].draining {
			return true
		}
	}
	return false
}

func (s *Scheduler) drainFrom(p Phase) {
	for {
		s.drain(p)
		if p == p.last() {
			return
		}
		p++
		if s.queues[p].depth > 0 || s.blocked(p) {
			return
		}
	}
}

func (s *Scheduler) drain(p Phase) {
	q := &s.queues[p]
	q.draining = true
	defer func() { q.draining = false }()

	start := time.Now()
	count := 0
	for s.pending(p) {
		if p == PhaseFlushChanges && s.config.ChangeSet != nil {
			if err := s.config.ChangeSet.FlushChanges(); err != nil {
				s.reportError(err)
			}
		}

		cur := q.head
		q.head, q.tail = nil, nil
		for cur != nil && cur != phaseMarker {
			n := cur.lifecycleNode()
			next, flags := n.next[p], n.flags[p]
			n.next[p], n.flags[p] = nil, None

			s.invoke(p, cur, flags)
			count++
			cur = next
		}
	}
	if count > 0 {
		s.config.Monitor.PhaseDrained(p, start, count)
	}
}

func (s *Scheduler) pending(p Phase) bool {
	if s.queues[p].head != nil {
		return true
	}
	return p == PhaseFlushChanges && s.config.ChangeSet != nil && s.config.ChangeSet.Size() > 0
}

func (s *Scheduler) invoke(p Phase, item LifecycleItem, flags Flags) {
	switch p {
	case PhaseFlushChanges:
		item.(FlushHook).Flush(flags)
	case PhaseBound:
		item.(BoundHook).Bound(flags)
	case PhaseMount:
		item.(MountHook).Mount(flags)
	case PhaseAttached:
		item.(AttachedHook).Attached(flags)
	case PhaseUnmount:
		item.(UnmountHook).Unmount(flags)
	case PhaseDetached:
		item.(DetachedHook).Detached(flags)
	case PhaseUnbound:
		item.(UnboundHook).Unbound(flags)
	}
}

func (s *Scheduler) reportError(err error) {
	if s.config.ErrorHandler != nil {
		s.config.ErrorHandler(err)
		return
	}
	s.config.Logger.Error("flushChanges phase failed", "error", err)
}
