package reactive

import "sync"

// PropertySubscriber is notified when an observed property changes.
type PropertySubscriber interface {
	// HandleChange receives the new and previous value of the property.
	HandleChange(newValue, oldValue any, flags Flags)

	// ID identifies the subscriber for deduplication.
	ID() uint64
}

// CollectionSubscriber is notified synchronously once per array mutation.
type CollectionSubscriber interface {
	// HandleCollectionChange receives the mutating method name and its
	// arguments.
	HandleCollectionChange(origin string, args []any, flags Flags)

	ID() uint64
}

// BatchedCollectionSubscriber receives the accumulated index map of an array
// when the change set flushes the array's observer.
type BatchedCollectionSubscriber interface {
	HandleBatchedChange(indexMap []int, deletedItems []any, flags Flags)

	ID() uint64
}

// PropertyObserver is the multicast point for one (object, property) pair.
type PropertyObserver struct {
	obj  *Object
	name string

	mu   sync.RWMutex
	subs []PropertySubscriber
}

// Object returns the observed object.
func (p *PropertyObserver) Object() *Object { return p.obj }

// Name returns the observed property name.
func (p *PropertyObserver) Name() string { return p.name }

// GetValue reads the property.
func (p *PropertyObserver) GetValue() any {
	return p.obj.Get(p.name)
}

// SetValue writes the property, notifying subscribers if it changed.
func (p *PropertyObserver) SetValue(value any, flags Flags) {
	p.obj.SetWithFlags(p.name, value, flags)
}

// Subscribe adds s. Subscribing the same subscriber twice has no effect.
func (p *PropertyObserver) Subscribe(s PropertySubscriber) {
	if s == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	id := s.ID()
	for _, existing := range p.subs {
		if existing.ID() == id {
			return
		}
	}
	p.subs = append(p.subs, s)
}

// Unsubscribe removes s and reports whether it was subscribed.
func (p *PropertyObserver) Unsubscribe(s PropertySubscriber) bool {
	if s == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	id := s.ID()
	for i, existing := range p.subs {
		if existing.ID() == id {
			p.subs = append(p.subs[:i], p.subs[i+1:]...)
			return true
		}
	}
	return false
}

// HasSubscribers reports whether anyone observes the property.
func (p *PropertyObserver) HasSubscribers() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs) > 0
}

// SubscriberCount returns the number of subscribers.
func (p *PropertyObserver) SubscriberCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs)
}

func (p *PropertyObserver) notify(newValue, oldValue any, flags Flags) {
	p.mu.RLock()
	subs := make([]PropertySubscriber, len(p.subs))
	copy(subs, p.subs)
	p.mu.RUnlock()

	for _, s := range subs {
		s.HandleChange(newValue, oldValue, flags)
	}
}

// ObserverLocator hands out observers for values. Array observers it creates
// flush their batched subscribers through the locator's change set.
type ObserverLocator struct {
	changes *ChangeSet
}

// NewObserverLocator creates a locator. changes may be nil, in which case
// batched collection subscribers are never flushed automatically.
func NewObserverLocator(changes *ChangeSet) *ObserverLocator {
	return &ObserverLocator{changes: changes}
}

// ChangeSet returns the change set observers created here report to.
func (l *ObserverLocator) ChangeSet() *ChangeSet {
	return l.changes
}

// PropertyObserver returns the observer for obj[name]. ok is false when obj
// cannot carry observable properties.
func (l *ObserverLocator) PropertyObserver(obj any, name string) (*PropertyObserver, bool) {
	o, ok := obj.(*Object)
	if !ok {
		return nil, false
	}
	return o.PropertyObserver(name), true
}

// ArrayObserver returns the collection observer for obj. ok is false when obj
// is not an *Array.
func (l *ObserverLocator) ArrayObserver(obj any) (*ArrayObserver, bool) {
	a, ok := obj.(*Array)
	if !ok {
		return nil, false
	}
	o := a.Observe()
	if o.changes == nil {
		o.changes = l.changes
	}
	return o, true
}
