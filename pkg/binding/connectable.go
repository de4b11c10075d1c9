package binding

import (
	"log/slog"

	"github.com/vango-dev/vbind/pkg/reactive"
)

// subscriber is what a connectable subscribes on behalf of its owner.
type subscriber interface {
	reactive.PropertySubscriber
	reactive.CollectionSubscriber
}

// connectable tracks the observers a binding subscribed to during its last
// connect pass and the behaviors applied to it. Bindings embed it.
type connectable struct {
	id        uint64
	owner     subscriber
	locator   Locator
	observers *reactive.ObserverLocator
	logger    *slog.Logger

	properties  map[*reactive.PropertyObserver]struct{}
	collections map[*reactive.ArrayObserver]struct{}
	behaviors   map[string]Behavior
}

func (c *connectable) init(owner subscriber, observers *reactive.ObserverLocator, locator Locator, cfg config) {
	c.id = reactive.NextID()
	c.owner = owner
	c.observers = observers
	c.locator = locator
	c.logger = cfg.Logger
}

// ID identifies the binding to the observers it subscribes to.
func (c *connectable) ID() uint64 { return c.id }

// Locator returns the resource locator of the binding.
func (c *connectable) Locator() Locator { return c.locator }

// ObserveProperty subscribes the binding to obj[key]. Values that carry no
// observable properties are ignored.
func (c *connectable) ObserveProperty(obj any, key any) {
	if c.observers == nil {
		return
	}
	po, ok := c.observers.PropertyObserver(obj, reactive.ToPropertyKey(key))
	if !ok {
		return
	}
	if _, seen := c.properties[po]; seen {
		return
	}
	if c.properties == nil {
		c.properties = make(map[*reactive.PropertyObserver]struct{})
	}
	c.properties[po] = struct{}{}
	po.Subscribe(c.owner)
}

// ObserveCollection subscribes the binding to mutations of an array.
func (c *connectable) ObserveCollection(obj any) {
	if c.observers == nil {
		return
	}
	ao, ok := c.observers.ArrayObserver(obj)
	if !ok {
		return
	}
	if _, seen := c.collections[ao]; seen {
		return
	}
	if c.collections == nil {
		c.collections = make(map[*reactive.ArrayObserver]struct{})
	}
	c.collections[ao] = struct{}{}
	ao.Subscribe(c.owner)
}

// ObservedCount returns how many observers the binding is subscribed to.
func (c *connectable) ObservedCount() int {
	return len(c.properties) + len(c.collections)
}

// unobserve drops every subscription made by earlier connect passes.
func (c *connectable) unobserve() {
	for po := range c.properties {
		po.Unsubscribe(c.owner)
	}
	for ao := range c.collections {
		ao.Unsubscribe(c.owner)
	}
	clear(c.properties)
	clear(c.collections)
}

// AppliedBehavior returns the behavior applied under key.
func (c *connectable) AppliedBehavior(key string) (Behavior, bool) {
	b, ok := c.behaviors[key]
	return b, ok
}

// SetAppliedBehavior records or, with a nil b, clears a behavior.
func (c *connectable) SetAppliedBehavior(key string, b Behavior) {
	if b == nil {
		delete(c.behaviors, key)
		return
	}
	if c.behaviors == nil {
		c.behaviors = make(map[string]Behavior)
	}
	c.behaviors[key] = b
}
