package reactive

import (
	"sort"
	"sync"
)

// UndefinedType is the type of Undefined.
type UndefinedType struct{}

// String returns "undefined".
func (UndefinedType) String() string { return "undefined" }

// Undefined is the value of a missing property, an absent result or an
// unassigned name. Go nil plays the role of null.
var Undefined = UndefinedType{}

// IsUndefined reports whether v is Undefined.
func IsUndefined(v any) bool {
	_, ok := v.(UndefinedType)
	return ok
}

// IsNullish reports whether v is null (nil) or Undefined.
func IsNullish(v any) bool {
	return v == nil || IsUndefined(v)
}

// Func is a callable value. this is the value the function was looked up on,
// or nil for a free call.
type Func func(this any, args ...any) (any, error)

// Constructor is a callable type that answers instanceof checks.
type Constructor interface {
	Name() string
	HasInstance(v any) bool
}

type builtinConstructor struct {
	name  string
	match func(v any) bool
}

func (c *builtinConstructor) Name() string           { return c.name }
func (c *builtinConstructor) HasInstance(v any) bool { return c.match(v) }

// Built-in constructors for instanceof.
var (
	ObjectConstructor Constructor = &builtinConstructor{name: "Object", match: func(v any) bool {
		return IsObject(v)
	}}
	ArrayConstructor Constructor = &builtinConstructor{name: "Array", match: func(v any) bool {
		_, ok := v.(*Array)
		return ok
	}}
	MapConstructor Constructor = &builtinConstructor{name: "Map", match: func(v any) bool {
		_, ok := v.(*Map)
		return ok
	}}
	SetConstructor Constructor = &builtinConstructor{name: "Set", match: func(v any) bool {
		_, ok := v.(*Set)
		return ok
	}}
)

// Object is an ordered, observable property bag. It is the binding context,
// override context and plain object type of the runtime.
type Object struct {
	mu        sync.RWMutex
	keys      []string
	values    map[string]any
	observers map[string]*PropertyObserver
}

// NewObject creates an empty Object.
func NewObject() *Object {
	return &Object{values: make(map[string]any)}
}

// ObjectFrom creates an Object from m. Keys are inserted in sorted order so
// iteration is deterministic. Values are normalized but not converted
// recursively.
func ObjectFrom(m map[string]any) *Object {
	o := NewObject()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		o.keys = append(o.keys, k)
		o.values[k] = Normalize(m[k])
	}
	return o
}

// Get returns the value of name, or Undefined when the property is absent.
func (o *Object) Get(name string) any {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if v, ok := o.values[name]; ok {
		return v
	}
	return Undefined
}

// Lookup returns the value of name and whether the property exists.
func (o *Object) Lookup(name string) (any, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	v, ok := o.values[name]
	return v, ok
}

// Has reports whether the property exists, even when its value is Undefined.
func (o *Object) Has(name string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, ok := o.values[name]
	return ok
}

// Set writes name and notifies its observer if the value changed.
func (o *Object) Set(name string, value any) {
	o.SetWithFlags(name, value, None)
}

// SetWithFlags writes name and notifies its observer with flags if the value
// changed under strict equality.
func (o *Object) SetWithFlags(name string, value any, flags Flags) {
	value = Normalize(value)

	o.mu.Lock()
	old, existed := o.values[name]
	if !existed {
		old = Undefined
		o.keys = append(o.keys, name)
	}
	o.values[name] = value
	observer := o.observers[name]
	o.mu.Unlock()

	if observer != nil && !StrictEquals(old, value) {
		observer.notify(value, old, flags)
	}
}

// Delete removes name. Observers of name see the value become Undefined.
func (o *Object) Delete(name string) bool {
	o.mu.Lock()
	old, existed := o.values[name]
	if existed {
		delete(o.values, name)
		for i, k := range o.keys {
			if k == name {
				o.keys = append(o.keys[:i], o.keys[i+1:]...)
				break
			}
		}
	}
	observer := o.observers[name]
	o.mu.Unlock()

	if existed && observer != nil && !IsUndefined(old) {
		observer.notify(Undefined, old, None)
	}
	return existed
}

// Keys returns the property names in insertion order.
func (o *Object) Keys() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	keys := make([]string, len(o.keys))
	copy(keys, o.keys)
	return keys
}

// Len returns the number of properties.
func (o *Object) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.keys)
}

// PropertyObserver returns the observer for name, creating it on first use.
// Observers are retained for the lifetime of the object.
func (o *Object) PropertyObserver(name string) *PropertyObserver {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.observers == nil {
		o.observers = make(map[string]*PropertyObserver)
	}
	p, ok := o.observers[name]
	if !ok {
		p = &PropertyObserver{obj: o, name: name}
		o.observers[name] = p
	}
	return p
}

// Map is an insertion-ordered key/value collection with SameValueZero keys.
type Map struct {
	keys   []any
	values []any
}

// NewMap creates an empty Map.
func NewMap() *Map {
	return &Map{}
}

func (m *Map) index(key any) int {
	for i, k := range m.keys {
		if SameValueZero(k, key) {
			return i
		}
	}
	return -1
}

// Get returns the value stored under key.
func (m *Map) Get(key any) (any, bool) {
	if i := m.index(key); i >= 0 {
		return m.values[i], true
	}
	return Undefined, false
}

// Set stores value under key, keeping the original insertion position.
func (m *Map) Set(key, value any) {
	key, value = Normalize(key), Normalize(value)
	if i := m.index(key); i >= 0 {
		m.values[i] = value
		return
	}
	m.keys = append(m.keys, key)
	m.values = append(m.values, value)
}

// Has reports whether key is present.
func (m *Map) Has(key any) bool {
	return m.index(key) >= 0
}

// Delete removes key.
func (m *Map) Delete(key any) bool {
	i := m.index(key)
	if i < 0 {
		return false
	}
	m.keys = append(m.keys[:i], m.keys[i+1:]...)
	m.values = append(m.values[:i], m.values[i+1:]...)
	return true
}

// Len returns the number of entries.
func (m *Map) Len() int { return len(m.keys) }

// Entries returns the [key, value] pairs in insertion order.
func (m *Map) Entries() [][2]any {
	out := make([][2]any, len(m.keys))
	for i := range m.keys {
		out[i] = [2]any{m.keys[i], m.values[i]}
	}
	return out
}

// Set is an insertion-ordered collection of unique values.
type Set struct {
	items []any
}

// NewSet creates a Set holding the unique values of items.
func NewSet(items ...any) *Set {
	s := &Set{}
	for _, item := range items {
		s.Add(item)
	}
	return s
}

// Add inserts v unless an equal value is already present.
func (s *Set) Add(v any) {
	v = Normalize(v)
	if !s.Has(v) {
		s.items = append(s.items, v)
	}
}

// Has reports whether v is present.
func (s *Set) Has(v any) bool {
	for _, item := range s.items {
		if SameValueZero(item, v) {
			return true
		}
	}
	return false
}

// Delete removes v.
func (s *Set) Delete(v any) bool {
	for i, item := range s.items {
		if SameValueZero(item, v) {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of values.
func (s *Set) Len() int { return len(s.items) }

// Values returns the values in insertion order.
func (s *Set) Values() []any {
	out := make([]any, len(s.items))
	copy(out, s.items)
	return out
}
