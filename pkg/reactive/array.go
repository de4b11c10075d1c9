package reactive

import (
	"strings"
	"sync"
)

// Array is an observable sequence. Its mutating methods keep the index map
// of an attached ArrayObserver in lockstep with the data; arrays that were
// never observed take the plain slice path.
type Array struct {
	items    []any
	observer *ArrayObserver
}

// NewArray creates an Array holding items.
func NewArray(items ...any) *Array {
	a := &Array{items: make([]any, len(items))}
	for i, v := range items {
		a.items[i] = Normalize(v)
	}
	return a
}

// Len returns the number of elements.
func (a *Array) Len() int { return len(a.items) }

// At returns the element at i, or Undefined when i is out of range.
func (a *Array) At(i int) any {
	if i < 0 || i >= len(a.items) {
		return Undefined
	}
	return a.items[i]
}

// Items returns a copy of the elements.
func (a *Array) Items() []any {
	out := make([]any, len(a.items))
	copy(out, a.items)
	return out
}

// IndexOf returns the first index strictly equal to v, or -1.
func (a *Array) IndexOf(v any) int {
	for i, item := range a.items {
		if StrictEquals(item, v) {
			return i
		}
	}
	return -1
}

// Join concatenates the elements, rendering null and undefined as "".
func (a *Array) Join(sep string) string {
	parts := make([]string, len(a.items))
	for i, v := range a.items {
		if !IsNullish(v) {
			parts[i] = ToString(v)
		}
	}
	return strings.Join(parts, sep)
}

// Observe returns the array's collection observer, creating it with an
// identity index map on first use.
func (a *Array) Observe() *ArrayObserver {
	if a.observer == nil {
		a.observer = &ArrayObserver{array: a}
		a.observer.ResetIndexMap()
	}
	return a.observer
}

// Observer returns the attached observer, or nil.
func (a *Array) Observer() *ArrayObserver { return a.observer }

// Push appends items and returns the new length. New positions get -2.
func (a *Array) Push(items ...any) int {
	o := a.observer
	if len(items) == 0 {
		return len(a.items)
	}
	for _, v := range items {
		a.items = append(a.items, Normalize(v))
		if o != nil {
			o.indexMap = append(o.indexMap, -2)
		}
	}
	if o != nil {
		o.notify("push", items)
	}
	return len(a.items)
}

// Unshift inserts items at the front and returns the new length.
func (a *Array) Unshift(items ...any) int {
	o := a.observer
	if len(items) == 0 {
		return len(a.items)
	}
	head := make([]any, len(items))
	for i, v := range items {
		head[i] = Normalize(v)
	}
	a.items = append(head, a.items...)
	if o != nil {
		inserts := make([]int, len(items))
		for i := range inserts {
			inserts[i] = -2
		}
		o.indexMap = append(inserts, o.indexMap...)
		o.notify("unshift", items)
	}
	return len(a.items)
}

// Pop removes and returns the last element. An empty array returns Undefined
// without notifying.
func (a *Array) Pop() any {
	n := len(a.items)
	if n == 0 {
		return Undefined
	}
	element := a.items[n-1]
	a.items[n-1] = nil
	a.items = a.items[:n-1]
	if o := a.observer; o != nil {
		if o.indexMap[n-1] > -1 {
			o.deletedItems = append(o.deletedItems, element)
		}
		o.indexMap = o.indexMap[:n-1]
		o.notify("pop", nil)
	}
	return element
}

// Shift removes and returns the first element. An empty array returns
// Undefined without notifying.
func (a *Array) Shift() any {
	if len(a.items) == 0 {
		return Undefined
	}
	element := a.items[0]
	a.items = append(a.items[:0:0], a.items[1:]...)
	if o := a.observer; o != nil {
		if o.indexMap[0] > -1 {
			o.deletedItems = append(o.deletedItems, element)
		}
		o.indexMap = append(o.indexMap[:0:0], o.indexMap[1:]...)
		o.notify("shift", nil)
	}
	return element
}

// Splice removes deleteCount elements at start, inserts items there and
// returns the removed elements. A negative start counts from the end; start
// and deleteCount are clamped to the array bounds.
func (a *Array) Splice(start, deleteCount int, items ...any) []any {
	n := len(a.items)
	start = clampIndex(start, n)
	if deleteCount < 0 {
		deleteCount = 0
	}
	if deleteCount > n-start {
		deleteCount = n - start
	}

	removed := make([]any, deleteCount)
	copy(removed, a.items[start:start+deleteCount])

	inserted := make([]any, len(items))
	for i, v := range items {
		inserted[i] = Normalize(v)
	}
	next := make([]any, 0, n-deleteCount+len(inserted))
	next = append(next, a.items[:start]...)
	next = append(next, inserted...)
	next = append(next, a.items[start+deleteCount:]...)
	a.items = next

	if o := a.observer; o != nil {
		for i := start; i < start+deleteCount; i++ {
			if o.indexMap[i] > -1 {
				o.deletedItems = append(o.deletedItems, removed[i-start])
			}
		}
		idx := make([]int, 0, len(next))
		idx = append(idx, o.indexMap[:start]...)
		for range inserted {
			idx = append(idx, -2)
		}
		idx = append(idx, o.indexMap[start+deleteCount:]...)
		o.indexMap = idx

		args := make([]any, 0, 2+len(items))
		args = append(args, float64(start), float64(deleteCount))
		args = append(args, items...)
		o.notify("splice", args)
	}
	return removed
}

// Reverse reverses the array in place and returns it.
func (a *Array) Reverse() *Array {
	o := a.observer
	n := len(a.items)
	for lo, hi := 0, n-1; lo < hi; lo, hi = lo+1, hi-1 {
		a.items[lo], a.items[hi] = a.items[hi], a.items[lo]
		if o != nil {
			o.indexMap[lo], o.indexMap[hi] = o.indexMap[hi], o.indexMap[lo]
		}
	}
	if o != nil {
		o.notify("reverse", nil)
	}
	return a
}

// Sort sorts the array in place and returns it. Undefined elements go to the
// end; the rest are ordered by compare, or by their string form when compare
// is nil. Arrays shorter than two elements are left alone without notifying.
func (a *Array) Sort(compare func(x, y any) float64) *Array {
	n := len(a.items)
	if n < 2 {
		return a
	}
	o := a.observer
	var indexMap []int
	if o != nil {
		indexMap = o.indexMap
	} else {
		indexMap = make([]int, n)
	}

	quickSort(a.items, indexMap, 0, n, preSortCompare)
	defined := 0
	for defined < n && !IsUndefined(a.items[defined]) {
		defined++
	}
	if compare == nil {
		compare = sortCompare
	}
	quickSort(a.items, indexMap, 0, defined, compare)

	if o != nil {
		o.notify("sort", nil)
	}
	return a
}

// SetAt writes the element at i. Writing past the end grows the array with
// Undefined. The overwritten position loses its provenance.
func (a *Array) SetAt(i int, v any) {
	if i < 0 {
		return
	}
	v = Normalize(v)
	o := a.observer
	for len(a.items) <= i {
		a.items = append(a.items, Undefined)
		if o != nil {
			o.indexMap = append(o.indexMap, -2)
		}
	}
	old := a.items[i]
	a.items[i] = v
	if o != nil {
		if o.indexMap[i] > -1 {
			o.deletedItems = append(o.deletedItems, old)
		}
		o.indexMap[i] = -2
		o.notify("set", []any{float64(i), v})
	}
}

// ArrayObserver tracks the provenance of every element of an Array since the
// last reset. IndexMap()[i] is the index element i had before, or -2 for an
// element inserted since.
type ArrayObserver struct {
	ChangeLink

	array        *Array
	indexMap     []int
	deletedItems []any
	changes      *ChangeSet

	mu      sync.RWMutex
	subs    []CollectionSubscriber
	batched []BatchedCollectionSubscriber
}

// Array returns the observed array.
func (o *ArrayObserver) Array() *Array { return o.array }

// IndexMap returns a copy of the index map.
func (o *ArrayObserver) IndexMap() []int {
	out := make([]int, len(o.indexMap))
	copy(out, o.indexMap)
	return out
}

// DeletedItems returns a copy of the elements removed from tracked positions,
// in removal order.
func (o *ArrayObserver) DeletedItems() []any {
	out := make([]any, len(o.deletedItems))
	copy(out, o.deletedItems)
	return out
}

// ResetIndexMap makes the current positions the new baseline.
func (o *ArrayObserver) ResetIndexMap() {
	n := len(o.array.items)
	o.indexMap = make([]int, n)
	for i := range o.indexMap {
		o.indexMap[i] = i
	}
	o.deletedItems = nil
}

// SetChangeSet sets the change set used to flush batched subscribers.
func (o *ArrayObserver) SetChangeSet(changes *ChangeSet) {
	o.changes = changes
}

// Subscribe adds a synchronous subscriber.
func (o *ArrayObserver) Subscribe(s CollectionSubscriber) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, existing := range o.subs {
		if existing.ID() == s.ID() {
			return
		}
	}
	o.subs = append(o.subs, s)
}

// Unsubscribe removes a synchronous subscriber.
func (o *ArrayObserver) Unsubscribe(s CollectionSubscriber) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, existing := range o.subs {
		if existing.ID() == s.ID() {
			o.subs = append(o.subs[:i], o.subs[i+1:]...)
			return true
		}
	}
	return false
}

// SubscribeBatched adds a subscriber that is handed the index map once per
// change set drain.
func (o *ArrayObserver) SubscribeBatched(s BatchedCollectionSubscriber) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, existing := range o.batched {
		if existing.ID() == s.ID() {
			return
		}
	}
	o.batched = append(o.batched, s)
}

// UnsubscribeBatched removes a batched subscriber.
func (o *ArrayObserver) UnsubscribeBatched(s BatchedCollectionSubscriber) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, existing := range o.batched {
		if existing.ID() == s.ID() {
			o.batched = append(o.batched[:i], o.batched[i+1:]...)
			return true
		}
	}
	return false
}

// HasSubscribers reports whether any subscriber of either kind is attached.
func (o *ArrayObserver) HasSubscribers() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.subs)+len(o.batched) > 0
}

func (o *ArrayObserver) notify(origin string, args []any) {
	o.mu.RLock()
	subs := make([]CollectionSubscriber, len(o.subs))
	copy(subs, o.subs)
	hasBatched := len(o.batched) > 0
	o.mu.RUnlock()

	for _, s := range subs {
		s.HandleCollectionChange(origin, args, None)
	}
	if hasBatched && o.changes != nil {
		o.changes.Add(o)
	}
}

// FlushChanges hands the accumulated index map to batched subscribers and
// resets it.
func (o *ArrayObserver) FlushChanges() error {
	o.mu.RLock()
	batched := make([]BatchedCollectionSubscriber, len(o.batched))
	copy(batched, o.batched)
	o.mu.RUnlock()

	indexMap, deleted := o.IndexMap(), o.DeletedItems()
	o.ResetIndexMap()
	for _, s := range batched {
		s.HandleBatchedChange(indexMap, deleted, FromFlushChanges)
	}
	return nil
}
