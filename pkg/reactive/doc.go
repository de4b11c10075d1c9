// Package reactive provides the observable runtime underneath bindings.
//
// It has four parts:
//
//   - A JS-like value model: Undefined, nil as null, float64 numbers, strings,
//     bools, *Object, *Array, *Map, *Set and Func, plus the operator semantics
//     expressions need (ToNumber, ToString, LooseEquals, ...).
//   - Observation: every *Object property can hand out a PropertyObserver, and
//     every *Array can hand out an ArrayObserver that keeps an index map in
//     lockstep with the array's mutating methods.
//   - ChangeSet: a deduplicating FIFO of change trackers, drained once per
//     tick on a Loop.
//   - Scheduler: the lifecycle phase queues (flushChanges, bound, mount,
//     attached, unmount, detached, unbound) gated by per-phase depth counters.
//
// # Batching
//
// Mutations do not propagate synchronously. A binding that observes a changed
// property adds itself to the ChangeSet; the ChangeSet schedules one drain on
// its TaskQueue (a microtask on the Loop) when it goes from empty to non-empty:
//
//	loop := reactive.NewLoop()
//	changes := reactive.NewChangeSet(loop)
//	obj.Set("firstName", "Ada") // bindings queue themselves
//	obj.Set("lastName", "King")
//	loop.Drain()                // each binding flushes once
//
// # Thread Safety
//
// The model is single threaded: an App confines its values, observers,
// ChangeSet and Scheduler to the goroutine that runs its Loop. Objects and
// observers still lock their internal maps so that inspection from another
// goroutine does not race, but notification order is only defined on the loop
// goroutine.
package reactive
