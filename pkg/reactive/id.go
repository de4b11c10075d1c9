package reactive

import "sync/atomic"

// globalIDCounter is the source of unique IDs for subscribers.
var globalIDCounter uint64

// NextID returns the next unique subscriber ID. IDs are never reused.
func NextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}
