// Package transmit owns the transmission cycle.
//
// Ownership boundary:
// - idle poll of the relay and change detection
// - cycle order: timing assert, armed payload write, triggering readback,
//   task stop, timing deassert, decode and verify
// - the timestamp producer feeding the relay
//
// Lifecycle order:
// - New creates the four device tasks and warms the immediate path.
//
// - Run polls until shutdown; a cycle in flight always finishes (a
//   half-run hardware transaction leaves the board armed and unrecoverable).
//
// - Close releases the tasks.
//
// transmit does not own the timestamp value; the relay does.
package transmit
