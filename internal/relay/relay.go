// Package relay owns the producer/transmitter handoff cell.
//
// Ownership boundary:
// - latest-value timestamp slot (overwrite, never queue)
// - shutdown flag
//
// The relay never blocks a publisher: a value the transmitter has not picked
// up yet is simply overwritten, because only the most recent timestamp is
// worth transmitting.
package relay

import "sync/atomic"

// Relay is the shared cell between the timestamp producer and the transmitter.
// Both fields are independent atomic scalars; no compound transaction across
// them is needed and none is provided.
type Relay struct {
	ts        atomic.Uint64
	publishes atomic.Uint64
	running   atomic.Bool
}

// New returns a relay holding timestamp 0 with the running flag set.
func New() *Relay {
	r := &Relay{}
	r.running.Store(true)
	return r
}

// SetTimestamp publishes v, overwriting any unconsumed prior value.
func (r *Relay) SetTimestamp(v uint64) {
	r.ts.Store(v)
	r.publishes.Add(1)
}

// Timestamp returns the most recently published value. Never blocks.
func (r *Relay) Timestamp() uint64 {
	return r.ts.Load()
}

// Publishes counts SetTimestamp calls. The difference between this and the
// transmitter's completed-cycle count is the number of coalesced updates.
func (r *Relay) Publishes() uint64 {
	return r.publishes.Load()
}

// RequestShutdown clears the running flag. Idempotent and irreversible.
func (r *Relay) RequestShutdown() {
	r.running.Store(false)
}

// Running reports whether shutdown has been requested.
func (r *Relay) Running() bool {
	return r.running.Load()
}
