// Package gwvar publishes service state through expvar, served at /debug/vars by the debug http server
package gwvar

import "expvar"

// Bool is a published bool
type Bool struct {
	val *expvar.Int
}

// NewBool publishes a bool named name
func NewBool(name string) *Bool {
	return &Bool{
		val: expvar.NewInt(name),
	}
}

// Value returns the value
func (b *Bool) Value() bool {
	return b.val.Value() > 0
}

// Set sets the value
func (b *Bool) Set(v bool) {
	if v {
		b.val.Set(1)
	} else {
		b.val.Set(0)
	}
}

var (
	// IsTerminating is set when the server starts saving the world to quit
	IsTerminating = NewBool("IsTerminating")
	// NumClients is the number of connected clients
	NumClients = expvar.NewInt("NumClients")
	// NumChunksCached is the number of chunks cached by the server
	NumChunksCached = expvar.NewInt("NumChunksCached")
	// NumEntities is the number of live entities on the server
	NumEntities = expvar.NewInt("NumEntities")
)
