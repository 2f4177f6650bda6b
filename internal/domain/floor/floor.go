// Package floor defines the domain entity for a single tower floor.
// This package is PURE and must NOT import any infrastructure packages.
package floor

import "github.com/skyrisegames/skytower/server/internal/domain/business"

// Floor represents one level of the tower. A multi-floor business is
// referenced by every floor it spans; the tower owns the floors, the floors
// do not own the business.
type Floor struct {
	Number      int
	Occupied    bool
	Maintenance float64 // 0-100
	Traffic     int     // people on this floor, recomputed each tick
	Business    *business.Business
}

// New creates an empty floor at the given ordinal.
func New(number int) *Floor {
	return &Floor{
		Number:      number,
		Maintenance: 100,
	}
}

// Assign marks the floor as occupied by the given business.
func (f *Floor) Assign(b *business.Business) {
	f.Occupied = true
	f.Business = b
}

// Clear releases the floor.
func (f *Floor) Clear() {
	f.Occupied = false
	f.Business = nil
	f.Traffic = 0
}
