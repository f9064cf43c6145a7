package health

import "context"

// StorePinger checks session store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// CapacityReporter reports how many sessions are held.
type CapacityReporter interface {
	Len() int
}
