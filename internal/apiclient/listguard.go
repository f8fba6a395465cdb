package apiclient

import (
	"sync/atomic"

	"github.com/go-faster/errors"
)

// ErrStale marks a list response that arrived after a newer request was
// already issued. Callers drop the result instead of rendering it.
var ErrStale = errors.New("stale list response discarded")

// ListGuard orders overlapping list fetches for one screen. Rapid
// re-filtering can make a slow early response land after a fast later one;
// without a guard the stale rows would overwrite the fresh ones. Each fetch
// takes a ticket before issuing the request and checks it on arrival.
//
// Safe for concurrent use.
type ListGuard struct {
	seq atomic.Uint64
}

// Start issues a ticket for a new fetch, superseding all earlier tickets.
func (g *ListGuard) Start() uint64 {
	return g.seq.Add(1)
}

// Latest reports whether the ticket still belongs to the newest fetch.
func (g *ListGuard) Latest(ticket uint64) bool {
	return g.seq.Load() == ticket
}

// Check returns ErrStale when the ticket has been superseded.
func (g *ListGuard) Check(ticket uint64) error {
	if !g.Latest(ticket) {
		return ErrStale
	}
	return nil
}
