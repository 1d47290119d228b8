// Package middleware composes behavior around a StateStore: snapshots can
// be masked or encrypted on their way to persistence without the session
// manager knowing.
package middleware

import "github.com/aretw0/lattice/pkg/ports"

// Middleware allows wrapping a StateStore to add behavior.
type Middleware func(ports.StateStore) ports.StateStore

// Chain applies middlewares right to left, so the first listed is the
// outermost.
func Chain(store ports.StateStore, mws ...Middleware) ports.StateStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
