/*
Package lattice is a client core for server-driven UIs: the backend owns the
widget tree and the session state, the client renders, binds and submits.

Each response carries a declarative node tree plus a state map. The client
renders the tree through an overridable registry, binds every named input
to its state slot by reference, and ships edits back as full-state
submissions: text entry debounces, discrete controls submit immediately,
numeric steppers wait for blur. The response replaces tree and state
wholesale, so the backend re-decides the entire page every cycle.

This inversion keeps all application logic server-side. The client needs no
knowledge of what a page means; it is a faithful terminal for whatever tree
arrives, including node kinds it has never seen (those render as raw
diagnostic dumps without breaking their siblings).

# Usage

Create a Client for a page URL and open it:

	client, err := lattice.New("https://app.example.com/run",
		lattice.WithLogger(logger),
	)
	if err != nil {
		log.Fatal(err)
	}
	if err := client.Open(); err != nil {
		log.Fatal(err)
	}
	elements := client.Render()

Interactive hosts walk the Elements, draw them, and feed user edits into
the Controls; every edit flows through the submission lifecycle without
further host involvement.

Side channels plug in through options: WithRealtime attaches a push source
(each push resubmits an idle page), WithUploader routes finished file
uploads into their carrier fields, WithScripts evaluates backend script
nodes.

# Architecture

The module follows the ports-and-adapters layout: pkg/domain holds the wire
types, pkg/ports the boundary contracts, and adapters live under
pkg/adapters (HTTP transport and gateway) and internal/adapters (Redis
realtime). The dispatcher and the form orchestrator are internal; hosts
interact through this package's Client. Session snapshots persist through
pkg/session over file, memory or Redis stores, with optional masking and
encryption middleware.
*/
package lattice
