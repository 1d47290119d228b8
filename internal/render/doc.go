/*
Package render implements the tree dispatcher: it walks the backend's
widget tree and produces an abstract element tree, binding every leaf input
control to the shared session state along the way.

Dispatch over node names is a registry of factory functions with a
diagnostic fallback; an unknown node kind renders a raw JSON dump instead
of failing, since the backend's vocabulary evolves independently of the
client release. Container kinds recurse, always forwarding the same state
map and the same change handler so descendants never resubscribe.
*/
package render
