/*
Package session orchestrates snapshot persistence for page sessions.

It serializes concurrent access per session ID, locally via ref-counted
mutexes and optionally across replicas via a distributed locker, on top of
any ports.StateStore adapter.
*/
package session
