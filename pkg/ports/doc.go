/*
Package ports defines the driven ports (interfaces) for the Lattice client.

These interfaces decouple the core render/submit cycle from external
collaborators: the backend transport, the realtime push source, the file
upload widget, and the sandboxed script runner. Implementations live under
the adapter packages; the core only ever sees these narrow contracts.
*/
package ports
