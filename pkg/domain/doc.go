/*
Package domain contains the core data model for the Lattice client: the
widget tree received from the backend, the session state map shared across
one render cycle, and the payloads exchanged on every submission cycle.

It is kept pure and free of I/O. Everything here is plain data that
round-trips through JSON; behavior lives in the runtime and render packages.

# Key Entities

  - TreeNode: One node of the backend-specified UI description.
  - SessionState: The flat field-name → value map shared by reference
    across a render cycle.
  - Submission: The outgoing request payload (state snapshot, transform
    manifest, submitter identity).
  - Response: The incoming payload that replaces tree and state wholesale.
*/
package domain
