// Package registry implements the registration pass: the incremental diff
// between the previously persisted song set and the currently discovered one.
//
// Register is constructor and build in one — the host gets an Engine back
// only after discovery, slot allocation, encoding, pruning, and persistence
// have completed. Slot IDs are allocated sequentially in discovery order
// before any encoding starts; encodes then run concurrently bounded by
// config, and pruning waits for every encode to settle. The persisted state
// (music.json + version.txt) is written last, atomically, so an interrupted
// pass leaves the previous state and outputs intact.
//
// Failure posture follows the error taxonomy in maestro/internal/faults:
// unknown context and missing base-ID configuration abort the pass; a bad
// manifest, an unreadable music folder, a corrupt previous state, or a failed
// encode merely narrows the pass to what still works.
package registry
