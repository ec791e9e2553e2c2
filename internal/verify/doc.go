// Package verify coordinates a full drive scan: the sequential structural
// walk, the concurrent per-file audio audit, and the assembly of one
// immutable result. Findings flow through the phases as data; no phase
// aborts the scan for a per-file problem.
package verify
