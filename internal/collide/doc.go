// Package collide resolves contacts between circular bodies and against the
// world bounds.
//
// Resolution runs in two phases every sub-step:
//
//   - broad phase: [SortAndSweep] orders bodies by the left edge of their x
//     interval and visits only pairs whose intervals overlap
//   - narrow phase: [ResolvePair] pushes overlapping circles apart along the
//     line of centers, then [ResolveWorld] clamps bodies into the box
//
// Corrections are positional and single-pass. Because bodies are integrated
// with position Verlet, moving a body also changes its derived velocity, so no
// separate velocity correction is needed.
package collide
