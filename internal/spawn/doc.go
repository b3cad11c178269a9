// Package spawn creates particles in a solver from driver code.
//
// An Emitter is polled once per frame and adds particles through the
// solver's handle API: AddParticle, then Edit to set the initial velocity
// with the sub-step length the next update will use. Patterns:
//
//   - grid: a square block centred on the origin
//   - random: uniform positions over the world, random directions
//   - fountain: one particle per interval, aim swaying around the angle
//   - ring: a circle around the origin moving tangentially
//   - single: one particle with an explicit velocity
//
// Pegs builds a lattice of fixed obstacles. Colors sweep the hue circle.
package spawn
