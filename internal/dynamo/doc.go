// Package dynamo provides the core primitives of the particle sandbox.
//
// The package defines the per-body state and integration rule shared by
// every other package:
//
//   - [Particle]: a circular body integrated with position Verlet
//   - [Body]: a particle behind its own mutex, shared by physics and render paths
//   - [Drawable]: read-only per-frame view of a body for renderers
//   - [Force]: additional acceleration sources applied once per sub-step
//
// # Example
//
//	p := dynamo.NewParticle(r2.Vec{X: 0, Y: 250})
//	p.SetVelocity(r2.Vec{X: 100, Y: 50}, dt)
//	p.ApplyForce(r2.Vec{Y: -400})
//	p.Integrate(dt)
//
// # Thread Safety
//
// Particle values are plain data and NOT thread-safe. Share them through a
// [Body], which serializes access with a per-body lock.
package dynamo
