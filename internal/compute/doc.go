// Package compute provides the backends behind the mutual attraction force
// field.
//
// Two backends are available:
//
//   - cpu: direct pairwise sum, split across workers for larger sets
//   - barneshut: gonum quadtree approximation controlled by theta
//
// Backends are built by name, or picked from the body count:
//
//	b, err := compute.ByName("barneshut", 0.5)
//	b = compute.AutoSelect(len(pos), 0.5)
//	acc := b.Attraction(pos, mass, g, softening)
//
// Attraction wraps a backend as a dynamo.Force so a solver applies it once per
// sub-step before integration. Particle mass is taken to be its radius.
package compute
