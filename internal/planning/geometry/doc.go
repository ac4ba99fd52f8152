// Package geometry holds the planar primitives shared by the planner:
// oriented boxes for vehicle and obstacle footprints, point/segment
// distances, and angle normalisation.
//
// Key types: Vec2, Box2d.
//
// Dependency rule: geometry depends on nothing else in internal/planning.
package geometry
