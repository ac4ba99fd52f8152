// Package dppath computes the per-cycle lateral path ("path tunnel") by
// dynamic programming over a lattice of laterally sampled waypoints, and
// attaches stop, nudge, follow and ignore decisions to nearby obstacles.
//
// Responsibilities: lateral sampling along the reference line, lattice
// construction with quintic edges, minimum-cost search, dense Frenet and
// Cartesian reconstruction, and the static/dynamic obstacle decision pass.
// Key types: Optimizer, Result, PathData, CostModel.
//
// The package is synchronous and single-threaded. A lattice lives for one
// Process call and is never shared.
//
// Dependency rule: dppath may depend on config, monitoring, timeutil and the
// planning collaborator packages (curve, frenet, geometry, refline, vehicle,
// speed, obstacle, cost). It must not depend on storage or monitor.
// No SQL/database code is allowed in this package.
package dppath
