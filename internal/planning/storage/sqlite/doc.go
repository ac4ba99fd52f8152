// Package sqlite persists planning cycles: the summary of each cycle, its
// resolved path samples and the decisions attached to each obstacle.
//
// Schema changes live in migrations/ and are embedded into the binary, so a
// fresh database file is brought to the latest version on Open.
//
// Dependency rule: this package may import dppath and obstacle; nothing in
// the planning core imports it.
package sqlite
