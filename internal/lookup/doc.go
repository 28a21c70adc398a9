// Package lookup builds the call-scoped, read-only lookup maps consulted by
// every query worker: per-entity exclusions, the global or per-entity item
// restriction, the new-observation overlay and new side data.
//
// Maps are built once per call before any worker starts. Construction is
// parallel: table rows are handed out to workers through an atomic cursor,
// then every per-entity vector is sorted and deduplicated independently.
package lookup
