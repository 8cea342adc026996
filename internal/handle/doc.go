// Package handle defines burrow's value-access layer: a Handle locates and
// mutates a value of a known type without the caller knowing whether the
// value lives in plain memory or in a persistent store.
//
// A backend implements exactly two extension points, Location.Perform for
// mutations and Location.Query for reads, each tagged by a code from a
// closed enumeration. Every higher-level accessor on Handle funnels through
// those two verbs after validating type-shape compatibility, so an
// incompatible request fails with ErrTypeIncompatible before it ever
// reaches a backend.
//
// The protocol is synchronous: a Perform or Query call completes before
// the next is issued, and either fully applies its effect or fails without
// mutating the location. Handles do not own the values they locate;
// aliased handles over the same location are the backend's concurrency
// concern, and this layer only guarantees read-after-write ordering
// through a single handle.
package handle
