// Package typesys defines the descriptor vocabulary for burrow's object
// model: a closed set of type shapes (primitives, tuples, structs, variants,
// lists, sets, references, and type-erased dynamic values).
//
// Descriptors are identified by reference, not structure: two independently
// constructed struct descriptors with identical field lists are distinct
// types. Derived descriptors (List, Set, Reference) are memoized per base
// type so repeated derivation preserves pointer equality.
//
// Descriptors are immutable after construction, with one deliberate
// exception: Fix back-patches a reference's target exactly once to express
// self-referential schemas.
package typesys
