// Package typename maps Go types to human-readable display names and back.
//
// The display name is the key that links a type to its descriptor in the
// reflection registry. By convention registration code uses the same name for
// both registries; the two are not kept consistent automatically.
//
// Key Components:
//
//   - Registry: bidirectional type <-> name map guarded by a single lock.
//     Absence is never an error: NameOf returns "" and IsRegistered false.
//
//   - DefaultName: the name derived from the type itself ("pkg.Type") when
//     no custom name was supplied.
//
//   - Namer: optional interface for values that name themselves, e.g. dynamic
//     messages whose Go type is shared by many schemas.
//
// Duplicate registrations are last-write-wins unless the registry is created
// with WithStrict, in which case conflicts return ErrConflictingRegistration.
//
// Usage:
//
//	names := typename.New()
//	_ = typename.Register[Point](names, "geo.Point")
//	names.NameOfType(reflect.TypeFor[Point]()) // "geo.Point"
package typename
