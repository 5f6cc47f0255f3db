// Package reflection provides the registry of message descriptors consulted by
// the generic serialization path.
//
// The registry is keyed by display name only. It deliberately knows nothing
// about Go types: the link between a type and its descriptor is the name
// under which registration code stores both (see package typename).
//
// Usage:
//
//	descs := reflection.New()
//	_ = descs.Register("geo.Point", pointDescriptor)
//	desc, ok := descs.Descriptor("geo.Point")
package reflection
