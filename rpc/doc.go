// Package rpc provides the serialization core of grl. Types are described once
// by a message descriptor and can then be encoded in every registered format.
//
// The package is organized into several subpackages:
//
//   - descriptor: Field and message descriptors with typed accessors, built by
//     hand, derived from struct tags or loaded from a schema.
//
//   - typename: Maps Go types to stable display names.
//
//   - reflection: Maps display names to message descriptors.
//
//   - serializer: Generic descriptor driven serializers (binary, proto, json,
//     msgpack, cbor), the specialized serializer interfaces and the registry
//     storing both. Specialized codecs live in serializer/typed.
//
//   - factory: Dispatches serialization requests, specialized serializers
//     first with the generic serializer as fallback.
//
//   - schema: Loads message descriptors from HCL schema files and provides a
//     dynamic message type for them.
//
//   - registration: Registers types, descriptors and serializers at start-up.
//
//   - common: Configuration and logging shared across the packages.
package rpc
