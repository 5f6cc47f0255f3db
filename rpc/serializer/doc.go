// Package serializer provides the format backends of the serialization core and
// the registry that stores them. It defines two kinds of serializers:
//
//   - IGenericSerializer: encodes any type by walking its MessageDescriptor. The
//     serializer never sees the concrete Go type, it only calls the field
//     accessors of the descriptor.
//
//   - ITypedSerializer[T]: a hand-written codec for exactly one value type. These
//     are stored behind the type-erased ITypedSerializerBase handle and recovered
//     with a checked downcast, a mismatch is reported as "not found".
//
// Generic Implementations:
//
//   - binarySerializerImpl ("binary"): Compact format with a presence bitmap
//     followed by the present fields in declaration order. Fastest and smallest,
//     but both sides must use the same descriptor.
//
//   - protoSerializerImpl ("proto"): Protobuf wire format keyed by field number,
//     built on protowire. Payloads can be read by protobuf messages with the same
//     field numbers and types. Unknown fields are skipped.
//
//   - jsonSerializerImpl ("json"): JSON objects keyed by field name, built on
//     sonic. Human-readable, useful for debugging and integration. NaN and
//     the infinities are written as strings.
//
//   - msgpackSerializerImpl ("msgpack"): MessagePack maps keyed by field name,
//     built on ugorji/go codec.
//
//   - cborSerializerImpl ("cbor"): canonical CBOR maps keyed by field name,
//     built on fxamacker/cbor.
//
// Registry:
//
//	Generic serializers are keyed by format name, specialized serializers by
//	(value type, format name). Registration is last-write-wins unless the
//	registry is created with WithStrict.
//
// Thread Safety:
//
//	All serializer implementations are stateless and safe for concurrent use.
//	The Registry is backed by xsync maps and safe for concurrent use.
//
// Usage:
//
//	reg := serializer.NewRegistry()
//	_ = reg.RegisterGeneric("", serializer.NewJSONSerializer())
//	s, _ := reg.Generic("json")
//	data, err := s.Serialize(&point, pointDesc)
package serializer
