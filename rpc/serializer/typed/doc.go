// Package typed provides ready-made specialized serializers. Each one handles
// exactly one value type T and is registered with serializer.RegisterTyped,
// where it takes precedence over the generic, descriptor-driven path for its
// (type, format) pair.
//
// Implementations:
//
//   - NewJSON[T]: JSON via sonic, using T's struct tags
//   - NewProto[T]: protobuf for generated message types
//   - NewMsgpack[T]: MessagePack via ugorji/go codec, using T's struct tags
//   - NewCBOR[T]: canonical CBOR via fxamacker/cbor, using T's struct tags
//   - Funcs[T]: adapter for hand-written encode/decode functions
//
// All implementations are stateless and safe for concurrent use.
package typed
