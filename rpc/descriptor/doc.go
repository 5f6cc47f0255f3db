// Package descriptor defines the metadata that describes the serializable shape
// of a type: its fields, their wire types and field numbers, and an accessor
// pair per field. Generic serializers work exclusively through this metadata
// and never touch the described type directly.
//
// Key Components:
//
//   - FieldType: the closed set of wire types (INT32 ... MESSAGE) together with
//     the canonical Go type every accessor exchanges (int32, int64, uint32,
//     uint64, float32, float64, string, bool, []byte, *Nested).
//
//   - FieldDescriptor / MessageDescriptor: passive metadata. Field order is the
//     declaration order. Names and numbers are unique per message.
//
//   - Builder: type-safe construction with explicit accessor functions.
//
//   - FromStruct: derives a descriptor from `grl:"name,number"` struct tags.
//
// Accessors check the instance type they receive. Using a descriptor with an
// instance of another type yields ErrTypeMismatch instead of corrupting memory.
//
// Thread Safety:
//
//	Descriptors are built by a single goroutine and read-only afterwards. Reading
//	and using a finished descriptor from many goroutines is safe.
package descriptor
