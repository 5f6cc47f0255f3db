// Package factory implements the dispatch layer of the serialization core. It
// combines the type name registry, the reflection registry and the serializer
// registry to pick a serializer for a value and a format name.
//
// Dispatch Order:
//
//  1. specialized serializer registered for the exact Go type and format
//  2. generic serializer of the format, driven by the descriptor registered
//     under the value's display name
//  3. ErrNoSerializer
//
// The display name of a value is taken from its TypeName method when it
// implements typename.Namer (dynamic schema messages do), otherwise from the
// type name registry with typename.DefaultName as fallback.
//
// Metrics:
//
//	Every factory owns a VictoriaMetrics metrics.Set with the counters
//	grl_dispatch_total{path,format} and grl_serialize_errors_total{format} and
//	the histogram grl_payload_bytes{format}. WritePrometheus exposes them.
//
// Usage:
//
//	f := factory.New(types, refl, serializers)
//	data, err := factory.Serialize(f, point, "json")
//	var p Point
//	err = factory.Deserialize(f, data, "json", &p)
package factory
