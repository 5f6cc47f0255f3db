// Package registration connects application types to the serialization core
// at start-up. A Registrar owns one set of registries (type names,
// descriptors, serializers) and the factory bound to them; nothing is global
// except the optional list of declared hooks.
//
// Registration is expressed as hooks that are applied explicitly:
//
//	r := registration.New(cfg)
//	err := r.Apply(
//		registration.Defaults(),
//		registration.Struct[Point]("geo.Point"),
//		registration.Typed[Point]("bin", pointCodec{}),
//	)
//	data, err := factory.Serialize(r.Factory(), p, "json")
//
// Packages that want to register their types from init functions use Declare
// and the application calls ApplyDeclared once its registrar exists. Every
// hook is independent: Apply runs all of them and joins their errors.
package registration
