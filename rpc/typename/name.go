package typename

import "reflect"

// DefaultName returns the human-readable name of t used when no custom name is
// registered. Pointers are unwrapped to their element so that T and *T share a
// name; named types render as "<package>.<Name>" (e.g. "model.Point"), unnamed
// types use their literal form (e.g. "[]int32").
//
// Two types with the same name in different packages that share the same
// package name collide. Registration code should pass a custom name for such types.
func DefaultName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Ptr && t.Name() == "" {
		t = t.Elem()
	}
	return t.String()
}

// DefaultNameOf returns DefaultName for T
func DefaultNameOf[T any]() string {
	return DefaultName(reflect.TypeFor[T]())
}
