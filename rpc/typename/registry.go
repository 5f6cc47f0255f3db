package typename

import (
	"errors"
	"reflect"
	"sort"
	"sync"
)

var (
	// ErrNilType is returned when a nil reflect.Type is registered.
	ErrNilType = errors.New("typename: nil reflect.Type provided")
	// ErrEmptyName is returned when a type resolves to an empty name.
	ErrEmptyName = errors.New("typename: empty name provided")
	// ErrConflictingRegistration is returned in strict mode when a type is
	// re-registered with a different name or a name is claimed by a second type.
	ErrConflictingRegistration = errors.New("typename: conflicting type registration")
)

// Namer lets a value report its own display name. It takes precedence over
// the registry in Resolve-style lookups that have an instance at hand.
type Namer interface {
	TypeName() string
}

// Option configures a Registry
type Option func(r *Registry)

// WithStrict makes conflicting registrations fail with ErrConflictingRegistration
// instead of silently overwriting the previous entry.
func WithStrict() Option {
	return func(r *Registry) {
		r.strict = true
	}
}

// Registry maps Go types to display names and back.
//
// Thread-safe: every method holds the registry lock for its full duration.
// Calls are atomic with respect to each other but not composable.
type Registry struct {
	mu     sync.RWMutex
	names  map[reflect.Type]string // type -> display name
	types  map[string]reflect.Type // display name -> type
	strict bool
}

// New creates an empty type name registry
func New(opts ...Option) *Registry {
	r := &Registry{
		names: make(map[reflect.Type]string),
		types: make(map[string]reflect.Type),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// --------------------------------------------------------------------------
// Registration
// --------------------------------------------------------------------------

// Register registers T under customName, or under DefaultName if no custom name is given.
func Register[T any](r *Registry, customName ...string) error {
	name := ""
	if len(customName) > 0 {
		name = customName[0]
	}
	return r.RegisterType(reflect.TypeFor[T](), name)
}

// RegisterType stores t -> name and name -> t. An empty customName selects DefaultName(t).
//
// Outside strict mode the last write wins: re-registering t replaces its name, and
// registering an existing name for a different type re-points the reverse mapping
// while the first type keeps its (now shared) name. Concurrent registrations of the
// same name are a race whose outcome is unspecified.
func (r *Registry) RegisterType(t reflect.Type, customName string) error {
	if t == nil {
		return ErrNilType
	}
	name := customName
	if name == "" {
		name = DefaultName(t)
	}
	if name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	oldName, hasOld := r.names[t]
	owner, claimed := r.types[name]

	if r.strict {
		if hasOld && oldName != name {
			return ErrConflictingRegistration
		}
		if claimed && owner != t {
			return ErrConflictingRegistration
		}
	}

	// drop the stale reverse entry when t is renamed
	if hasOld && oldName != name {
		if cur, ok := r.types[oldName]; ok && cur == t {
			delete(r.types, oldName)
		}
	}

	r.names[t] = name
	r.types[name] = t
	return nil
}

// --------------------------------------------------------------------------
// Lookup
// --------------------------------------------------------------------------

// NameOf returns the registered name of T or "" if T was never registered
func NameOf[T any](r *Registry) string {
	return r.NameOfType(reflect.TypeFor[T]())
}

// IsRegistered reports whether T has a registered name
func IsRegistered[T any](r *Registry) bool {
	return r.IsTypeRegistered(reflect.TypeFor[T]())
}

// NameOfType returns the registered name of t or "" if t was never registered
func (r *Registry) NameOfType(t reflect.Type) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names[t]
}

// IsTypeRegistered reports whether t has a registered name
func (r *Registry) IsTypeRegistered(t reflect.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.names[t]
	return ok
}

// HasName reports whether any type is registered under name
func (r *Registry) HasName(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.types[name]
	return ok
}

// TypeOf returns the type currently registered under name
func (r *Registry) TypeOf(name string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// Resolve returns the name used to look up descriptors for t: the registered
// name of t, else the registered name of its pointer element, else DefaultName(t).
func (r *Registry) Resolve(t reflect.Type) string {
	if t == nil {
		return ""
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name, ok := r.names[t]; ok {
		return name
	}
	if t.Kind() == reflect.Ptr {
		if name, ok := r.names[t.Elem()]; ok {
			return name
		}
	}
	return DefaultName(t)
}

// Names returns all registered names, sorted and without duplicates
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{}, len(r.names))
	names := make([]string, 0, len(r.names))
	for _, name := range r.names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered types
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// Clear removes all registrations. Intended for test setup; callers must not
// race it against other registry operations if they depend on the result.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = make(map[reflect.Type]string)
	r.types = make(map[string]reflect.Type)
}
