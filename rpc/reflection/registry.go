package reflection

import (
	"errors"
	"sort"

	"github.com/ValentinKolb/grl/rpc/descriptor"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("registry")

var (
	// ErrEmptyName is returned when a descriptor is registered under an empty name
	ErrEmptyName = errors.New("reflection: empty name provided")
	// ErrNilDescriptor is returned when a nil descriptor is registered
	ErrNilDescriptor = errors.New("reflection: nil descriptor provided")
	// ErrConflictingRegistration is returned in strict mode when a name is
	// registered a second time with a different descriptor
	ErrConflictingRegistration = errors.New("reflection: conflicting descriptor registration")
)

// Option configures a Registry
type Option func(r *Registry)

// WithStrict rejects re-registering a name with a different descriptor
func WithStrict() Option {
	return func(r *Registry) {
		r.strict = true
	}
}

// Registry maps display names to message descriptors. It is the single source
// of truth for the generic serialization path.
//
// Thread-safe: every operation is atomic. Registered descriptors must not be modified.
type Registry struct {
	descriptors *xsync.MapOf[string, *descriptor.MessageDescriptor]
	strict      bool
}

// New creates an empty reflection registry
func New(opts ...Option) *Registry {
	r := &Registry{
		descriptors: xsync.NewMapOf[string, *descriptor.MessageDescriptor](),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register stores desc under name. Outside strict mode an existing entry is
// overwritten (last write wins).
func (r *Registry) Register(name string, desc *descriptor.MessageDescriptor) error {
	if name == "" {
		return ErrEmptyName
	}
	if desc == nil {
		return ErrNilDescriptor
	}

	if !r.strict {
		if _, replaced := r.descriptors.LoadAndStore(name, desc); replaced {
			Logger.Debugf("descriptor %q replaced", name)
		}
		return nil
	}

	var conflict bool
	r.descriptors.Compute(name, func(old *descriptor.MessageDescriptor, loaded bool) (*descriptor.MessageDescriptor, bool) {
		if loaded && old != desc {
			conflict = true
			return old, false
		}
		return desc, false
	})
	if conflict {
		return ErrConflictingRegistration
	}
	return nil
}

// Descriptor returns the descriptor registered under name
func (r *Registry) Descriptor(name string) (*descriptor.MessageDescriptor, bool) {
	return r.descriptors.Load(name)
}

// Has reports whether a descriptor is registered under name
func (r *Registry) Has(name string) bool {
	_, ok := r.descriptors.Load(name)
	return ok
}

// Names returns all registered names in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, r.descriptors.Size())
	r.descriptors.Range(func(name string, _ *descriptor.MessageDescriptor) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}

// Count returns the number of registered descriptors
func (r *Registry) Count() int {
	return r.descriptors.Size()
}

// Clear removes all descriptors. Intended for test isolation.
func (r *Registry) Clear() {
	r.descriptors.Clear()
}
