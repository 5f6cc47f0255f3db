package registration

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ValentinKolb/grl/rpc/common"
	"github.com/ValentinKolb/grl/rpc/factory"
	"github.com/ValentinKolb/grl/rpc/reflection"
	"github.com/ValentinKolb/grl/rpc/serializer"
	"github.com/ValentinKolb/grl/rpc/typename"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("registration")

// Registrar owns the registries of an application. It is created once at
// start-up and handed to everything that registers or serializes types.
type Registrar struct {
	TypeNames   *typename.Registry
	Reflection  *reflection.Registry
	Serializers *serializer.Registry

	config  common.Config
	factory *factory.Factory
}

// Hook registers something with a Registrar. Hooks are self-contained, a
// failing hook does not affect the others.
type Hook func(r *Registrar) error

// New creates a registrar with empty registries. With cfg.StrictRegistration
// every registry rejects duplicate registrations.
func New(cfg common.Config) *Registrar {
	var (
		typeOpts []typename.Option
		reflOpts []reflection.Option
		serOpts  []serializer.Option
	)
	if cfg.StrictRegistration {
		typeOpts = append(typeOpts, typename.WithStrict())
		reflOpts = append(reflOpts, reflection.WithStrict())
		serOpts = append(serOpts, serializer.WithStrict())
	}

	r := &Registrar{
		TypeNames:   typename.New(typeOpts...),
		Reflection:  reflection.New(reflOpts...),
		Serializers: serializer.NewRegistry(serOpts...),
		config:      cfg,
	}
	r.factory = factory.New(r.TypeNames, r.Reflection, r.Serializers)
	return r
}

// Config returns the configuration the registrar was created with
func (r *Registrar) Config() common.Config {
	return r.config
}

// Factory returns the factory bound to the registries of r
func (r *Registrar) Factory() *factory.Factory {
	return r.factory
}

// Apply runs every hook and returns all failures joined. A failing hook never
// stops the remaining hooks.
func (r *Registrar) Apply(hooks ...Hook) error {
	var errs []error
	for i, hook := range hooks {
		if hook == nil {
			continue
		}
		if err := hook(r); err != nil {
			Logger.Warningf("registration hook %d failed: %v", i, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ApplyConfig registers the built-in generic formats and loads every schema
// file named in the configuration
func (r *Registrar) ApplyConfig() error {
	hooks := []Hook{Defaults()}
	for _, path := range r.config.SchemaFiles {
		hooks = append(hooks, Schema(path))
	}
	return r.Apply(hooks...)
}

// --------------------------------------------------------------------------
// Declarations
// --------------------------------------------------------------------------

var (
	declaredMu sync.Mutex
	declared   []Hook
)

// Declare queues hooks to be applied by ApplyDeclared. It is meant to be
// called from init functions, the order of declarations does not matter.
func Declare(hooks ...Hook) {
	declaredMu.Lock()
	defer declaredMu.Unlock()
	declared = append(declared, hooks...)
}

// ApplyDeclared applies every declared hook to r. It can be called for any
// number of registrars.
func (r *Registrar) ApplyDeclared() error {
	declaredMu.Lock()
	hooks := make([]Hook, len(declared))
	copy(hooks, declared)
	declaredMu.Unlock()

	Logger.Debugf("applying %d declared registration hooks", len(hooks))
	if err := r.Apply(hooks...); err != nil {
		return fmt.Errorf("declared registrations failed: %w", err)
	}
	return nil
}
