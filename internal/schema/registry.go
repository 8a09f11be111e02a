package schema

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	genqerrors "github.com/roach88/genq/internal/errors"
)

// DisabledPrefix is the fallback prefix value that turns the fallback off.
const DisabledPrefix = "none"

// Source enumerates record types and their fields. Persistence engines
// implement it from their catalog; the CUE loader implements it from
// definition files.
type Source interface {
	ListRegisteredTypes(ctx context.Context) ([]Definition, error)
	DeclaredFields(ctx context.Context, def Definition) ([]Field, error)
}

// Registry is the process-wide, read-only snapshot of record types. It is
// built once before serving and never mutated, so concurrent reads need no
// locking.
type Registry struct {
	types []*RecordType
	// folded type name -> index of the first type with that name
	byName map[string]int
}

// Option configures registry construction.
type Option func(*options)

type options struct {
	internal map[string]struct{}
}

// WithInternalFields marks the named fields (case-insensitively) as engine
// metadata on every type.
func WithInternalFields(names ...string) Option {
	return func(o *options) {
		for _, n := range names {
			n = strings.TrimSpace(n)
			if n == "" {
				continue
			}
			o.internal[Fold(n)] = struct{}{}
		}
	}
}

// NewRegistry freezes defs into a Registry. Definitions keep their order;
// exact duplicate names are rejected.
func NewRegistry(defs []Definition, opts ...Option) (*Registry, error) {
	o := &options{internal: map[string]struct{}{}}
	for _, opt := range opts {
		opt(o)
	}

	r := &Registry{
		types:  make([]*RecordType, 0, len(defs)),
		byName: make(map[string]int, len(defs)),
	}
	seen := make(map[string]struct{}, len(defs))
	for _, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("record type with empty name")
		}
		if _, dup := seen[def.Name]; dup {
			return nil, fmt.Errorf("duplicate record type %q", def.Name)
		}
		seen[def.Name] = struct{}{}

		key := Fold(def.Name)
		if _, ok := r.byName[key]; !ok {
			r.byName[key] = len(r.types)
		}
		r.types = append(r.types, newRecordType(def, o.internal))
	}
	return r, nil
}

// Load builds a Registry from a Source, asking for declared fields of every
// type the source did not describe inline.
func Load(ctx context.Context, src Source, opts ...Option) (*Registry, error) {
	defs, err := src.ListRegisteredTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list registered types: %w", err)
	}

	for i := range defs {
		if defs[i].Fields != nil {
			continue
		}
		fields, err := src.DeclaredFields(ctx, defs[i])
		if err != nil {
			return nil, fmt.Errorf("declared fields of %s: %w", defs[i].Name, err)
		}
		defs[i].Fields = fields
	}

	return NewRegistry(defs, opts...)
}

// Types returns every registered type in registration order.
func (r *Registry) Types() []*RecordType {
	out := make([]*RecordType, len(r.types))
	copy(out, r.types)
	return out
}

// Names returns the canonical names of every registered type.
func (r *Registry) Names() []string {
	names := make([]string, len(r.types))
	for i, t := range r.types {
		names[i] = t.Name()
	}
	return names
}

// Lookup finds the type whose name equals name case-insensitively. There is
// no partial or fuzzy matching.
func (r *Registry) Lookup(name string) (*RecordType, bool) {
	i, ok := r.byName[Fold(name)]
	if !ok {
		return nil, false
	}
	return r.types[i], true
}

// Resolver maps free-text entity names to registered types, retrying once
// with a configured fallback prefix.
type Resolver struct {
	registry       *Registry
	fallbackPrefix string
	log            *slog.Logger
}

// NewResolver creates a Resolver. A fallbackPrefix of "" or DisabledPrefix
// disables the fallback.
func NewResolver(registry *Registry, fallbackPrefix string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		registry:       registry,
		fallbackPrefix: fallbackPrefix,
		log:            logger,
	}
}

// FallbackEnabled reports whether misses are retried with the prefix.
func (r *Resolver) FallbackEnabled() bool {
	return r.fallbackPrefix != "" && r.fallbackPrefix != DisabledPrefix
}

// Resolve returns the registered type for name, or a not_found error when
// neither name nor prefix+name match.
func (r *Resolver) Resolve(name string) (*RecordType, error) {
	r.log.Debug("resolving entity", "entity", name, "registered", strings.Join(r.registry.Names(), ", "))

	if rt, ok := r.registry.Lookup(name); ok {
		return rt, nil
	}
	if r.FallbackEnabled() {
		if rt, ok := r.registry.Lookup(r.fallbackPrefix + name); ok {
			r.log.Debug("resolved entity via fallback prefix", "entity", name, "type", rt.Name())
			return rt, nil
		}
	}
	return nil, genqerrors.NotFound(name)
}
