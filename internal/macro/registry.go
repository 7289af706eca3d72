package macro

import (
	"fmt"
	"maps"
	"slices"
	"sort"

	"go.starlark.net/starlark"

	pgstar "github.com/leapstack-labs/pgdef/internal/starlark"
	"github.com/leapstack-labs/pgdef/pkg/spi"
)

// ReservedNamespaces cannot be used as macro file names because templates
// already see a global of that name.
var ReservedNamespaces = reservedNamespaces()

func reservedNamespaces() []string {
	names := []string{
		spi.AttrName, spi.AttrComment, spi.AttrOwner, spi.AttrTablespace,
		spi.AttrSchema, spi.AttrCollation, spi.AttrProtected,
		spi.AttrSQLDisabled, spi.AttrDifSQL, spi.AttrSQLObject,
		spi.AttrReducedForm, "template_name",
	}
	names = append(names, slices.Collect(maps.Keys(pgstar.Builtins()))...)
	sort.Strings(names)
	return slices.Compact(names)
}

// Registry holds loaded macro modules by namespace.
type Registry struct {
	modules map[string]*LoadedModule
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]*LoadedModule)}
}

// Register adds a module. Reserved and duplicate namespaces are rejected.
func (r *Registry) Register(m *LoadedModule) error {
	if slices.Contains(ReservedNamespaces, m.Namespace) {
		return &RegistryError{
			Namespace: m.Namespace,
			Message:   "namespace is reserved",
		}
	}
	if existing, ok := r.modules[m.Namespace]; ok {
		return &RegistryError{
			Namespace: m.Namespace,
			Message:   fmt.Sprintf("already defined in %s", existing.Path),
		}
	}
	r.modules[m.Namespace] = m
	return nil
}

// RegisterAll registers modules in order and stops at the first error.
func (r *Registry) RegisterAll(modules []*LoadedModule) error {
	for _, m := range modules {
		if err := r.Register(m); err != nil {
			return err
		}
	}
	return nil
}

// Has reports whether namespace is registered.
func (r *Registry) Has(namespace string) bool {
	_, ok := r.modules[namespace]
	return ok
}

// Get returns the module registered under namespace, or nil.
func (r *Registry) Get(namespace string) *LoadedModule {
	return r.modules[namespace]
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	return len(r.modules)
}

// Namespaces returns the registered namespaces, sorted.
func (r *Registry) Namespaces() []string {
	names := slices.Collect(maps.Keys(r.modules))
	sort.Strings(names)
	return names
}

// ToStarlarkDict exposes every module as a template global.
func (r *Registry) ToStarlarkDict() starlark.StringDict {
	dict := make(starlark.StringDict, len(r.modules))
	for name, m := range r.modules {
		dict[name] = &starlarkModule{name: name, exports: m.Exports}
	}
	return dict
}

// LoadAndRegister loads every module in dir into a new registry.
// A missing directory yields an empty registry.
func LoadAndRegister(dir string) (*Registry, error) {
	modules, err := NewLoader(dir).Load()
	if err != nil {
		return nil, err
	}
	registry := NewRegistry()
	if err := registry.RegisterAll(modules); err != nil {
		return nil, err
	}
	return registry, nil
}

// starlarkModule is a namespace value: its exports are reached as
// attributes, e.g. pg.quote_ident(name).
type starlarkModule struct {
	name    string
	exports starlark.StringDict
}

var _ starlark.HasAttrs = (*starlarkModule)(nil)

func (m *starlarkModule) String() string        { return "<module " + m.name + ">" }
func (m *starlarkModule) Type() string          { return "module" }
func (m *starlarkModule) Freeze()               { m.exports.Freeze() }
func (m *starlarkModule) Truth() starlark.Bool  { return starlark.True }
func (m *starlarkModule) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: module") }

func (m *starlarkModule) Attr(name string) (starlark.Value, error) {
	v, ok := m.exports[name]
	if !ok {
		return nil, starlark.NoSuchAttrError(fmt.Sprintf("module %s has no attribute %q", m.name, name))
	}
	return v, nil
}

func (m *starlarkModule) AttrNames() []string {
	return m.exports.Keys()
}

// RegistryError reports a module that cannot be registered.
type RegistryError struct {
	Namespace string
	Message   string
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("macro namespace %q: %s", e.Namespace, e.Message)
}
