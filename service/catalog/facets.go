package catalog

import (
	"sort"
	"sync"

	"storefront.GO/core/registry"
	"storefront.GO/model/domain"
)

// FacetDef describes a domain facet a surface can filter on. Values extracts the product's
// values for the facet; Searchable facets also feed free-text search.
type FacetDef struct {
	Name       string
	Searchable bool
	Values     func(p domain.Product) []string
}

var pluginMu sync.Mutex

// RegisterFacetPlugin adds a surface-specific facet. Call from init(); panics once the facet
// registry has been built.
func RegisterFacetPlugin(def FacetDef) {
	pluginMu.Lock()
	defer pluginMu.Unlock()
	if registry.GlobalRegistry.IsLocked(registry.KeyRegistryFacets) {
		panic("catalog: facet plugins locked (register only during init)")
	}
	if def.Name == "" || def.Values == nil {
		panic("catalog: facet plugin needs a name and a value extractor")
	}
	list := facetPlugins()
	list = append(list, def)
	registry.GlobalRegistry.SetGlobal(registry.KeyRegistryFacets, list)
}

func facetPlugins() []FacetDef {
	if v, ok := registry.GlobalRegistry.GetGlobal(registry.KeyRegistryFacets); ok && v != nil {
		return v.([]FacetDef)
	}
	return nil
}

// FacetRegistry resolves facet names to definitions. It is read-only once built.
type FacetRegistry struct {
	defs  map[string]FacetDef
	order []string
}

func single(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

// BuiltinFacets are the facets every surface shares.
func BuiltinFacets() []FacetDef {
	return []FacetDef{
		{Name: "dietary", Values: func(p domain.Product) []string { return single(p.Facets.Dietary) }},
		{Name: "cuisine", Searchable: true, Values: func(p domain.Product) []string { return single(p.Facets.Cuisine) }},
		{Name: "spiceLevel", Values: func(p domain.Product) []string { return single(p.Facets.SpiceLevel) }},
		{Name: "size", Values: func(p domain.Product) []string { return p.Facets.Sizes }},
		{Name: "material", Searchable: true, Values: func(p domain.Product) []string { return single(p.Facets.Material) }},
		{Name: "color", Values: func(p domain.Product) []string { return p.Facets.Colors }},
	}
}

// NewFacetRegistry builds a registry from the built-in facets, the init-time plugins and
// extra. Later definitions replace earlier ones with the same name. Building locks plugin
// registration.
func NewFacetRegistry(extra ...FacetDef) *FacetRegistry {
	pluginMu.Lock()
	plugins := facetPlugins()
	registry.GlobalRegistry.Lock(registry.KeyRegistryFacets)
	pluginMu.Unlock()

	r := &FacetRegistry{defs: make(map[string]FacetDef)}
	for _, group := range [][]FacetDef{BuiltinFacets(), plugins, extra} {
		for _, def := range group {
			if _, exists := r.defs[def.Name]; !exists {
				r.order = append(r.order, def.Name)
			}
			r.defs[def.Name] = def
		}
	}
	return r
}

// Lookup returns the definition registered under name.
func (r *FacetRegistry) Lookup(name string) (FacetDef, bool) {
	if r == nil {
		return FacetDef{}, false
	}
	def, ok := r.defs[name]
	return def, ok
}

// ExtraFacet exposes a free-form attribute from Facets.Extra as a facet.
func ExtraFacet(name string, searchable bool) FacetDef {
	return FacetDef{Name: name, Searchable: searchable, Values: func(p domain.Product) []string {
		return single(p.Facets.Extra[name])
	}}
}

// Names lists registered facet names in registration order.
func (r *FacetRegistry) Names() []string {
	return append([]string(nil), r.order...)
}

// Searchable returns the facets that contribute text to search, sorted by name.
func (r *FacetRegistry) Searchable() []FacetDef {
	var out []FacetDef
	for _, name := range r.order {
		if def := r.defs[name]; def.Searchable {
			out = append(out, def)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
