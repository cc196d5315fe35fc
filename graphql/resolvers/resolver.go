package resolvers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"storefront.GO/core/logging"
	"storefront.GO/graphql"
	gqlregistry "storefront.GO/graphql/registry"
	catalogService "storefront.GO/service/catalog"
	cartService "storefront.GO/service/cart"
)

// errVendorRequired is returned when neither the argument nor the request names a vendor.
var errVendorRequired = errors.New("vendor is required (argument, Vendor header or __Vendor variable)")

// Deps are the services resolvers read from. Carts may be nil.
type Deps struct {
	Store  *catalogService.Store
	Engine *catalogService.Engine
	Carts  *cartService.Sessions
	Logger *zap.Logger
}

// QueryResolver is the single resolver for all Query fields.
// Methods live in catalog.go and cart.go.
// New Query fields: use RegisterSchemaExtension + add method on QueryResolver,
// or use _extension for fully dynamic resolvers.
type QueryResolver struct {
	store  *catalogService.Store
	engine *catalogService.Engine
	carts  *cartService.Sessions
	logger *zap.Logger
}

func NewQueryResolver(deps Deps) *QueryResolver {
	engine := deps.Engine
	if engine == nil {
		engine = catalogService.NewEngine(catalogService.EngineOptions{Logger: deps.Logger})
	}
	return &QueryResolver{
		store:  deps.Store,
		engine: engine,
		carts:  deps.Carts,
		logger: logging.OrNop(deps.Logger),
	}
}

func (r *QueryResolver) vendor(ctx context.Context, arg *string) (string, error) {
	if arg != nil && strings.TrimSpace(*arg) != "" {
		return strings.TrimSpace(*arg), nil
	}
	if v := graphql.VendorFromContext(ctx); v != "" {
		return v, nil
	}
	return "", errVendorRequired
}

func (r *QueryResolver) catalog(ctx context.Context, vendorArg *string) (catalogService.Catalog, error) {
	vendorID, err := r.vendor(ctx, vendorArg)
	if err != nil {
		return catalogService.Catalog{}, err
	}
	if r.store == nil {
		return catalogService.Catalog{}, errors.New("catalog store not configured")
	}
	cat, err := r.store.Load(ctx, vendorID)
	if err != nil {
		r.logger.Warn("graphql catalog load failed", zap.String("vendorId", vendorID), zap.Error(err))
		return catalogService.Catalog{}, err
	}
	return cat, nil
}

// Extension dispatches to registered custom resolvers.
func (r *QueryResolver) Extension(ctx context.Context, args struct {
	Name string
	Args *string
}) (*string, error) {
	m := make(map[string]interface{})
	if args.Args != nil && *args.Args != "" {
		if err := json.Unmarshal([]byte(*args.Args), &m); err != nil {
			return nil, err
		}
	}
	out, err := gqlregistry.Resolve(ctx, args.Name, m)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}
