package resolvers

import (
	"context"

	gql "github.com/graph-gophers/graphql-go"

	gqlmodels "storefront.GO/graphql/models"
	"storefront.GO/model/domain"
	catalogService "storefront.GO/service/catalog"
)

// FacetInput matches the FacetInput input type.
type FacetInput struct {
	Name  string
	Value string
}

// ProductsArgs matches the products query arguments (defaults in schema: page=1, pageSize=20).
type ProductsArgs struct {
	Vendor        *string
	Search        *string
	Category      *string
	StockStatus   *string
	MinPrice      *float64
	MaxPrice      *float64
	Facets        *[]FacetInput
	SortField     *string
	SortDirection *string
	Page          int32
	PageSize      int32
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Query converts the arguments into an engine query.
func (a ProductsArgs) Query() catalogService.Query {
	q := catalogService.Query{
		Criteria: domain.FilterCriteria{
			SearchTerm:  deref(a.Search),
			Category:    deref(a.Category),
			StockStatus: domain.ParseStockStatus(deref(a.StockStatus)),
			PriceRange:  domain.PriceRange{Min: a.MinPrice, Max: a.MaxPrice},
		},
		Sort: domain.SortSpec{
			Field:     deref(a.SortField),
			Direction: catalogService.ParseDirection(deref(a.SortDirection)),
		},
		Page:     int(a.Page),
		PageSize: int(a.PageSize),
	}
	if a.Facets != nil {
		for _, f := range *a.Facets {
			q.Criteria.Facets = append(q.Criteria.Facets, domain.FacetSelection{Name: f.Name, Value: f.Value})
		}
	}
	return q
}

func (r *QueryResolver) Products(ctx context.Context, args ProductsArgs) (*gqlmodels.ProductPage, error) {
	cat, err := r.catalog(ctx, args.Vendor)
	if err != nil {
		return nil, err
	}
	page := r.engine.Query(cat, args.Query())
	out := &gqlmodels.ProductPage{
		Items:      make([]*gqlmodels.Product, 0, len(page.Items)),
		TotalCount: int32(page.TotalCount),
		TotalPages: int32(page.TotalPages),
		Page:       int32(page.Page),
		PageSize:   int32(page.PageSize),
	}
	for _, p := range page.Items {
		out.Items = append(out.Items, r.toProduct(p))
	}
	return out, nil
}

// ProductArgs matches the product query arguments.
type ProductArgs struct {
	Vendor *string
	ID     gql.ID
}

func (r *QueryResolver) Product(ctx context.Context, args ProductArgs) (*gqlmodels.Product, error) {
	cat, err := r.catalog(ctx, args.Vendor)
	if err != nil {
		return nil, err
	}
	p, ok := cat.Find(string(args.ID))
	if !ok {
		return nil, nil
	}
	return r.toProduct(p), nil
}

func (r *QueryResolver) Facets(ctx context.Context, args struct{ Vendor *string }) (*gqlmodels.CatalogSummary, error) {
	cat, err := r.catalog(ctx, args.Vendor)
	if err != nil {
		return nil, err
	}
	return toSummary(catalogService.Summarize(cat.Products, r.engine.Filter().Facets()), r.engine.Filter().Facets().Names()), nil
}
