package resolvers

import (
	"context"

	"storefront.GO/graphql"
	gqlmodels "storefront.GO/graphql/models"
)

// Cart returns the session's ledger without opening a new one. A missing session resolves
// to null.
func (r *QueryResolver) Cart(ctx context.Context, args struct{ Session *string }) (*gqlmodels.Cart, error) {
	if r.carts == nil {
		return nil, nil
	}
	id := deref(args.Session)
	if id == "" {
		id = graphql.SessionFromContext(ctx)
	}
	if id == "" {
		return nil, nil
	}
	ledger, ok := r.carts.Peek(id)
	if !ok {
		return nil, nil
	}
	return toCart(id, ledger.Snapshot()), nil
}
