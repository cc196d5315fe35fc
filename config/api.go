package config

// GetAuthSkipperPaths returns a list of paths to skip authentication for
func GetAuthSkipperPaths() []string {
	// Catalog browsing, the shopper cart and GraphQL are public
	return []string{
		"/api/catalog/:vendor/products",
		"/api/catalog/:vendor/facets",
		"/api/cart",
		"/api/cart/items",
		"/api/cart/checkout",
		"/api/realtime/quote",
		"/graphql",
	}
}
