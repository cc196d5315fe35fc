package registry

// Core keys for GlobalRegistry.
const (
	// Extension registries (cmd, cron, api, graphql, facets), filled from init() and locked on first use.
	KeyRegistryCmd     = "registry:cmd"
	KeyRegistryCron    = "registry:cron"
	KeyRegistryAPI     = "registry:api"
	KeyRegistryRoutes  = "registry:routes"
	KeyRegistryGraphQL = "registry:graphql"
	KeyRegistryFacets  = "registry:facets"
)
