package custom

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"storefront.GO/api"
	"storefront.GO/cmd"
	"storefront.GO/cron"
	gql "storefront.GO/graphql"
	gqlregistry "storefront.GO/graphql/registry"
	catalogService "storefront.GO/service/catalog"
)

func init() {
	// Facets: free-form attributes from the feed, filterable as facet.servingSize / facet.fit
	catalogService.RegisterFacetPlugin(catalogService.ExtraFacet("servingSize", false))
	catalogService.RegisterFacetPlugin(catalogService.ExtraFacet("fit", true))

	// GraphQL extension: query { _extension(name: "ping") }
	gqlregistry.Register("ping", func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return map[string]string{"pong": "ok", "vendor": gql.VendorFromContext(ctx)}, nil
	})

	// CLI command
	cmd.Register(&cobra.Command{
		Use:   "custom:hello",
		Short: "Custom command example",
		Run: func(c *cobra.Command, args []string) {
			fmt.Fprintln(c.OutOrStdout(), "Hello from custom command")
		},
	})

	// Cron job
	cron.Register("customping", "@every 1m", func(args ...string) {
		fmt.Println("Custom cron: ping at", args)
	})

	// HTTP route
	api.RegisterGET("/custom/ping", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"pong": "ok"})
	})
}
