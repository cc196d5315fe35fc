package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	catalogApi "storefront.GO/api/catalog"
	"storefront.GO/model/domain"
)

var (
	queryVendor string
	queryParams []string
	queryJSON   bool
)

var catalogQueryCmd = &cobra.Command{
	Use:   "catalog:query",
	Short: "Filter, sort and page a vendor catalog from the command line",
	Example: `  storefront catalog:query --vendor v1 -p q=tee -p facet.size=M -p sort=price -p dir=desc
  storefront catalog:query --vendor v1 -p stock=low_stock --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := paramValues(queryParams)
		if err != nil {
			return err
		}
		a, err := openApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		cat, err := a.Store.Load(cmd.Context(), queryVendor)
		if err != nil {
			return err
		}
		page := a.Engine.Query(cat, catalogApi.ParseQuery(values))
		if queryJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(page)
		}
		printPage(cmd.OutOrStdout(), page)
		return nil
	},
}

// paramValues parses key=value pairs into listing query params.
func paramValues(pairs []string) (url.Values, error) {
	v := url.Values{}
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("param %q: want key=value", p)
		}
		v.Add(strings.TrimSpace(key), value)
	}
	return v, nil
}

func printPage(w io.Writer, page domain.Page) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK\tSTATUS")
	for _, p := range page.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\t%s\n",
			p.ID, p.Name, p.Category, p.DisplayPrice(), p.Stock, domain.StatusOf(p.Stock.Total()))
	}
	tw.Flush()
	fmt.Fprintf(w, "\npage %d/%d, %d matching, page size %d\n", page.Page, page.TotalPages, page.TotalCount, page.PageSize)
}

func init() {
	catalogQueryCmd.Flags().StringVar(&queryVendor, "vendor", "", "Vendor id (required)")
	catalogQueryCmd.MarkFlagRequired("vendor")
	catalogQueryCmd.Flags().StringArrayVarP(&queryParams, "param", "p", nil, "Listing param as key=value (q, category, stock, min_price, max_price, facet.<name>, sort, dir, page, page_size)")
	catalogQueryCmd.Flags().BoolVar(&queryJSON, "json", false, "Print the page as JSON")
	rootCmd.AddCommand(catalogQueryCmd)
}
