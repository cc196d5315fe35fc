package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	catalogRepo "storefront.GO/model/repository/catalog"
)

var (
	importFile    string
	importVendor  string
	importBatch   int
	importElastic bool
	importMigrate bool
)

var catalogImportCmd = &cobra.Command{
	Use:   "catalog:import",
	Short: "Import vendor products from a JSON array or NDJSON feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		f, err := os.Open(importFile)
		if err != nil {
			return fmt.Errorf("open feed: %w", err)
		}
		defer f.Close()

		records, warnings, err := readRecords(f, importVendor)
		if err != nil {
			return err
		}
		parsed := time.Since(start)

		a, err := openApp(cmd.Context(), importMigrate)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Catalog.SaveRecords(cmd.Context(), records, importBatch)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		warnings = append(warnings, res.Warnings...)

		indexed := 0
		if importElastic {
			if a.Search == nil {
				return fmt.Errorf("--elastic needs ELASTICSEARCH_HOST")
			}
			for _, vendorID := range vendorsOf(records) {
				n, err := a.Search.IndexRecords(cmd.Context(), vendorID, recordsOf(records, vendorID))
				if err != nil {
					a.Logger.Error("index failed", zap.String("vendorId", vendorID), zap.Error(err))
					warnings = append(warnings, fmt.Sprintf("vendor %s: index failed: %v", vendorID, err))
					continue
				}
				indexed += n
			}
		}

		out := cmd.OutOrStdout()
		for _, w := range warnings {
			fmt.Fprintf(out, "  [warn] %s\n", w)
		}
		fmt.Fprintf(out, `
=== Import Report ===
Feed records:   %d
Saved:          %d
Skipped:        %d
Vendors:        %d
Indexed:        %d
Total time:     %s
  - Parsing:    %s
=====================
`, len(records), res.Saved, res.Skipped, len(vendorsOf(records)), indexed,
			time.Since(start).Round(time.Millisecond), parsed.Round(time.Millisecond))
		return nil
	},
}

// readRecords decodes a JSON array of product objects, or one object per line. Objects that
// do not decode are reported as warnings. A non-empty vendor overrides every vendor id.
func readRecords(r io.Reader, vendor string) ([]catalogRepo.Record, []string, error) {
	br := bufio.NewReader(r)
	first, err := firstNonSpace(br)
	if err != nil {
		return nil, nil, err
	}

	var raws []map[string]interface{}
	dec := json.NewDecoder(br)
	dec.UseNumber()
	if first == '[' {
		if err := dec.Decode(&raws); err != nil {
			return nil, nil, fmt.Errorf("decode feed: %w", err)
		}
	} else {
		for {
			var m map[string]interface{}
			err := dec.Decode(&m)
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, nil, fmt.Errorf("decode feed object %d: %w", len(raws)+1, err)
			}
			raws = append(raws, m)
		}
	}

	var warnings []string
	records := make([]catalogRepo.Record, 0, len(raws))
	for i, m := range raws {
		rec, err := catalogRepo.DecodeRecord(m)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("object %d: %v", i+1, err))
			continue
		}
		if vendor != "" {
			rec.VendorID = vendor
		}
		if rec.VendorID == "" {
			warnings = append(warnings, fmt.Sprintf("product %s: missing vendor id", rec.ID))
			continue
		}
		records = append(records, rec)
	}
	return records, warnings, nil
}

func firstNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			return 0, fmt.Errorf("decode feed: empty input")
		}
		if err != nil {
			return 0, err
		}
		if !bytes.ContainsRune([]byte(" \t\r\n"), rune(b)) {
			return b, br.UnreadByte()
		}
	}
}

func vendorsOf(records []catalogRepo.Record) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		if !seen[r.VendorID] {
			seen[r.VendorID] = true
			out = append(out, r.VendorID)
		}
	}
	sort.Strings(out)
	return out
}

func recordsOf(records []catalogRepo.Record, vendorID string) []catalogRepo.Record {
	var out []catalogRepo.Record
	for _, r := range records {
		if r.VendorID == vendorID {
			out = append(out, r)
		}
	}
	return out
}

func init() {
	catalogImportCmd.Flags().StringVarP(&importFile, "file", "f", "", "JSON or NDJSON feed path (required)")
	catalogImportCmd.MarkFlagRequired("file")
	catalogImportCmd.Flags().StringVar(&importVendor, "vendor", "", "Assign every product to this vendor")
	catalogImportCmd.Flags().IntVar(&importBatch, "batch-size", 500, "Batch size for DB operations")
	catalogImportCmd.Flags().BoolVar(&importElastic, "elastic", false, "Also index the products into Elasticsearch")
	catalogImportCmd.Flags().BoolVar(&importMigrate, "migrate", false, "Apply schema migrations first")
	rootCmd.AddCommand(catalogImportCmd)
}
