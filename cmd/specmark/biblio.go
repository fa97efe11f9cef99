// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/specmark/internal/biblio"
	"github.com/pdiddy/specmark/pkg/types"
)

var biblioCmd = &cobra.Command{
	Use:   "biblio",
	Short: "Manage the store of exported biblios (store, list, lookup, export, delete)",
	Long: `Biblio manages a local SQLite store of biblios exported by other
documents. Stored biblios are merged into every build run with --biblio-db.`,
}

// --- store subcommand ---

var biblioStoreCmd = &cobra.Command{
	Use:   "store <export-file-or-url>...",
	Short: "Save exported biblio files into the store",
	Long: `Store reads biblio exports written by build --export-biblio and saves
each under its location, replacing any biblio already stored there.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBiblioStore,
}

func runBiblioStore(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	for _, path := range args {
		ex, err := biblio.Load(ctx, nil, path)
		if err != nil {
			return err
		}
		if loc, _ := cmd.Flags().GetString("location"); loc != "" {
			ex.Location = loc
		}
		// Reject exports that would not load back as an index.
		if _, err := biblio.FromExport(ex); err != nil {
			return fmt.Errorf("validating %s: %w", path, err)
		}
		n, err := store.Save(ctx, ex)
		if err != nil {
			return fmt.Errorf("storing %s: %w", path, err)
		}
		fmt.Fprintf(os.Stdout, "Stored %d entries from %s as %s\n", n, path, ex.Location)
	}
	return nil
}

// --- list subcommand ---

var biblioListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored biblios",
	RunE:  runBiblioList,
}

func runBiblioList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	sums, err := store.List(context.Background())
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sums)
	}
	if len(sums) == 0 {
		fmt.Println("No biblios stored.")
		return nil
	}
	fmt.Fprintf(os.Stdout, "%-50s  %-8s  %s\n", "Location", "Entries", "Stored")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 80))
	for _, s := range sums {
		fmt.Fprintf(os.Stdout, "%-50s  %-8d  %s\n", s.Location, s.EntryCount, s.StoredAt.Format("2006-01-02 15:04"))
	}
	return nil
}

// --- lookup subcommand ---

var biblioLookupCmd = &cobra.Command{
	Use:   "lookup [query]",
	Short: "Find stored entries by id, aoid, namespace or text",
	Long: `Lookup searches every stored biblio. The query matches a substring of a
clause title, table caption or operation aoid; --id, --aoid and --namespace
filter exactly.`,
	RunE: runBiblioLookup,
}

func runBiblioLookup(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetString("id")
	aoid, _ := cmd.Flags().GetString("aoid")
	ns, _ := cmd.Flags().GetString("namespace")
	limit, _ := cmd.Flags().GetInt("limit")

	opts := biblio.LookupOptions{
		ID:         id,
		Aoid:       aoid,
		Namespace:  ns,
		Query:      strings.Join(args, " "),
		MaxResults: limit,
	}
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --id, --aoid, or --namespace")
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.Lookup(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatLookupOutput(results, jsonOutput)
}

func formatLookupOutput(results []types.EntryRecord, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-6s  %-30s  %-10s  %-30s  %s\n", "Type", "Anchor", "Number", "Name", "Location")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))
	for _, r := range results {
		anchor := r.ID
		if anchor == "" {
			anchor = r.RefID
		}
		name := r.Title
		switch r.Type {
		case types.EntryOp:
			name = r.Aoid
		case types.EntryTable:
			name = r.Caption
		}
		fmt.Fprintf(os.Stdout, "%-6s  %-30s  %-10s  %-30s  %s\n",
			r.Type, truncate(anchor, 30), r.Number, truncate(name, 30), r.Location)
	}
	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

// --- export subcommand ---

var biblioExportCmd = &cobra.Command{
	Use:   "export <location>",
	Short: "Write a stored biblio to a YAML or JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runBiblioExport,
}

func runBiblioExport(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ex, err := store.Load(context.Background(), args[0])
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		return yaml.NewEncoder(os.Stdout).Encode(ex)
	}
	if err := biblio.WriteFile(output, ex); err != nil {
		return err
	}
	fmt.Printf("Exported %d entries to %s\n", len(ex.Entries), output)
	return nil
}

// --- delete subcommand ---

var biblioDeleteCmd = &cobra.Command{
	Use:   "delete <location>",
	Short: "Remove a stored biblio",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Delete(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

// --- shared helpers ---

func openStore() (*biblio.Store, error) {
	path := viper.GetString("biblio_db")
	if path == "" {
		path = "specmark-biblio.db"
	}
	return biblio.NewStore(types.BiblioStoreConfig{
		Path:       path,
		MaxResults: viper.GetInt("max_results"),
	})
}

func init() {
	biblioCmd.PersistentFlags().Int("max-results", 20, "default maximum number of lookup results")
	_ = viper.BindPFlag("max_results", biblioCmd.PersistentFlags().Lookup("max-results"))

	biblioStoreCmd.Flags().String("location", "", "store under this location instead of the one in the file")

	biblioListCmd.Flags().Bool("json", false, "output as JSON")

	biblioLookupCmd.Flags().String("id", "", "exact entry id")
	biblioLookupCmd.Flags().String("aoid", "", "exact operation aoid")
	biblioLookupCmd.Flags().String("namespace", "", "exact namespace")
	biblioLookupCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	biblioLookupCmd.Flags().Bool("json", false, "output results as JSON")

	biblioExportCmd.Flags().StringP("output", "o", "", "output file, .yaml or .json (default YAML on stdout)")

	biblioCmd.AddCommand(biblioStoreCmd)
	biblioCmd.AddCommand(biblioListCmd)
	biblioCmd.AddCommand(biblioLookupCmd)
	biblioCmd.AddCommand(biblioExportCmd)
	biblioCmd.AddCommand(biblioDeleteCmd)

	rootCmd.AddCommand(biblioCmd)
}
