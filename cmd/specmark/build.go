// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/net/html"

	"github.com/pdiddy/specmark/internal/biblio"
	"github.com/pdiddy/specmark/internal/compile"
	"github.com/pdiddy/specmark/pkg/types"
)

var buildCmd = &cobra.Command{
	Use:   "build <input.html>",
	Short: "Compile a specification document",
	Long: `Build parses the input document, numbers its clauses and tables, registers
every clause, operation and abstract-methods table row in the biblio, merges
imported biblios, and resolves emu-xref and emu-concrete-method-dfns
elements. The compiled HTML goes to --output (default stdout).

Imported biblios come from --import paths or http(s) URLs (YAML or JSON
exports) and, with
--biblio-db, from every biblio in the store. An id defined both locally and
in an import is a fatal error unless the import is supplementary, in which
case the local entry wins.`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	ctx := context.Background()

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	doc, err := html.Parse(bufio.NewReader(f))
	f.Close()
	if err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}

	externals, err := loadExternals(ctx, cfg)
	if err != nil {
		return err
	}

	res, err := compile.Compile(ctx, doc, compile.Options{
		Namespace: cfg.Namespace,
		Externals: externals,
		Strict:    cfg.Strict,
		Logger:    newLogger(),
		Warn: func(w types.Warning) {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		},
	})
	if err != nil {
		return err
	}

	if err := writeDocument(cfg.Output, doc); err != nil {
		return err
	}
	if cfg.ExportBiblio != "" {
		if err := biblio.WriteFile(cfg.ExportBiblio, res.Local.Export(cfg.Location)); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported %d biblio entries to %s\n", res.Local.Len(), cfg.ExportBiblio)
	}

	fmt.Fprintf(os.Stderr, "Compiled %s: %d clauses, %d tables, %d xrefs (%d unresolved), %d warnings\n",
		args[0], res.Clauses, res.Tables, res.Xrefs, res.Unresolved, len(res.Warnings))
	return nil
}

// buildConfig reads build settings from flags, environment and config
// file, in that order of precedence.
func buildConfig(cmd *cobra.Command) (types.BuildConfig, error) {
	cfg := types.BuildConfig{
		Namespace:     viper.GetString("namespace"),
		Location:      viper.GetString("location"),
		BiblioDB:      viper.GetString("biblio_db"),
		Supplementary: viper.GetBool("supplementary"),
		Strict:        viper.GetBool("strict"),
		Output:        viper.GetString("output"),
		ExportBiblio:  viper.GetString("export_biblio"),
	}
	if err := viper.UnmarshalKey("imports", &cfg.Imports); err != nil {
		return cfg, fmt.Errorf("reading imports from config: %w", err)
	}
	paths, _ := cmd.Flags().GetStringSlice("import")
	for _, p := range paths {
		cfg.Imports = append(cfg.Imports, types.BiblioImport{Path: p})
	}
	paths, _ = cmd.Flags().GetStringSlice("import-supplementary")
	for _, p := range paths {
		cfg.Imports = append(cfg.Imports, types.BiblioImport{Path: p, Supplementary: true})
	}
	return cfg, nil
}

func mergePolicy(supplementary bool) types.MergePolicy {
	if supplementary {
		return types.MergeSupplementary
	}
	return types.MergeStrict
}

// loadExternals reads import files first, then every biblio in the store.
func loadExternals(ctx context.Context, cfg types.BuildConfig) ([]compile.External, error) {
	var out []compile.External
	for _, imp := range cfg.Imports {
		ex, err := biblio.Load(ctx, nil, imp.Path)
		if err != nil {
			return nil, err
		}
		ix, err := biblio.FromExport(ex)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", imp.Path, err)
		}
		out = append(out, compile.External{Name: imp.Path, Index: ix, Policy: mergePolicy(imp.Supplementary)})
	}

	if cfg.BiblioDB == "" {
		return out, nil
	}
	store, err := biblio.NewStore(types.BiblioStoreConfig{Path: cfg.BiblioDB})
	if err != nil {
		return nil, err
	}
	defer store.Close()

	sums, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	ixs, err := store.Indexes(ctx)
	if err != nil {
		return nil, err
	}
	for i, ix := range ixs {
		out = append(out, compile.External{Name: sums[i].Location, Index: ix, Policy: mergePolicy(cfg.Supplementary)})
	}
	return out, nil
}

func writeDocument(path string, doc *html.Node) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	bw := bufio.NewWriter(w)
	if err := html.Render(bw, doc); err != nil {
		return fmt.Errorf("rendering document: %w", err)
	}
	return bw.Flush()
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func init() {
	buildCmd.Flags().String("namespace", "", "default namespace of the document")
	buildCmd.Flags().String("location", "", "URL prefix recorded on exported biblio entries")
	buildCmd.Flags().StringSlice("import", nil, "biblio export file or URL to merge (repeatable)")
	buildCmd.Flags().StringSlice("import-supplementary", nil, "lower-priority biblio export file; local ids win on collision (repeatable)")
	buildCmd.Flags().Bool("supplementary", false, "treat biblios from --biblio-db as supplementary")
	buildCmd.Flags().Bool("strict", false, "fail the build if any warning is reported")
	buildCmd.Flags().StringP("output", "o", "", "output file for the compiled document (default stdout)")
	buildCmd.Flags().String("export-biblio", "", "write this document's biblio to a .yaml or .json file")

	_ = viper.BindPFlag("namespace", buildCmd.Flags().Lookup("namespace"))
	_ = viper.BindPFlag("location", buildCmd.Flags().Lookup("location"))
	_ = viper.BindPFlag("supplementary", buildCmd.Flags().Lookup("supplementary"))
	_ = viper.BindPFlag("strict", buildCmd.Flags().Lookup("strict"))
	_ = viper.BindPFlag("output", buildCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("export_biblio", buildCmd.Flags().Lookup("export-biblio"))

	rootCmd.AddCommand(buildCmd)
}
