// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the specmark CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the specmark CLI.
var rootCmd = &cobra.Command{
	Use:   "specmark",
	Short: "Compile specification documents with numbered clauses and cross-references",
	Long: `specmark compiles specification documents written as HTML with emu-*
elements. It numbers clauses and tables, parses operation headers, builds a
biblio of every referenceable clause, operation and table, and resolves
cross-references against it, including references into other documents
whose biblios were exported and imported.

Use build to compile a document and biblio to manage the local store of
exported biblios.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./specmark.yaml or ~/.config/specmark/specmark.yaml)")
	rootCmd.PersistentFlags().String("biblio-db", "", "biblio store database (SQLite)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log pass timings and merge details")

	_ = viper.BindPFlag("biblio_db", rootCmd.PersistentFlags().Lookup("biblio-db"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("specmark")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "specmark"))
		}
	}

	viper.SetEnvPrefix("SPECMARK")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
