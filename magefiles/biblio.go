//go:build mage

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Biblio saves every exported biblio under biblio/ into the biblio store,
// so later builds can reference those documents with --biblio-db.
func Biblio() error {
	mg.Deps(Spec)
	exports, err := filepath.Glob(filepath.Join("biblio", "*.yaml"))
	if err != nil {
		return err
	}
	if len(exports) == 0 {
		fmt.Println("[biblio] No exports under biblio/.")
		return nil
	}
	args := append([]string{"biblio", "store", "--biblio-db", filepath.Join("biblio", "store.db")}, exports...)
	return sh.RunV(filepath.Join(binDir, binName), args...)
}
