//go:build mage

// Package main contains Mage build targets for specmark developer tooling.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// projectDirs lists the working directories builds write to.
var projectDirs = []string{
	"bin",
	"out",
	"biblio",
}

// Init creates the project directory structure.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Project directories initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "specmark"
	cmdPkg  = "./cmd/specmark"
)

// Build compiles the CLI binary into bin/, stamping the version from git
// when available.
func Build() error {
	mg.Deps(Init)
	version := "dev"
	if out, err := sh.Output("git", "describe", "--tags", "--always", "--dirty"); err == nil && out != "" {
		version = out
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-ldflags", "-X main.version="+version, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s (%s)\n", out, version)
	return nil
}

// Test runs go vet and the full test suite. Store tests need cgo for
// go-sqlite3.
func Test() error {
	if err := sh.RunV("go", "vet", "./..."); err != nil {
		return err
	}
	return sh.RunWithV(map[string]string{"CGO_ENABLED": "1"}, "go", "test", "./...")
}

// Spec compiles every .html file under spec/ into out/, exporting each
// document's biblio next to it.
func Spec() error {
	mg.Deps(Build)
	inputs, err := filepath.Glob(filepath.Join("spec", "*.html"))
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		fmt.Println("No documents under spec/.")
		return nil
	}
	bin := filepath.Join(binDir, binName)
	for _, in := range inputs {
		base := strings.TrimSuffix(filepath.Base(in), ".html")
		err := sh.RunV(bin, "build", in,
			"--output", filepath.Join("out", base+".html"),
			"--export-biblio", filepath.Join("biblio", base+".yaml"),
		)
		if err != nil {
			return fmt.Errorf("compiling %s: %w", in, err)
		}
	}
	return nil
}

// Stats prints non-blank Go lines per package, split into production and
// test code, and the number of documents under spec/.
func Stats() error {
	counts, err := goLinesByPackage(".")
	if err != nil {
		return err
	}
	pkgs := make([]string, 0, len(counts))
	for pkg := range counts {
		pkgs = append(pkgs, pkg)
	}
	sort.Strings(pkgs)

	var prod, test int
	fmt.Printf("%-28s %8s %8s\n", "package", "prod", "test")
	for _, pkg := range pkgs {
		c := counts[pkg]
		fmt.Printf("%-28s %8d %8d\n", pkg, c[0], c[1])
		prod += c[0]
		test += c[1]
	}
	fmt.Printf("%-28s %8d %8d\n", "total", prod, test)

	docs, _ := filepath.Glob(filepath.Join("spec", "*.html"))
	fmt.Printf("Spec documents: %d\n", len(docs))
	return nil
}

// skipDir reports directories Stats never descends into.
func skipDir(path string) bool {
	name := filepath.Base(path)
	return path != "." && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "bin" || name == "out")
}

// goLinesByPackage maps each package directory to its [production, test]
// non-blank line counts.
func goLinesByPackage(root string) (map[string][2]int, error) {
	counts := make(map[string][2]int)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return err
		case d.IsDir() && skipDir(path):
			return filepath.SkipDir
		case d.IsDir() || filepath.Ext(path) != ".go":
			return nil
		}
		n, err := countLines(path)
		if err != nil {
			return err
		}
		pkg := filepath.Dir(path)
		c := counts[pkg]
		if strings.HasSuffix(path, "_test.go") {
			c[1] += n
		} else {
			c[0] += n
		}
		counts[pkg] = c
		return nil
	})
	return counts, err
}

func countLines(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	n := 0
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			n++
		}
	}
	return n, sc.Err()
}
