// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// MergePolicy selects what happens when an id is present both in the
// document being compiled and in an imported biblio.
type MergePolicy string

const (
	// MergeStrict treats any id collision as fatal.
	MergeStrict MergePolicy = "strict"

	// MergeSupplementary keeps the local entry and drops the imported one.
	// Only valid for imports explicitly marked as lower-priority.
	MergeSupplementary MergePolicy = "supplementary"
)

// BiblioImport names one exported biblio to merge before resolving
// references.
type BiblioImport struct {
	// Path is a YAML or JSON export file.
	Path string `json:"path" yaml:"path"`

	// Supplementary marks the import as lower priority than local entries.
	Supplementary bool `json:"supplementary" yaml:"supplementary"`
}

// BuildConfig holds settings for compiling one document.
type BuildConfig struct {
	// Namespace is the document's default namespace.
	Namespace string `json:"namespace" yaml:"namespace"`

	// Location is the URL prefix recorded on exported entries.
	Location string `json:"location" yaml:"location"`

	// Imports lists exported biblios merged after Pass 1.
	Imports []BiblioImport `json:"imports" yaml:"imports"`

	// BiblioDB is an optional biblio store whose biblios are all merged.
	BiblioDB string `json:"biblio_db" yaml:"biblio_db"`

	// Supplementary applies MergeSupplementary to biblios loaded from BiblioDB.
	Supplementary bool `json:"supplementary" yaml:"supplementary"`

	// Strict turns any warning into a build failure.
	Strict bool `json:"strict" yaml:"strict"`

	// Output is the path of the rendered document.
	Output string `json:"output" yaml:"output"`

	// ExportBiblio is the path of the biblio export (.yaml or .json).
	ExportBiblio string `json:"export_biblio" yaml:"export_biblio"`
}

// BiblioStoreConfig holds settings for the biblio store.
type BiblioStoreConfig struct {
	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path"`

	// MaxResults is the default maximum number of lookup results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}
