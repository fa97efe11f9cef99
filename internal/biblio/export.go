// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package biblio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/specmark/pkg/types"
)

// Export is the serializable snapshot of a document's own entries,
// consumed by other documents as a merge input. ByID and ByAoid hold
// positions in Entries so that entries with only a refId stay listed.
type Export struct {
	Location string                      `json:"location" yaml:"location"`
	Entries  []types.EntryRecord         `json:"entries" yaml:"entries"`
	ByID     map[string]int              `json:"by_id" yaml:"by_id"`
	ByAoid   map[string]map[string][]int `json:"by_aoid" yaml:"by_aoid"`
}

// Export snapshots the entries that originate in this document (those with
// no Location) and stamps them with location.
func (ix *Index) Export(location string) Export {
	var recs []types.EntryRecord
	for _, e := range ix.entries {
		if e.Base().Location != "" {
			continue
		}
		recs = append(recs, types.EncodeEntry(types.WithLocation(e, location)))
	}
	return newExport(location, recs)
}

func newExport(location string, recs []types.EntryRecord) Export {
	ex := Export{
		Location: location,
		Entries:  recs,
		ByID:     make(map[string]int),
		ByAoid:   make(map[string]map[string][]int),
	}
	if ex.Entries == nil {
		ex.Entries = []types.EntryRecord{}
	}
	for i, r := range recs {
		if r.ID != "" {
			ex.ByID[r.ID] = i
		}
		if r.Type == types.EntryOp && r.Aoid != "" {
			if ex.ByAoid[r.Namespace] == nil {
				ex.ByAoid[r.Namespace] = make(map[string][]int)
			}
			ex.ByAoid[r.Namespace][r.Aoid] = append(ex.ByAoid[r.Namespace][r.Aoid], i)
		}
	}
	return ex
}

// FromExport rebuilds a frozen index from an export. The derived ByID and
// ByAoid maps are recomputed from Entries, whose order is authoritative.
func FromExport(ex Export) (*Index, error) {
	ix := New()
	for i, r := range ex.Entries {
		if r.Location == "" {
			r.Location = ex.Location
		}
		e, err := types.DecodeEntry(r)
		if err != nil {
			return nil, fmt.Errorf("entry %d of %s: %w", i, ex.Location, err)
		}
		if err := ix.Add(e, r.Namespace); err != nil {
			return nil, fmt.Errorf("entry %d of %s: %w", i, ex.Location, err)
		}
	}
	return ix.Freeze(), nil
}

// WriteFile writes ex to path as JSON when the extension is .json and as
// YAML otherwise.
func WriteFile(path string, ex Export) error {
	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(ex, "", "  ")
	} else {
		data, err = yaml.Marshal(ex)
	}
	if err != nil {
		return fmt.Errorf("marshaling biblio: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadFile loads an export written by WriteFile.
func ReadFile(path string) (Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Export{}, fmt.Errorf("reading biblio %s: %w", path, err)
	}
	ex, err := decode(data, isJSON(path))
	if err != nil {
		return Export{}, fmt.Errorf("parsing biblio %s: %w", path, err)
	}
	return ex, nil
}

func decode(data []byte, asJSON bool) (Export, error) {
	var (
		ex  Export
		err error
	)
	if asJSON {
		err = json.Unmarshal(data, &ex)
	} else {
		err = yaml.Unmarshal(data, &ex)
	}
	return ex, err
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
