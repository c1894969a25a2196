// Package presets provides named block-count presets for formatting an
// fs5600 image, the single free geometry parameter this format has.
package presets

import (
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
)

// Preset names one image size in blocks.
type Preset struct {
	Slug        string `csv:"slug"`
	Name        string `csv:"name"`
	TotalBlocks uint32 `csv:"total_blocks"`
	Notes       string `csv:"notes"`
}

//go:embed disk-presets.csv
var rawPresetsCSV string

var presetsBySlug map[string]Preset

func init() {
	presetsBySlug = map[string]Preset{}

	reader := strings.NewReader(rawPresetsCSV)
	err := gocsv.UnmarshalToCallback(reader, func(row Preset) error {
		if _, exists := presetsBySlug[row.Slug]; exists {
			return fmt.Errorf("duplicate preset slug %q", row.Slug)
		}
		presetsBySlug[row.Slug] = row
		return nil
	})
	if err != nil && err != io.EOF {
		panic(err)
	}
}

// Lookup returns the preset registered under slug.
func Lookup(slug string) (Preset, error) {
	p, ok := presetsBySlug[slug]
	if !ok {
		return Preset{}, fmt.Errorf("no predefined disk preset exists with slug %q", slug)
	}
	return p, nil
}

// All returns every registered preset, in no particular order.
func All() []Preset {
	out := make([]Preset, 0, len(presetsBySlug))
	for _, p := range presetsBySlug {
		out = append(out, p)
	}
	return out
}
