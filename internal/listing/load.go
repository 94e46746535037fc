package listing

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a list of listings from a YAML, JSON or Hjson file. The
// format is chosen by extension; anything other than .json or .hjson is
// parsed as YAML.
func LoadFile(path string) ([]Listing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading listings: %w", err)
	}

	var listings []Listing
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = decodeList(data, &listings)
	case ".hjson":
		err = decodeHjson(data, &listings)
	default:
		err = yaml.Unmarshal(data, &listings)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing listings: %w", err)
	}

	for i := range listings {
		listings[i].ApplyDefaults()
		if listings[i].Source == "" {
			listings[i].Source = "file"
		}
		if listings[i].SourceID == "" {
			listings[i].SourceID = fmt.Sprintf("%s#%d", filepath.Base(path), i+1)
		}
		if err := listings[i].Validate(); err != nil {
			return nil, fmt.Errorf("listing %d (%s): %w", i+1, listings[i].Address, err)
		}
	}

	return listings, nil
}
