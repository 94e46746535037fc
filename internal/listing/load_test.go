package listing

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "listings.yaml",
			content: `- address: 1 Oak St
  city: Dayton
  state: OH
  price: 90000
  beds: 3
  sqft: 1200
- source: mls
  source_id: "A2"
  address: 2 Oak St
  price: 110000
  status: pending
`,
		},
		{
			name: "json",
			file: "listings.json",
			content: `[
  {"address": "1 Oak St", "city": "Dayton", "state": "OH", "price": 90000, "beds": 3, "sqft": 1200},
  {"source": "mls", "source_id": "A2", "address": "2 Oak St", "price": 110000, "status": "pending"}
]`,
		},
		{
			name: "hjson",
			file: "listings.hjson",
			content: `[
  # hand-entered
  {
    address: "1 Oak St"
    city: Dayton
    state: OH
    price: 90000
    beds: 3
    sqft: 1200
  }
  {
    source: mls
    source_id: A2
    address: "2 Oak St"
    price: 110000
    status: pending
  }
]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)

			got, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile: %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("got %d listings, want 2", len(got))
			}

			first := got[0]
			if first.Source != "file" {
				t.Errorf("source = %q, want file", first.Source)
			}
			if want := tt.file + "#1"; first.SourceID != want {
				t.Errorf("source_id = %q, want %q", first.SourceID, want)
			}
			if first.Price != 90_000 || first.Beds != 3 || first.Sqft != 1200 {
				t.Errorf("first = %+v", first)
			}
			if first.PropertyType != PropertyTypeSingleFamily || first.Status != StatusActive {
				t.Errorf("defaults not applied: %q %q", first.PropertyType, first.Status)
			}

			second := got[1]
			if second.Source != "mls" || second.SourceID != "A2" {
				t.Errorf("second identity = %s/%s, want mls/A2", second.Source, second.SourceID)
			}
			if second.Status != StatusPending {
				t.Errorf("second status = %q, want pending", second.Status)
			}
		})
	}
}

func TestLoadFileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("invalid listing", func(t *testing.T) {
		path := writeFile(t, "bad.yaml", "- address: 1 Oak St\n  price: 0\n")
		if _, err := LoadFile(path); err == nil {
			t.Fatal("expected validation error")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeFile(t, "bad.yml", "- address: [unclosed\n")
		if _, err := LoadFile(path); err == nil {
			t.Fatal("expected parse error")
		}
	})
}
