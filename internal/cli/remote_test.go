package cli

import (
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evcraddock/listingiq/internal/config"
	"github.com/evcraddock/listingiq/internal/db"
	"github.com/evcraddock/listingiq/internal/deal"
	"github.com/evcraddock/listingiq/internal/web"
)

// apiServer runs the API over its own temp database, separate from the
// CLI's default database.
func apiServer(t *testing.T) string {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "server.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if cerr := d.Close(); cerr != nil {
			t.Errorf("close db: %v", cerr)
		}
	})

	cfg := config.Defaults()
	cfg.Server.RateLimit = 0
	srv, err := web.NewServer(d, cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts.URL
}

func TestRemoteAnalyze(t *testing.T) {
	testHome(t)
	url := apiServer(t)

	out, err := executeCommand(append([]string{"analyze", "--server", url, "--format", "json"}, rentalArgs...)...)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	var got analyzeOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(got.Deals) != 3 || got.Comps == nil {
		t.Errorf("output = %+v", got)
	}

	_, err = executeCommand(append([]string{"analyze", "--server", url, "--save"}, rentalArgs...)...)
	if err == nil || !strings.Contains(err.Error(), "not supported") {
		t.Errorf("expected --save error, got %v", err)
	}
}

func TestRemoteServerFromEnv(t *testing.T) {
	testHome(t)
	t.Setenv("LISTINGIQ_SERVER_URL", apiServer(t)+"/")

	out, err := executeCommand(append([]string{"offer", "--strategy", "flip"}, rentalArgs...)...)
	if err != nil {
		t.Fatalf("offer: %v", err)
	}
	if !strings.Contains(out, "FLIP") {
		t.Errorf("output missing FLIP:\n%s", out)
	}
}

func TestRemoteBatchThenDeals(t *testing.T) {
	testHome(t)
	url := apiServer(t)
	file := writeFile(t, "listings.yaml", listingsYAML)

	out, err := executeCommand("batch", file, "--server", url, "--save", "--limit", "0", "--format", "json")
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	var got batchOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if got.RunID == "" || got.TotalListings != 2 {
		t.Errorf("output = %+v", got)
	}

	out, err = executeCommand("deals", "--server", url, "--limit", "0", "--format", "json")
	if err != nil {
		t.Fatalf("deals: %v", err)
	}
	var recs []*deal.Record
	if err := json.Unmarshal([]byte(out), &recs); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(recs) != got.QualifyingDeals {
		t.Errorf("remote deals = %d, want %d", len(recs), got.QualifyingDeals)
	}
}

func TestRemoteError(t *testing.T) {
	testHome(t)

	_, err := executeCommand(append([]string{"offer", "--server", apiServer(t), "--strategy", "wholesale"}, rentalArgs...)...)
	if err == nil || !strings.Contains(err.Error(), "unknown strategy") {
		t.Errorf("expected unknown strategy error, got %v", err)
	}
}
