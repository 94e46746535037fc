package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/listingiq/internal/analysis"
	"github.com/evcraddock/listingiq/internal/config"
	"github.com/evcraddock/listingiq/internal/deal"
)

func newDealsCmd() *cobra.Command {
	var limit int
	var strategy string

	cmd := &cobra.Command{
		Use:   "deals",
		Short: "List stored deals that meet their criteria",
		Long:  "List the best stored deals from earlier saved runs, highest score first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeals(cmd, limit, strategy)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum deals to show (0 for all)")
	cmd.Flags().StringVar(&strategy, "strategy", "", "only show deals for this strategy")

	return cmd
}

func runDeals(cmd *cobra.Command, limit int, strategy string) error {
	if err := requireFormat(cmd, "text", "json", "markdown", "html"); err != nil {
		return err
	}
	if limit < 0 {
		return fmt.Errorf("--limit must be non-negative, got %d", limit)
	}
	if strategy != "" {
		if _, err := analysis.ParseStrategy(strategy); err != nil {
			return err
		}
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var recs []*deal.Record
	if c := remoteClient(); c != nil {
		recs, err = c.Deals(limit, strategy)
	} else {
		recs, err = storedDeals(cfg, limit, strategy)
	}
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if isJSON() {
		if recs == nil {
			recs = []*deal.Record{}
		}
		return printJSON(w, recs)
	}

	deals := make([]analysis.DealAnalysis, len(recs))
	for i, rec := range recs {
		deals[i] = rec.Analysis()
	}
	return writeDeals(w, "Stored Deals", deals)
}

func storedDeals(cfg config.Config, limit int, strategy string) ([]*deal.Record, error) {
	database, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	defer closeDB(database)

	return deal.NewRepository(database).Top(limit, strategy)
}
