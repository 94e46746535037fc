package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/listingiq/internal/analysis"
	"github.com/evcraddock/listingiq/internal/client"
	"github.com/evcraddock/listingiq/internal/comps"
	"github.com/evcraddock/listingiq/internal/config"
	"github.com/evcraddock/listingiq/internal/deal"
	"github.com/evcraddock/listingiq/internal/listing"
)

type batchFlags struct {
	minScore  float64
	limit     int
	save      bool
	compsFile string
}

func newBatchCmd() *cobra.Command {
	var flags batchFlags

	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Analyze a file of listings and rank the best deals",
		Long: "Analyze every listing in a YAML, JSON or Hjson file with all configured strategies " +
			"and print the qualifying deals, best first.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, flags, args[0])
		},
	}

	cmd.Flags().Float64Var(&flags.minScore, "min-score", 0, "minimum deal score (0-100)")
	cmd.Flags().IntVar(&flags.limit, "limit", 20, "maximum deals to show (0 for all)")
	cmd.Flags().BoolVar(&flags.save, "save", false, "store the listings and every deal")
	cmd.Flags().StringVar(&flags.compsFile, "comps", "", "YAML file of rental and sales comps for the market")

	return cmd
}

type batchOutput struct {
	RunID           string                  `json:"run_id,omitempty"`
	TotalListings   int                     `json:"total_listings"`
	QualifyingDeals int                     `json:"qualifying_deals"`
	Deals           []analysis.DealAnalysis `json:"deals"`
}

func runBatch(cmd *cobra.Command, flags batchFlags, path string) error {
	if err := requireFormat(cmd, "text", "json", "markdown", "html"); err != nil {
		return err
	}
	if flags.limit < 0 {
		return fmt.Errorf("--limit must be non-negative, got %d", flags.limit)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	listings, err := listing.LoadFile(path)
	if err != nil {
		return err
	}
	var set comps.Set
	if flags.compsFile != "" {
		if set, err = comps.LoadFile(flags.compsFile); err != nil {
			return err
		}
	}
	inputs := make([]deal.Input, len(listings))
	for i, l := range listings {
		inputs[i] = deal.Input{Listing: l, Comps: set}
	}

	var out batchOutput
	if c := remoteClient(); c != nil {
		req := client.BatchRequest{MinScore: flags.minScore, Limit: flags.limit, Save: flags.save}
		for _, in := range inputs {
			req.Listings = append(req.Listings, client.NewSubject(in))
		}
		resp, err := c.Batch(req)
		if err != nil {
			return err
		}
		out = batchOutput(*resp)
	} else {
		deals, runID, err := batchLocal(cmd, cfg, inputs, flags.save)
		if err != nil {
			return err
		}
		out.RunID = runID
		out.Deals = analysis.RankDeals(deals, flags.minScore, flags.limit)
		out.TotalListings = len(listings)
		out.QualifyingDeals = len(out.Deals)
	}
	if out.Deals == nil {
		out.Deals = []analysis.DealAnalysis{}
	}

	w := cmd.OutOrStdout()
	if isJSON() {
		return printJSON(w, out)
	}
	if flagFormat == "text" {
		fmt.Fprintf(w, "Analyzed %d listings.\n\n", out.TotalListings)
	}
	if err := writeDeals(w, "Top Deals", out.Deals); err != nil {
		return err
	}
	if flagFormat == "text" && out.RunID != "" {
		fmt.Fprintf(w, "Saved as run %s\n", out.RunID)
	}
	return nil
}

// batchLocal analyzes inputs with the local engine. With save set the
// listings and deals are stored and the run ID is returned.
func batchLocal(cmd *cobra.Command, cfg config.Config, inputs []deal.Input, save bool) ([]analysis.DealAnalysis, string, error) {
	if save {
		database, err := openDB(cfg)
		if err != nil {
			return nil, "", err
		}
		defer closeDB(database)

		svc, err := deal.NewService(database, cfg.Analysis)
		if err != nil {
			return nil, "", err
		}
		run, err := svc.Run(cmd.Context(), inputs)
		if err != nil {
			return nil, "", err
		}
		return run.Deals, run.ID, nil
	}

	e, err := newEngine(cfg.Analysis)
	if err != nil {
		return nil, "", err
	}
	subjects := make([]analysis.Subject, len(inputs))
	for i, in := range inputs {
		est, _ := e.estimator.Resolve(in.Listing, in.Comps, in.Estimates)
		subjects[i] = analysis.Subject{Listing: in.Listing, Estimates: est}
	}
	deals, err := e.analyzer.AnalyzeConcurrent(cmd.Context(), subjects)
	if err != nil {
		return nil, "", err
	}
	return deals, "", nil
}
