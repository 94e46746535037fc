package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/listingiq/internal/analysis"
	"github.com/evcraddock/listingiq/internal/client"
	"github.com/evcraddock/listingiq/internal/comps"
	"github.com/evcraddock/listingiq/internal/config"
	"github.com/evcraddock/listingiq/internal/deal"
	"github.com/evcraddock/listingiq/internal/listing"
)

// listingFlags describe a hand-entered listing and its estimates.
type listingFlags struct {
	price, baths, tax, hoa float64
	beds, sqft, yearBuilt  int
	city, state, zip       string
	propertyType           string
	rent, arv              float64
	compsFile              string
}

func (f *listingFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.Float64Var(&f.price, "price", 0, "asking price (required)")
	fl.IntVar(&f.beds, "beds", 0, "bedrooms")
	fl.Float64Var(&f.baths, "baths", 0, "bathrooms")
	fl.IntVar(&f.sqft, "sqft", 0, "living area in square feet")
	fl.Float64Var(&f.tax, "tax", 0, "annual property tax")
	fl.Float64Var(&f.hoa, "hoa", 0, "monthly HOA fee")
	fl.StringVar(&f.city, "city", "", "city, used to match comps")
	fl.StringVar(&f.state, "state", "", "state code")
	fl.StringVar(&f.zip, "zip", "", "zip code")
	fl.IntVar(&f.yearBuilt, "year-built", 0, "year built")
	fl.StringVar(&f.propertyType, "type", string(listing.PropertyTypeSingleFamily),
		"property type (single_family|multi_family|condo|townhouse)")
	fl.Float64Var(&f.rent, "rent", 0, "monthly rent estimate, overrides comps")
	fl.Float64Var(&f.arv, "arv", 0, "after-repair value estimate, overrides comps")
	fl.StringVar(&f.compsFile, "comps", "", "YAML file of rental and sales comps")
	_ = cmd.MarkFlagRequired("price")
}

// input builds a validated deal input from the flags.
func (f *listingFlags) input(cmd *cobra.Command, address string) (deal.Input, error) {
	l := listing.Listing{
		Source:       "manual",
		Address:      address,
		City:         f.city,
		State:        f.state,
		ZipCode:      f.zip,
		Price:        f.price,
		Beds:         f.beds,
		Baths:        f.baths,
		Sqft:         f.sqft,
		YearBuilt:    f.yearBuilt,
		PropertyType: listing.PropertyType(f.propertyType),
		HOAMonthly:   f.hoa,
		TaxAnnual:    f.tax,
	}
	l.ApplyDefaults()
	if err := l.Validate(); err != nil {
		return deal.Input{}, err
	}

	in := deal.Input{Listing: l}
	if cmd.Flags().Changed("rent") {
		in.Estimates.Rent = analysis.Float(f.rent)
	}
	if cmd.Flags().Changed("arv") {
		in.Estimates.ARV = analysis.Float(f.arv)
	}
	if f.compsFile != "" {
		set, err := comps.LoadFile(f.compsFile)
		if err != nil {
			return deal.Input{}, err
		}
		in.Comps = set
	}
	return in, nil
}

// engine analyzes and prices listings without touching the database.
type engine struct {
	analyzer   *analysis.DealAnalyzer
	calculator *analysis.Calculator
	estimator  *comps.Estimator
}

func newEngine(cfg config.AnalysisConfig) (*engine, error) {
	analyzer, err := analysis.NewDealAnalyzer(cfg)
	if err != nil {
		return nil, err
	}
	calculator, err := analysis.NewCalculator(cfg)
	if err != nil {
		return nil, err
	}
	e := &engine{analyzer: analyzer, calculator: calculator}
	if cfg.Comps.Enabled {
		e.estimator = comps.NewEstimator(cfg.Comps)
	}
	return e, nil
}

func newAnalyzeCmd() *cobra.Command {
	var flags listingFlags
	var save bool

	cmd := &cobra.Command{
		Use:   "analyze <address>",
		Short: "Analyze a single listing",
		Long:  "Run every configured strategy against a listing entered on the command line.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, &flags, strings.Join(args, " "), save)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&save, "save", false, "store the listing and its deals")

	return cmd
}

type analyzeOutput struct {
	RunID string                  `json:"run_id,omitempty"`
	Deals []analysis.DealAnalysis `json:"deals"`
	Comps *comps.Result           `json:"comps,omitempty"`
}

func runAnalyze(cmd *cobra.Command, flags *listingFlags, address string, save bool) error {
	if err := requireFormat(cmd, "text", "json", "markdown", "html"); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	in, err := flags.input(cmd, address)
	if err != nil {
		return err
	}

	var out analyzeOutput
	if c := remoteClient(); c != nil {
		if save {
			return errors.New("--save is not supported with --server; use batch --save")
		}
		resp, err := c.Analyze(client.NewSubject(in))
		if err != nil {
			return err
		}
		out.Deals, out.Comps = resp.Deals, resp.Comps
	} else if err := analyzeLocal(cmd, cfg, in, save, &out); err != nil {
		return err
	}

	return printAnalyzeOutput(cmd, in.Listing.Address, out)
}

// analyzeLocal analyzes in with the local engine, storing the results when
// save is set.
func analyzeLocal(cmd *cobra.Command, cfg config.Config, in deal.Input, save bool, out *analyzeOutput) error {
	e, err := newEngine(cfg.Analysis)
	if err != nil {
		return err
	}
	est, res := e.estimator.Resolve(in.Listing, in.Comps, in.Estimates)
	out.Comps = res

	if !save {
		out.Deals = e.analyzer.AnalyzeListing(in.Listing, est)
		return nil
	}

	database, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(database)

	svc, err := deal.NewService(database, cfg.Analysis)
	if err != nil {
		return err
	}
	run, err := svc.Run(cmd.Context(), []deal.Input{in})
	if err != nil {
		return err
	}
	out.RunID = run.ID
	out.Deals = run.Deals
	return nil
}

func printAnalyzeOutput(cmd *cobra.Command, address string, out analyzeOutput) error {
	w := cmd.OutOrStdout()
	switch flagFormat {
	case "json":
		return printJSON(w, out)
	case "markdown", "html":
		return writeDeals(w, "Analysis: "+address, out.Deals)
	}

	printEstimates(w, out.Comps)
	printAnalyses(w, out.Deals)
	if out.RunID != "" {
		fmt.Fprintf(w, "Saved as run %s\n", out.RunID)
	}
	return nil
}
