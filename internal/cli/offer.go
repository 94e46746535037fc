package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/listingiq/internal/analysis"
	"github.com/evcraddock/listingiq/internal/client"
	"github.com/evcraddock/listingiq/internal/config"
	"github.com/evcraddock/listingiq/internal/deal"
)

type offerFlags struct {
	listingFlags
	strategy     string
	targetMetric string
	targetValue  float64
	save         bool
}

func newOfferCmd() *cobra.Command {
	var flags offerFlags

	cmd := &cobra.Command{
		Use:   "offer <address>",
		Short: "Calculate the maximum offer price for a listing",
		Long: "Find the highest purchase price at which a strategy still meets its target. " +
			"Without --strategy every configured strategy is priced at its default target.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOffer(cmd, &flags, strings.Join(args, " "))
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&flags.strategy, "strategy", "", "strategy to price (brrr|cash_flow|flip)")
	cmd.Flags().StringVar(&flags.targetMetric, "target-metric", "", "metric to solve for, e.g. cap_rate")
	cmd.Flags().Float64Var(&flags.targetValue, "target-value", 0, "target value for the metric")
	cmd.Flags().BoolVar(&flags.save, "save", false, "store the listing and its offers (all strategies only)")

	return cmd
}

type offerOutput struct {
	ListPrice float64                `json:"list_price"`
	Offers    []analysis.OfferResult `json:"offers"`
}

func runOffer(cmd *cobra.Command, flags *offerFlags, address string) error {
	if err := requireFormat(cmd, "text", "json"); err != nil {
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

	var target *float64
	if cmd.Flags().Changed("target-value") {
		target = analysis.Float(flags.targetValue)
	}

	out := offerOutput{ListPrice: in.Listing.Price}
	if c := remoteClient(); c != nil {
		if flags.save {
			return errors.New("--save is not supported with --server")
		}
		resp, err := c.Offer(client.OfferRequest{
			Subject:      client.NewSubject(in),
			Strategy:     flags.strategy,
			TargetMetric: flags.targetMetric,
			TargetValue:  target,
		})
		if err != nil {
			return err
		}
		out.Offers = resp.Offers
	} else if out.Offers, err = offerLocal(cmd, cfg, flags, in, target); err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), out)
	}
	return printOfferTable(cmd.OutOrStdout(), out.ListPrice, out.Offers)
}

// offerLocal prices in with the local engine. Offers for every strategy are
// stored when --save is set.
func offerLocal(cmd *cobra.Command, cfg config.Config, flags *offerFlags, in deal.Input, target *float64) ([]analysis.OfferResult, error) {
	if flags.save && flags.strategy == "" {
		database, err := openDB(cfg)
		if err != nil {
			return nil, err
		}
		defer closeDB(database)

		svc, err := deal.NewService(database, cfg.Analysis)
		if err != nil {
			return nil, err
		}
		return svc.Offers(cmd.Context(), in)
	}

	e, err := newEngine(cfg.Analysis)
	if err != nil {
		return nil, err
	}
	est, _ := e.estimator.Resolve(in.Listing, in.Comps, in.Estimates)
	if flags.strategy == "" {
		return e.calculator.CalculateAllOffers(in.Listing, est), nil
	}

	strategy, err := analysis.ParseStrategy(flags.strategy)
	if err != nil {
		return nil, err
	}
	offer, err := e.calculator.CalculateOfferPrice(in.Listing, strategy,
		analysis.Target{Metric: flags.targetMetric, Value: target}, est)
	if err != nil {
		return nil, err
	}
	return []analysis.OfferResult{offer}, nil
}
