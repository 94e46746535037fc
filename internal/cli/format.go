package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/evcraddock/listingiq/internal/analysis"
	"github.com/evcraddock/listingiq/internal/comps"
	"github.com/evcraddock/listingiq/internal/listing"
	"github.com/evcraddock/listingiq/internal/money"
	"github.com/evcraddock/listingiq/internal/report"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeDeals renders ranked deals in the markdown, html or text format.
func writeDeals(w io.Writer, title string, deals []analysis.DealAnalysis) error {
	switch flagFormat {
	case "markdown":
		_, err := io.WriteString(w, report.Markdown(title, deals))
		return err
	case "html":
		page, err := report.HTML(title, deals)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, page)
		return err
	}
	return printDealTable(w, deals)
}

// printDealTable prints ranked deals as a formatted table.
func printDealTable(out io.Writer, deals []analysis.DealAnalysis) error {
	if len(deals) == 0 {
		_, err := fmt.Fprintln(out, "No deals meet your criteria.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "#\tSCORE\tSTRATEGY\tADDRESS\tPRICE\tBED/BA\tKEY METRIC\tSOURCE"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "-\t-----\t--------\t-------\t-----\t------\t----------\t------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for i, d := range deals {
		l := d.Listing
		if _, err := fmt.Fprintf(w, "%d\t%.1f\t%s\t%s\t$%s\t%d/%g\t%s\t%s\n",
			i+1, d.Score, report.StrategyLabel(d.Strategy), truncate(l.Address, 40),
			money.Format(l.Price), l.Beds, l.Baths, report.KeyMetric(d), l.Source); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	_, err := fmt.Fprintf(out, "\nTotal: %d deals\n", len(deals))
	return err
}

// printAnalyses prints each deal's full summary.
func printAnalyses(w io.Writer, deals []analysis.DealAnalysis) {
	for _, d := range deals {
		meets := "no"
		if d.MeetsCriteria {
			meets = "yes"
		}
		fmt.Fprintf(w, "%s\nMeets criteria: %s\n\n", d.Summary, meets)
	}
}

// printEstimates prints comp-based rent and ARV estimates.
func printEstimates(w io.Writer, r *comps.Result) {
	if r == nil {
		return
	}
	fmt.Fprintf(w, "Rent estimate: $%s/mo (%s confidence, %d comps)\n",
		money.Format(r.Rent.Value), r.Rent.Confidence, r.Rent.CompsUsed)
	fmt.Fprintf(w, "ARV estimate:  $%s (%s confidence, %d comps)\n\n",
		money.Format(r.ARV.Value), r.ARV.Confidence, r.ARV.CompsUsed)
}

// printOfferTable prints offer results as a formatted table.
func printOfferTable(out io.Writer, listPrice float64, offers []analysis.OfferResult) error {
	if _, err := fmt.Fprintf(out, "List price: $%s\n\n", money.Format(listPrice)); err != nil {
		return err
	}
	if len(offers) == 0 {
		_, err := fmt.Fprintln(out, "No offers calculated.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "STRATEGY\tTARGET\tMAX OFFER\tDISCOUNT\tAT OFFER"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--------\t------\t---------\t--------\t--------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, o := range offers {
		if _, err := fmt.Fprintf(w, "%s\t%s\t$%s\t%.1f%%\t%s\n",
			report.StrategyLabel(o.Strategy), report.OfferTarget(o), money.Format(o.MaxOfferPrice),
			o.DiscountFromList, report.OfferKeyMetric(o)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	return w.Flush()
}

// printListingTable prints listings as a formatted table.
func printListingTable(out io.Writer, listings []listing.Listing) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tADDRESS\tCITY\tPRICE\tBED\tBATH\tSQFT\tSTATUS"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t-------\t----\t-----\t---\t----\t----\t------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, l := range listings {
		sqft := "-"
		if l.Sqft > 0 {
			sqft = fmt.Sprintf("%d", l.Sqft)
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t$%s\t%d\t%g\t%s\t%s\n",
			l.SourceID, truncate(l.Address, 40), l.City, money.Format(l.Price),
			l.Beds, l.Baths, sqft, l.Status); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	_, err := fmt.Fprintf(out, "\nTotal: %d listings\n", len(listings))
	return err
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
