// Package report renders deal and offer results for people: one-line key
// metrics for tables, and a Markdown report that can be converted to HTML.
package report

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/evcraddock/listingiq/internal/analysis"
	"github.com/evcraddock/listingiq/internal/money"
)

// StrategyLabel returns the display name of a strategy, e.g. "CASH FLOW".
func StrategyLabel(s analysis.Strategy) string {
	return strings.ToUpper(strings.ReplaceAll(string(s), "_", " "))
}

// KeyMetric returns the metric that matters most for a deal's strategy.
func KeyMetric(d analysis.DealAnalysis) string {
	m := d.Metrics
	switch d.Strategy {
	case analysis.StrategyBRRR:
		return "CoC: " + money.Percent(m.Get(analysis.MetricCashOnCashReturn))
	case analysis.StrategyCashFlow:
		return fmt.Sprintf("CF: $%s/mo", money.Format(m.Get(analysis.MetricMonthlyCashFlow)))
	case analysis.StrategyFlip:
		return "Profit: $" + money.Format(m.Get(analysis.MetricEstimatedProfit))
	}
	return ""
}

// OfferKeyMetric returns the metrics that matter most at an offer price.
func OfferKeyMetric(o analysis.OfferResult) string {
	m := o.MetricsAtOffer
	cf := money.Format(m.Get(analysis.MetricMonthlyCashFlow))
	coc := money.Percent(m.Get(analysis.MetricCashOnCashReturn))
	switch o.Strategy {
	case analysis.StrategyCashFlow:
		return fmt.Sprintf("CF: $%s/mo | CoC: %s", cf, coc)
	case analysis.StrategyBRRR:
		return fmt.Sprintf("CoC: %s | CF: $%s/mo", coc, cf)
	case analysis.StrategyFlip:
		return fmt.Sprintf("Profit: $%s | ROI: %s",
			money.Format(m.Get(analysis.MetricEstimatedProfit)), money.Percent(m.Get(analysis.MetricROI)))
	}
	return ""
}

// OfferTarget describes an offer's target, e.g. "cap_rate: 6.0%".
func OfferTarget(o analysis.OfferResult) string {
	if strings.Contains(o.TargetMetric, "return") || strings.Contains(o.TargetMetric, "rate") {
		return fmt.Sprintf("%s: %.1f%%", o.TargetMetric, o.TargetValue)
	}
	return fmt.Sprintf("%s: %s", o.TargetMetric, money.Format(o.TargetValue))
}

// Markdown renders ranked deals as a Markdown document: a summary table
// followed by each deal's full analysis.
func Markdown(title string, deals []analysis.DealAnalysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)

	if len(deals) == 0 {
		b.WriteString("No deals meet your criteria.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Found %d deals meeting your criteria.\n\n", len(deals))
	b.WriteString("| # | Score | Strategy | Address | Price | Beds/Bath | Key Metric | Source |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|\n")
	for i, d := range deals {
		l := d.Listing
		fmt.Fprintf(&b, "| %d | %.1f | %s | %s | $%s | %d/%g | %s | %s |\n",
			i+1, d.Score, StrategyLabel(d.Strategy), cell(l.Address), money.Format(l.Price),
			l.Beds, l.Baths, cell(KeyMetric(d)), cell(l.Source))
	}

	for i, d := range deals {
		fmt.Fprintf(&b, "\n## %d. %s (%s)\n\n", i+1, d.Listing.Address, StrategyLabel(d.Strategy))
		b.WriteString("```\n")
		b.WriteString(d.Summary)
		b.WriteString("\n```\n")
	}

	return b.String()
}

// HTML renders the Markdown report as a standalone HTML page.
func HTML(title string, deals []analysis.DealAnalysis) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))

	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(title, deals)), &body); err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(title))
	b.WriteString("</head>\n<body>\n")
	b.Write(body.Bytes())
	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}

// cell escapes table delimiters in a Markdown table cell.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
