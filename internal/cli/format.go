package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/evcraddock/keyswap/internal/client"
	"github.com/evcraddock/keyswap/internal/finance"
	"github.com/evcraddock/keyswap/internal/inquiry"
	"github.com/evcraddock/keyswap/internal/listing"
	"github.com/evcraddock/keyswap/internal/manager"
	"github.com/evcraddock/keyswap/internal/market"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatPrice formats a whole dollar amount with commas.
func formatPrice(dollars int64) string {
	if dollars < 0 {
		return "-" + formatPrice(-dollars)
	}
	s := fmt.Sprintf("%d", dollars)

	if len(s) <= 3 {
		return s
	}

	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)

	return strings.Join(parts, ",")
}

// formatMoney rounds to whole dollars: 1234.5 is "$1,235", -80 is "-$80".
func formatMoney(f float64) string {
	d := int64(math.Round(f))
	if d < 0 {
		return "-$" + formatPrice(-d)
	}
	return "$" + formatPrice(d)
}

// formatPercent prints a ratio that may be undefined.
func formatPercent(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", *p)
}

func formatOptional(f *float64) string {
	if f == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *f)
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func printProfit(w io.Writer, e *finance.ProfitEstimate) {
	fmt.Fprintf(w, "Purchase price:      %s\n", formatMoney(e.PurchasePrice))
	fmt.Fprintf(w, "Down payment:        %s (%.1f%%)\n", formatMoney(e.DownPayment), e.DownPaymentPercent)
	fmt.Fprintf(w, "Loan amount:         %s at %g%% for %d years\n",
		formatMoney(e.LoanAmount), e.Assumptions.InterestRatePercent, e.Assumptions.LoanTermYears)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Monthly revenue:     %s\n", formatMoney(e.MonthlyRevenue))
	fmt.Fprintf(w, "  Mortgage:          %s\n", formatMoney(e.MonthlyMortgage))
	fmt.Fprintf(w, "  Property tax:      %s\n", formatMoney(e.MonthlyPropertyTax))
	fmt.Fprintf(w, "  Insurance:         %s\n", formatMoney(e.MonthlyInsurance))
	fmt.Fprintf(w, "  Management fee:    %s\n", formatMoney(e.MonthlyManagementFee))
	fmt.Fprintf(w, "Monthly expenses:    %s\n", formatMoney(e.TotalMonthlyExpenses))
	fmt.Fprintf(w, "Monthly profit:      %s\n", formatMoney(e.MonthlyProfit))
	fmt.Fprintf(w, "Annual profit:       %s\n", formatMoney(e.AnnualProfit))
	fmt.Fprintf(w, "Cash-on-cash return: %s\n", formatPercent(e.CashOnCashReturn))
}

func printValuation(w io.Writer, v *finance.Valuation) {
	fmt.Fprintf(w, "Estimated value:   %s\n", formatMoney(v.EstimatedValue))
	if v.MarketMultiplier != nil {
		fmt.Fprintf(w, "Revenue multiple:  %.1fx\n", *v.MarketMultiplier)
	} else {
		fmt.Fprintln(w, "Revenue multiple:  n/a")
	}
	fmt.Fprintf(w, "Cap rate:          %s\n", formatPercent(v.CapRate))
	fmt.Fprintf(w, "Composite score:   %.1f / 100\n", v.CompositeScore)
	fmt.Fprintln(w)

	b := v.Breakdown
	fmt.Fprintln(w, "Breakdown:")
	fmt.Fprintf(w, "  Revenue base:    %s\n", formatMoney(b.BaseValue))
	fmt.Fprintf(w, "  Bedrooms:        %s\n", formatMoney(b.BedroomBonus))
	fmt.Fprintf(w, "  Bathrooms:       %s\n", formatMoney(b.BathroomBonus))
	fmt.Fprintf(w, "  Square footage:  %s\n", formatMoney(b.SqftBonus))
	fmt.Fprintf(w, "  Amenities:       %s (%d recognized)\n", formatMoney(b.AmenitiesBonus), v.AmenityCount)
	fmt.Fprintf(w, "  Rating:          %s\n", formatMoney(b.RatingBonus))
	fmt.Fprintf(w, "  Reviews:         %s\n", formatMoney(b.ReviewsBonus))

	if len(v.AmenityCounts) > 0 {
		cats := make([]string, 0, len(v.AmenityCounts))
		for c := range v.AmenityCounts {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		fmt.Fprintln(w, "Amenities by category:")
		for _, c := range cats {
			fmt.Fprintf(w, "  %-22s %d\n", c, v.AmenityCounts[c])
		}
	}
}

func printAmenities(w io.Writer, cats []finance.AmenityCategory) {
	for _, c := range cats {
		fmt.Fprintf(w, "%s (%s each)\n", c.Name, formatMoney(c.Weight))
		for _, item := range c.Items {
			fmt.Fprintf(w, "  %s\n", item)
		}
		fmt.Fprintln(w)
	}
}

// printListingTable prints a list of listings as a formatted table.
func printListingTable(w io.Writer, listings []*listing.Listing) error {
	if len(listings) == 0 {
		fmt.Fprintln(w, "No listings found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tADDRESS\tPRICE\tREVENUE\tBED\tBATH\tSTATUS"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(tw, "--\t-------\t-----\t-------\t---\t----\t------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, l := range listings {
		if _, err := fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			l.ID, truncate(l.Address, 40), formatMoney(l.Price), formatMoney(l.AnnualRevenue),
			formatOptional(l.Bedrooms), formatOptional(l.Bathrooms), l.Status); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Fprintf(w, "\nTotal: %d listings\n", len(listings))
	return nil
}

// printListingSummary prints a single listing in text format.
func printListingSummary(w io.Writer, l *listing.Listing) {
	fmt.Fprintf(w, "Listing #%d\n", l.ID)
	if l.Title != "" {
		fmt.Fprintf(w, "  Title:     %s\n", l.Title)
	}
	fmt.Fprintf(w, "  Address:   %s\n", l.Address)
	if l.City != "" || l.State != "" {
		fmt.Fprintf(w, "  Location:  %s\n", strings.Trim(l.City+", "+l.State, ", "))
	}
	if l.HasLocation() {
		fmt.Fprintf(w, "  Coords:    %.5f, %.5f\n", *l.Latitude, *l.Longitude)
	}
	if l.PropertyType != "" {
		fmt.Fprintf(w, "  Type:      %s\n", l.PropertyType)
	}
	fmt.Fprintf(w, "  Price:     %s\n", formatMoney(l.Price))
	fmt.Fprintf(w, "  Revenue:   %s / year\n", formatMoney(l.AnnualRevenue))
	if l.Bedrooms != nil {
		fmt.Fprintf(w, "  Beds:      %g\n", *l.Bedrooms)
	}
	if l.Bathrooms != nil {
		fmt.Fprintf(w, "  Baths:     %g\n", *l.Bathrooms)
	}
	if l.Sqft != nil {
		fmt.Fprintf(w, "  Sqft:      %d\n", *l.Sqft)
	}
	if l.AvgOccupancy != nil {
		fmt.Fprintf(w, "  Occupancy: %g%%\n", *l.AvgOccupancy)
	}
	if l.NightlyRate != nil {
		fmt.Fprintf(w, "  Nightly:   %s\n", formatMoney(*l.NightlyRate))
	}
	if l.StarRating != nil {
		fmt.Fprintf(w, "  Rating:    %.1f (%d reviews)\n", *l.StarRating, l.ReviewCount)
	}
	if len(l.Amenities) > 0 {
		fmt.Fprintf(w, "  Amenities: %s\n", strings.Join(l.Amenities, ", "))
	}
	fmt.Fprintf(w, "  Status:    %s\n", l.Status)
}

func printAnalysis(w io.Writer, a *listing.Analysis) {
	fmt.Fprintf(w, "Analysis for listing #%d\n\n", a.ListingID)
	printProfit(w, a.Profit)
	if a.RevPAR != nil {
		fmt.Fprintf(w, "RevPAR:              %s\n", formatMoney(*a.RevPAR))
	}
	fmt.Fprintln(w)
	printValuation(w, &a.Valuation)
}

// printManagerTable prints managers as a formatted table.
func printManagerTable(w io.Writer, managers []*manager.Manager) error {
	if len(managers) == 0 {
		fmt.Fprintln(w, "No property managers found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tCOMPANY\tLOCATION\tRATING\tREVIEWS\tFEE"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, m := range managers {
		if _, err := fmt.Fprintf(tw, "%d\t%s\t%s\t%.1f\t%d\t%s\n",
			m.ID, m.CompanyName, m.Location, m.Rating, m.ReviewCount, m.MonthlyFee); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}
	return nil
}

func printManager(w io.Writer, m *manager.Manager) {
	fmt.Fprintf(w, "%s (#%d)\n", m.CompanyName, m.ID)
	fmt.Fprintf(w, "  Contact:     %s, %s, %s\n", m.ManagerName, m.Phone, m.Email)
	fmt.Fprintf(w, "  Location:    %s\n", m.Location)
	fmt.Fprintf(w, "  Rating:      %.1f (%d reviews)\n", m.Rating, m.ReviewCount)
	fmt.Fprintf(w, "  Experience:  %d years, %d properties\n", m.YearsInBusiness, m.PropertiesManaged)
	fmt.Fprintf(w, "  Occupancy:   %g%%\n", m.AvgOccupancyRate)
	fmt.Fprintf(w, "  Fees:        %s monthly, %s setup\n", m.MonthlyFee, formatMoney(m.SetupFee))
	if len(m.Services) > 0 {
		fmt.Fprintf(w, "  Services:    %s\n", strings.Join(m.Services, ", "))
	}
	if len(m.ServiceAreas) > 0 {
		fmt.Fprintf(w, "  Areas:       %s\n", strings.Join(m.ServiceAreas, ", "))
	}
	if m.Description != "" {
		fmt.Fprintf(w, "\n  %s\n", m.Description)
	}
}

func printInquiries(w io.Writer, inquiries []*inquiry.Inquiry) {
	if len(inquiries) == 0 {
		fmt.Fprintln(w, "No inquiries.")
		return
	}
	for _, in := range inquiries {
		fmt.Fprintf(w, "[%s] #%d %s <%s>", in.CreatedAt.Format("2006-01-02 15:04"), in.ID, in.SenderName, in.SenderEmail)
		if in.Phone != "" {
			fmt.Fprintf(w, " %s", in.Phone)
		}
		fmt.Fprintf(w, "\n  %s\n\n", in.Message)
	}
}

func printMarketTable(w io.Writer, markets []*market.Market) error {
	if len(markets) == 0 {
		fmt.Fprintln(w, "No markets found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tMARKET\tMEDIAN PRICE\tNIGHTLY\tOCCUPANCY\tREVPAR\tCASH RETURN"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, m := range markets {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%g%%\t%s\t%g%%\n",
			m.ID, m.Name, formatMoney(m.MedianPrice), formatMoney(m.MedianNightlyRate),
			m.AvgOccupancy, formatMoney(m.RevPAR), m.CashOnCashReturn); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}
	return nil
}

func printMarket(w io.Writer, m *market.Market) {
	fmt.Fprintf(w, "%s (%s)\n", m.Name, m.ID)
	fmt.Fprintf(w, "  Median price:   %s (%+g%% YoY)\n", formatMoney(m.MedianPrice), m.PriceChange)
	fmt.Fprintf(w, "  Nightly rate:   %s\n", formatMoney(m.MedianNightlyRate))
	fmt.Fprintf(w, "  Occupancy:      %g%%\n", m.AvgOccupancy)
	fmt.Fprintf(w, "  RevPAR:         %s\n", formatMoney(m.RevPAR))
	fmt.Fprintf(w, "  Returns:        %g%% cash-on-cash, %g%% cap rate\n", m.CashOnCashReturn, m.CapRate)
	fmt.Fprintf(w, "  Listings:       %d (%d new), %d days on market, %g months inventory\n",
		m.TotalListings, m.NewListings, m.DaysOnMarket, m.InventoryMonths)
	fmt.Fprintf(w, "  Forecast:       %s\n", m.Forecast)
	fmt.Fprintf(w, "  Seasons:        peak %s, low %s\n", m.PeakSeason, m.LowSeason)
	if len(m.Neighborhoods) > 0 {
		fmt.Fprintln(w, "\n  Top neighborhoods:")
		for _, n := range m.Neighborhoods {
			fmt.Fprintf(w, "    %-18s %s avg, %s/night, %g%% occupancy, %+g%% growth\n",
				n.Name, formatMoney(n.AvgPrice), formatMoney(n.AvgNightly), n.Occupancy, n.Growth)
		}
	}
	if len(m.PropertyTypes) > 0 {
		fmt.Fprintln(w, "\n  Property types:")
		for _, t := range m.PropertyTypes {
			fmt.Fprintf(w, "    %-18s %g%% share, %s avg, %s/night, %g%% occupancy\n",
				t.Type, t.Share, formatMoney(t.AvgPrice), formatMoney(t.NightlyRate), t.Occupancy)
		}
	}
}

func printComparison(w io.Writer, rows []market.Comparison) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "MARKET\tREVPAR\tOCCUPANCY\tGROWTH\tCASH RETURN"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%g%%\t%+g%%\t%g%%\n",
			r.Market, formatMoney(r.RevPAR), r.Occupancy, r.Growth, r.CashReturn); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}
	return nil
}

func printROI(w io.Writer, r *client.ROIResult) {
	if r.Market != "" {
		fmt.Fprintf(w, "Market:              %s\n", r.Market)
	}
	in := r.Inputs
	fmt.Fprintf(w, "Purchase price:      %s with %s down\n", formatMoney(in.PurchasePrice), formatMoney(in.DownPayment))
	fmt.Fprintf(w, "Nightly rate:        %s at %g%% occupancy\n", formatMoney(in.NightlyRate), in.OccupancyPercent)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Annual revenue:      %s\n", formatMoney(r.AnnualRevenue))
	fmt.Fprintf(w, "Annual expenses:     %s (%g%%)\n", formatMoney(r.AnnualExpenses), in.ExpensePercent)
	fmt.Fprintf(w, "Net income:          %s\n", formatMoney(r.NetIncome))
	fmt.Fprintf(w, "Cash-on-cash return: %s\n", formatPercent(r.CashOnCashReturn))
	fmt.Fprintf(w, "Cap rate:            %s\n", formatPercent(r.CapRate))
}
