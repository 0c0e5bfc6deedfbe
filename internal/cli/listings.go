package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/evcraddock/keyswap/internal/client"
	"github.com/evcraddock/keyswap/internal/listing"
)

func newListingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "listings",
		Aliases: []string{"listing"},
		Short:   "Browse and manage marketplace listings",
	}

	cmd.AddCommand(
		newListingsListCmd(),
		newListingsShowCmd(),
		newListingsAddCmd(),
		newListingsUpdateCmd(),
		newListingsRemoveCmd(),
		newListingsAnalyzeCmd(),
		newListingsStatusCmd(),
		newListingsContactCmd(),
		newListingsInquiriesCmd(),
	)
	return cmd
}

func newListingsListCmd() *cobra.Command {
	var opts client.ListOptions
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Search listings",
		Long:  "Search listings, newest first. --min-return keeps listings whose cash-on-cash return at 20% down meets the threshold.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if status != "" && !listing.ValidStatus(status) {
				return fmt.Errorf("invalid status %q (active, pending or sold)", status)
			}
			opts.Status = listing.Status(status)

			listings, err := newAPIClient().ListListings(opts)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), listings)
			}
			return printListingTable(cmd.OutOrStdout(), listings)
		},
	}

	cmd.Flags().StringVar(&opts.Location, "location", "", "address, city or state contains")
	cmd.Flags().StringVar(&opts.PropertyType, "type", "", "property type")
	cmd.Flags().StringVar(&status, "status", "", "active, pending or sold")
	cmd.Flags().Float64Var(&opts.MinPrice, "min-price", 0, "minimum price")
	cmd.Flags().Float64Var(&opts.MaxPrice, "max-price", 0, "maximum price")
	cmd.Flags().StringSliceVar(&opts.Amenities, "amenity", nil, "required amenity (repeatable)")
	cmd.Flags().Float64Var(&opts.MinReturn, "min-return", 0, "minimum cash-on-cash return percent")
	cmd.Flags().BoolVar(&opts.Mine, "mine", false, "only my listings (sellers)")

	return cmd
}

func newListingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show listing details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "listing")
			if err != nil {
				return err
			}
			l, err := newAPIClient().GetListing(id)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), l)
			}
			printListingSummary(cmd.OutOrStdout(), l)
			return nil
		},
	}
}

// draftFlags binds the listing fields to flags. apply copies only the flags
// that were given onto a draft.
type draftFlags struct {
	title, address, city, state, propertyType string

	price, revenue                          float64
	bedrooms, bathrooms, occupancy, nightly float64
	stars                                   float64
	sqft                                    int64
	reviews                                 int
	amenities                               []string
}

func (f *draftFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.title, "title", "", "headline")
	fs.StringVar(&f.address, "address", "", "street address")
	fs.StringVar(&f.city, "city", "", "city (filled from geocoding when empty)")
	fs.StringVar(&f.state, "state", "", "state (filled from geocoding when empty)")
	fs.StringVar(&f.propertyType, "type", "", "property type, e.g. Cabin or Condo")
	fs.Float64Var(&f.price, "price", 0, "asking price")
	fs.Float64Var(&f.revenue, "revenue", 0, "annual rental revenue")
	fs.IntVar(&f.reviews, "reviews", 0, "number of guest reviews")
	fs.StringArrayVar(&f.amenities, "amenity", nil, "amenity (repeatable, replaces the list)")
	fs.Float64Var(&f.bedrooms, "bedrooms", 0, "bedrooms")
	fs.Float64Var(&f.bathrooms, "bathrooms", 0, "bathrooms")
	fs.Int64Var(&f.sqft, "sqft", 0, "square feet")
	fs.Float64Var(&f.occupancy, "occupancy", 0, "average occupancy percent")
	fs.Float64Var(&f.nightly, "nightly", 0, "average nightly rate")
	fs.Float64Var(&f.stars, "stars", 0, "guest rating (0-5)")
}

var draftFlagNames = []string{
	"title", "address", "city", "state", "type", "price", "revenue", "reviews", "amenity",
	"bedrooms", "bathrooms", "sqft", "occupancy", "nightly", "stars",
}

func (f *draftFlags) changed(fs *pflag.FlagSet) bool {
	for _, name := range draftFlagNames {
		if fs.Changed(name) {
			return true
		}
	}
	return false
}

func (f *draftFlags) apply(fs *pflag.FlagSet, d listing.Draft) listing.Draft {
	strs := []struct {
		name string
		v    string
		dst  *string
	}{
		{"title", f.title, &d.Title},
		{"address", f.address, &d.Address},
		{"city", f.city, &d.City},
		{"state", f.state, &d.State},
		{"type", f.propertyType, &d.PropertyType},
	}
	for _, fl := range strs {
		if fs.Changed(fl.name) {
			*fl.dst = fl.v
		}
	}

	if fs.Changed("price") {
		d.Price = f.price
	}
	if fs.Changed("revenue") {
		d.AnnualRevenue = f.revenue
	}
	if fs.Changed("reviews") {
		d.ReviewCount = f.reviews
	}
	if fs.Changed("amenity") {
		d.Amenities = f.amenities
	}

	optional := []struct {
		name string
		v    float64
		dst  **float64
	}{
		{"bedrooms", f.bedrooms, &d.Bedrooms},
		{"bathrooms", f.bathrooms, &d.Bathrooms},
		{"occupancy", f.occupancy, &d.AvgOccupancy},
		{"nightly", f.nightly, &d.NightlyRate},
		{"stars", f.stars, &d.StarRating},
	}
	for _, fl := range optional {
		if fs.Changed(fl.name) {
			v := fl.v
			*fl.dst = &v
		}
	}
	if fs.Changed("sqft") {
		v := f.sqft
		d.Sqft = &v
	}
	return d
}

func newListingsAddCmd() *cobra.Command {
	var f draftFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Publish a listing (sellers)",
		Example: `  keyswap listings add --address "12 Shore Rd" --city "South Lake Tahoe" --state CA \
    --price 500000 --revenue 72000 --bedrooms 3 --bathrooms 2 --amenity "Outdoor Hot Tub"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := newAPIClient().CreateListing(f.apply(cmd.Flags(), listing.Draft{}))
			if err != nil {
				return fmt.Errorf("adding listing: %w", err)
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), l)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Listing added successfully!")
			printListingSummary(cmd.OutOrStdout(), l)
			return nil
		},
	}

	f.register(cmd.Flags())
	for _, name := range []string{"address", "price"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}
	return cmd
}

func newListingsUpdateCmd() *cobra.Command {
	var f draftFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit one of your listings",
		Long:  "Edit a listing. Only the given flags change; --amenity replaces the whole amenity list.",
		Example: `  keyswap listings update 7 --price 475000 --occupancy 68`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "listing")
			if err != nil {
				return err
			}
			if !f.changed(cmd.Flags()) {
				return fmt.Errorf("nothing to update")
			}

			c := newAPIClient()
			current, err := c.GetListing(id)
			if err != nil {
				return err
			}
			l, err := c.UpdateListing(id, f.apply(cmd.Flags(), current.Draft))
			if err != nil {
				return fmt.Errorf("updating listing: %w", err)
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), l)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Listing updated.")
			printListingSummary(cmd.OutOrStdout(), l)
			return nil
		},
	}

	f.register(cmd.Flags())
	return cmd
}

func newListingsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove one of your listings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "listing")
			if err != nil {
				return err
			}
			if err := newAPIClient().DeleteListing(id); err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"id":      id,
					"removed": true,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Listing #%d removed.\n", id)
			return nil
		},
	}
}

func newListingsAnalyzeCmd() *cobra.Command {
	var down string

	cmd := &cobra.Command{
		Use:   "analyze <id>",
		Short: "Run the profit and valuation calculators on a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "listing")
			if err != nil {
				return err
			}
			a, err := newAPIClient().AnalyzeListing(id, down)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), a)
			}
			printAnalysis(cmd.OutOrStdout(), a)
			return nil
		},
	}

	cmd.Flags().StringVar(&down, "down", "", "down payment (default: 20% of price)")
	return cmd
}

func newListingsStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <active|pending|sold>",
		Short: "Change a listing's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "listing")
			if err != nil {
				return err
			}
			if !listing.ValidStatus(args[1]) {
				return fmt.Errorf("invalid status %q (active, pending or sold)", args[1])
			}
			l, err := newAPIClient().SetListingStatus(id, listing.Status(args[1]))
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), l)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Listing #%d is now %s.\n", l.ID, l.Status)
			return nil
		},
	}
}

func newListingsContactCmd() *cobra.Command {
	var contact client.Contact

	cmd := &cobra.Command{
		Use:   "contact <id>",
		Short: "Send an inquiry to a listing's seller",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "listing")
			if err != nil {
				return err
			}
			in, err := newAPIClient().ContactSeller(id, contact)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), in)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Inquiry #%d sent.\n", in.ID)
			return nil
		},
	}

	addContactFlags(cmd, &contact)
	return cmd
}

func newListingsInquiriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inquiries <id>",
		Short: "Show inquiries on one of your listings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "listing")
			if err != nil {
				return err
			}
			inquiries, err := newAPIClient().ListingInquiries(id)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), inquiries)
			}
			printInquiries(cmd.OutOrStdout(), inquiries)
			return nil
		},
	}
}
