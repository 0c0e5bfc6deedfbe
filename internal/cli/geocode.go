package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newGeocodeCmd() *cobra.Command {
	var reverse string
	var places bool

	cmd := &cobra.Command{
		Use:   "geocode <address>",
		Short: "Look up coordinates for an address",
		Long: "Resolve an address through the server's geocoder. --reverse looks up the place at " +
			"'lng,lat'; with --places the argument is a city name to autocomplete.",
		Example: `  keyswap geocode 100 Congress Ave, Austin, TX
  keyswap geocode --reverse -97.7431,30.2672
  keyswap geocode --places aus`,
		Args: func(cmd *cobra.Command, args []string) error {
			if reverse != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.MinimumNArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			c := newAPIClient()
			w := cmd.OutOrStdout()

			switch {
			case reverse != "":
				lng, lat, err := parseLngLat(reverse)
				if err != nil {
					return err
				}
				name, err := c.ReverseGeocode(lng, lat)
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(w, map[string]string{"place_name": name})
				}
				fmt.Fprintln(w, name)

			case places:
				results, err := c.SearchPlaces(query)
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(w, results)
				}
				if len(results) == 0 {
					fmt.Fprintln(w, "No places found.")
				}
				for _, r := range results {
					fmt.Fprintln(w, r.PlaceName)
				}

			default:
				res, err := c.Geocode(query)
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(w, res)
				}
				fmt.Fprintf(w, "%s\n  %.6f, %.6f\n", res.PlaceName, res.Latitude, res.Longitude)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&reverse, "reverse", "", "reverse geocode a 'lng,lat' pair")
	cmd.Flags().BoolVar(&places, "places", false, "autocomplete city names")
	cmd.MarkFlagsMutuallyExclusive("reverse", "places")

	return cmd
}

func parseLngLat(s string) (lng, lat float64, err error) {
	lngStr, latStr, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("expected lng,lat, got %q", s)
	}
	if lng, err = strconv.ParseFloat(strings.TrimSpace(lngStr), 64); err != nil {
		return 0, 0, fmt.Errorf("invalid longitude %q", lngStr)
	}
	if lat, err = strconv.ParseFloat(strings.TrimSpace(latStr), 64); err != nil {
		return 0, 0, fmt.Errorf("invalid latitude %q", latStr)
	}
	return lng, lat, nil
}
