package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/akobyansamvel/curs/internal/geo"
)

func newGeocodeCmd() *cobra.Command {
	var reverse bool

	cmd := &cobra.Command{
		Use:   "geocode <address | lat lon>",
		Short: "Resolve an address to coordinates (or back with --reverse)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			geocoder := geo.NewGeocoder(e.cfg.YandexAPIKey, e.log)

			var loc *geo.Location
			if reverse {
				if len(args) != 2 {
					return fmt.Errorf("для --reverse нужны широта и долгота")
				}
				var lat, lon float64
				if _, err := fmt.Sscanf(args[0]+" "+args[1], "%f %f", &lat, &lon); err != nil {
					return fmt.Errorf("некорректные координаты: %v", err)
				}
				loc, err = geocoder.ReverseResolve(cmd.Context(), lat, lon)
			} else {
				loc, err = geocoder.Resolve(cmd.Context(), args[0])
			}
			if err != nil {
				if err == geo.ErrNotResolved {
					return fmt.Errorf("%s", e.tr("geo.not_resolved"))
				}
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", loc.FormattedAddress)
			fmt.Fprintf(out, "%.6f %.6f\n", loc.Latitude, loc.Longitude)
			return nil
		},
	}

	cmd.Flags().BoolVar(&reverse, "reverse", false, "coordinates to address")
	return cmd
}
