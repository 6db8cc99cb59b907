package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/akobyansamvel/curs/internal/api"
	"github.com/akobyansamvel/curs/internal/geo"
	"github.com/akobyansamvel/curs/internal/models"
	"github.com/akobyansamvel/curs/internal/schedule"
)

func newRequestsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requests",
		Short: "Browse and manage activity requests",
	}

	cmd.AddCommand(newRequestsListCmd())
	cmd.AddCommand(newRequestsNearbyCmd())
	cmd.AddCommand(newRequestsMyCmd())
	cmd.AddCommand(newRequestsFavoritesCmd())
	cmd.AddCommand(newRequestsCreateCmd())
	cmd.AddCommand(newRequestsJoinCmd())
	cmd.AddCommand(newRequestsFavoriteCmd())
	return cmd
}

func newRequestsListCmd() *cobra.Command {
	var (
		category string
		search   string
		withPast bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open requests, upcoming first",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}

			all, err := e.client.Requests(cmd.Context(), api.RequestListParams{
				CategorySlug: category,
				Search:       search,
			})
			if err != nil {
				return err
			}

			upcoming, past := schedule.SplitActivePast(time.Now(), all)

			out := cmd.OutOrStdout()
			if len(upcoming) == 0 && (!withPast || len(past) == 0) {
				fmt.Fprintln(out, e.tr("requests.none"))
				return nil
			}

			fmt.Fprintf(out, "== %s ==\n", e.tr("requests.upcoming"))
			printRequests(out, upcoming)
			if withPast {
				fmt.Fprintf(out, "== %s ==\n", e.tr("requests.past"))
				printRequests(out, past)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "filter by category slug")
	cmd.Flags().StringVar(&search, "search", "", "free-text filter")
	cmd.Flags().BoolVar(&withPast, "past", false, "also show past and finished requests")
	return cmd
}

func newRequestsNearbyCmd() *cobra.Command {
	var (
		lat, lon float64
		radius   float64
		address  string
	)

	cmd := &cobra.Command{
		Use:   "nearby",
		Short: "List upcoming requests around a point",
		Long:  "Lists upcoming requests within --radius km of a point given as --lat/--lon or as an --address geocoded via Yandex.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}

			if address != "" {
				geocoder := geo.NewGeocoder(e.cfg.YandexAPIKey, e.log)
				loc, err := geocoder.Resolve(cmd.Context(), address)
				if err != nil {
					if err == geo.ErrNotResolved {
						return fmt.Errorf("%s", e.tr("geo.not_resolved"))
					}
					return err
				}
				lat, lon = loc.Latitude, loc.Longitude
			}
			if lat == 0 && lon == 0 {
				return fmt.Errorf("нужна точка: --lat/--lon или --address")
			}

			all, err := e.client.Requests(cmd.Context(), api.RequestListParams{
				Latitude:  lat,
				Longitude: lon,
				RadiusKM:  radius,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			upcoming := schedule.FilterUpcoming(time.Now(), all)
			if len(upcoming) == 0 {
				fmt.Fprintln(out, e.tr("requests.none"))
				return nil
			}
			printRequests(out, upcoming)
			return nil
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude of the search point")
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude of the search point")
	cmd.Flags().Float64Var(&radius, "radius", 10, "search radius, km")
	cmd.Flags().StringVar(&address, "address", "", "address to geocode into the search point")
	return cmd
}

func newRequestsMyCmd() *cobra.Command {
	var participations bool

	cmd := &cobra.Command{
		Use:   "my",
		Short: "List your own requests (or responses with --participations)",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}

			var list []models.ActivityRequest
			if participations {
				list, err = e.client.MyParticipations(cmd.Context())
			} else {
				list, err = e.client.MyRequests(cmd.Context())
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, e.tr("requests.none"))
				return nil
			}
			printActivePast(out, e, list)
			return nil
		},
	}

	cmd.Flags().BoolVar(&participations, "participations", false, "show requests you responded to")
	return cmd
}

func newRequestsFavoritesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "favorites",
		Short: "List your favorite requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}

			list, err := e.client.Favorites(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, e.tr("requests.none"))
				return nil
			}
			printActivePast(out, e, list)
			return nil
		},
	}
}

func newRequestsCreateCmd() *cobra.Command {
	var draft api.RequestDraft
	var address string

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Publish a new request",
		Long:  "Publishes a request. With --address the place is geocoded via Yandex and its coordinates are attached.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}

			draft.Title = args[0]
			if address != "" {
				geocoder := geo.NewGeocoder(e.cfg.YandexAPIKey, e.log)
				loc, err := geocoder.Resolve(cmd.Context(), address)
				if err != nil {
					if err == geo.ErrNotResolved {
						return fmt.Errorf("%s", e.tr("geo.not_resolved"))
					}
					return err
				}
				draft.Latitude = loc.Latitude
				draft.Longitude = loc.Longitude
				draft.Address = loc.FormattedAddress
			}

			created, err := e.client.CreateRequest(cmd.Context(), draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), e.tr("requests.created")+"\n", created.Title)
			fmt.Fprintf(cmd.OutOrStdout(), "id: %d\n", created.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&draft.Date, "date", "", "activity date, 2006-01-02 (required)")
	cmd.Flags().StringVar(&draft.Time, "time", "", "activity time, 15:04")
	cmd.Flags().StringVar(&draft.Description, "description", "", "request description")
	cmd.Flags().StringVar(&draft.LocationName, "location", "", "place name")
	cmd.Flags().StringVar(&address, "address", "", "address to geocode")
	cmd.Flags().Int64Var(&draft.ActivityID, "activity", 0, "activity id from the catalog")
	cmd.Flags().IntVar(&draft.MaxParticipants, "max", 0, "participants limit")
	cmd.Flags().StringVar(&draft.Level, "level", "", "expected skill level")
	cmd.MarkFlagRequired("date")
	return cmd
}

func newRequestsJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <request-id>",
		Short: "Respond to a request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			part, err := e.client.Participate(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Отклик отправлен (статус: %s)\n", part.Status)
			return nil
		},
	}
}

func newRequestsFavoriteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "favorite <request-id>",
		Short: "Toggle a request in your favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			fav, err := e.client.ToggleFavorite(cmd.Context(), id)
			if err != nil {
				return err
			}
			if fav {
				fmt.Fprintln(cmd.OutOrStdout(), "Добавлено в избранное")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Убрано из избранного")
			}
			return nil
		},
	}
}

// printActivePast renders the two tabs every personal listing has: upcoming
// first, then the past section when it is non-empty.
func printActivePast(out io.Writer, e *env, list []models.ActivityRequest) {
	upcoming, past := schedule.SplitActivePast(time.Now(), list)
	fmt.Fprintf(out, "== %s ==\n", e.tr("requests.upcoming"))
	printRequests(out, upcoming)
	if len(past) > 0 {
		fmt.Fprintf(out, "== %s ==\n", e.tr("requests.past"))
		printRequests(out, past)
	}
}

func printRequests(out io.Writer, list []models.ActivityRequest) {
	for _, req := range list {
		when := req.Date
		if req.Time != "" {
			when += " " + req.Time
		}
		fmt.Fprintf(out, "%4d  %-12s  %s", req.ID, when, req.Title)
		if req.LocationName != "" {
			fmt.Fprintf(out, " @ %s", req.LocationName)
		}
		if req.MaxParticipants > 0 {
			fmt.Fprintf(out, "  [%d/%d]", req.CurrentParticipants, req.MaxParticipants)
		}
		fmt.Fprintln(out)
	}
}
