// Package geo resolves free-text queries and coordinate pairs into places via
// the Yandex geocoder HTTP API. The client's whole contract is
// resolve(query|coords) -> {latitude, longitude, formatted address}; map
// rendering stays with the map provider.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultEndpoint = "https://geocode-maps.yandex.ru/1.x/"

// ErrNotResolved means the geocoder returned no result for the query.
var ErrNotResolved = errors.New("geo: query not resolved")

// Location is a resolved place.
type Location struct {
	Latitude         float64
	Longitude        float64
	FormattedAddress string
}

// Geocoder is a client of the Yandex geocoder.
type Geocoder struct {
	apiKey   string
	endpoint string
	httpc    *http.Client
	log      zerolog.Logger
}

// NewGeocoder returns a geocoder using the given API key.
func NewGeocoder(apiKey string, log zerolog.Logger) *Geocoder {
	return &Geocoder{
		apiKey:   apiKey,
		endpoint: defaultEndpoint,
		httpc:    &http.Client{Timeout: 10 * time.Second},
		log:      log.With().Str("component", "geo").Logger(),
	}
}

// SetEndpoint overrides the API endpoint (tests).
func (g *Geocoder) SetEndpoint(endpoint string) { g.endpoint = endpoint }

// Resolve geocodes a free-text query ("Москва, парк Горького") into
// coordinates and a formatted address.
func (g *Geocoder) Resolve(ctx context.Context, query string) (*Location, error) {
	return g.fetch(ctx, query)
}

// ReverseResolve turns a coordinate pair (e.g. a map click) into a formatted
// address.
func (g *Geocoder) ReverseResolve(ctx context.Context, lat, lon float64) (*Location, error) {
	// Яндекс принимает "долгота,широта"
	return g.fetch(ctx, fmt.Sprintf("%f,%f", lon, lat))
}

// geocodeResponse is the subset of the geocoder payload the client reads.
type geocodeResponse struct {
	Response struct {
		GeoObjectCollection struct {
			FeatureMember []struct {
				GeoObject struct {
					MetaDataProperty struct {
						GeocoderMetaData struct {
							Text string `json:"text"`
						} `json:"GeocoderMetaData"`
					} `json:"metaDataProperty"`
					Point struct {
						Pos string `json:"pos"` // "lon lat"
					} `json:"Point"`
				} `json:"GeoObject"`
			} `json:"featureMember"`
		} `json:"GeoObjectCollection"`
	} `json:"response"`
}

func (g *Geocoder) fetch(ctx context.Context, geocode string) (*Location, error) {
	q := url.Values{}
	q.Set("apikey", g.apiKey)
	q.Set("format", "json")
	q.Set("lang", "ru_RU")
	q.Set("geocode", geocode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("geo: build request: %w", err)
	}

	resp, err := g.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geo: geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geo: geocoder returned status %d", resp.StatusCode)
	}

	var payload geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("geo: decode response: %w", err)
	}

	members := payload.Response.GeoObjectCollection.FeatureMember
	if len(members) == 0 {
		return nil, ErrNotResolved
	}

	obj := members[0].GeoObject
	lat, lon, err := parsePos(obj.Point.Pos)
	if err != nil {
		return nil, err
	}

	return &Location{
		Latitude:         lat,
		Longitude:        lon,
		FormattedAddress: obj.MetaDataProperty.GeocoderMetaData.Text,
	}, nil
}

// parsePos splits the geocoder's "lon lat" point encoding.
func parsePos(pos string) (lat, lon float64, err error) {
	parts := strings.Fields(pos)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("geo: unexpected point %q", pos)
	}
	lon, err = strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("geo: unexpected point %q", pos)
	}
	lat, err = strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("geo: unexpected point %q", pos)
	}
	return lat, lon, nil
}
