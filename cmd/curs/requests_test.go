package main

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akobyansamvel/curs/internal/devserver"
)

// startCLIBackend runs the in-memory backend and points the CLI environment
// at it.
func startCLIBackend(t *testing.T) *devserver.Server {
	t.Helper()
	srv := devserver.New("cli-secret", zerolog.Nop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Setenv("CURS_API_URL", ts.URL+"/api")
	t.Setenv("CURS_LOCALE", "ru")
	return srv
}

// runCLI executes the root command with args and returns its combined output.
func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	root := newRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	require.NoError(t, root.Execute())
	return buf.String()
}

// TestRequestsMySplitsActivePast verifies that the personal listing renders
// the two temporal sections: upcoming requests first, finished ones under the
// past header.
func TestRequestsMySplitsActivePast(t *testing.T) {
	// Arrange
	srv := startCLIBackend(t)
	alice := srv.SeedUser("alice", "pw123456")
	srv.SeedRequest(alice, "Футбол в парке", "2100-06-01", "18:00")
	srv.SeedRequest(alice, "Пробежка на рассвете", "2020-01-01", "06:00")
	t.Setenv("CURS_TOKEN", srv.TokenFor(alice))

	// Act
	out := runCLI(t, "requests", "my")

	// Assert
	assert.Contains(t, out, "Актуальные")
	assert.Contains(t, out, "Прошедшие")
	assert.Contains(t, out, "Футбол в парке")
	assert.Contains(t, out, "Пробежка на рассвете")
	assert.Less(t, strings.Index(out, "Футбол в парке"), strings.Index(out, "Прошедшие"))
	assert.Less(t, strings.Index(out, "Прошедшие"), strings.Index(out, "Пробежка на рассвете"))
}

// TestRequestsFavoritesListsSplitSections verifies the favorites view: only
// favorited requests appear, split into upcoming and past.
func TestRequestsFavoritesListsSplitSections(t *testing.T) {
	// Arrange
	srv := startCLIBackend(t)
	alice := srv.SeedUser("alice", "pw123456")
	boris := srv.SeedUser("boris", "pw123456")
	fresh := srv.SeedRequest(boris, "Волейбол на пляже", "2100-07-01", "")
	stale := srv.SeedRequest(boris, "Шахматы в клубе", "2020-02-02", "")
	srv.SeedRequest(boris, "Теннис без избранного", "2100-08-01", "")
	srv.SeedFavorite(alice, fresh)
	srv.SeedFavorite(alice, stale)
	t.Setenv("CURS_TOKEN", srv.TokenFor(alice))

	// Act
	out := runCLI(t, "requests", "favorites")

	// Assert
	assert.Contains(t, out, "Волейбол на пляже")
	assert.Contains(t, out, "Шахматы в клубе")
	assert.NotContains(t, out, "Теннис без избранного")
	assert.Less(t, strings.Index(out, "Волейбол на пляже"), strings.Index(out, "Прошедшие"))
	assert.Less(t, strings.Index(out, "Прошедшие"), strings.Index(out, "Шахматы в клубе"))
}

// TestRequestsNearbyFiltersByDistanceAndDate verifies the radius listing:
// requests outside the radius and finished ones are dropped.
func TestRequestsNearbyFiltersByDistanceAndDate(t *testing.T) {
	// Arrange
	srv := startCLIBackend(t)
	alice := srv.SeedUser("alice", "pw123456")
	boris := srv.SeedUser("boris", "pw123456")
	srv.SeedRequestAt(boris, "Бадминтон рядом", "2100-05-05", 55.7600, 37.6200)
	srv.SeedRequestAt(boris, "Хоккей в Петербурге", "2100-05-05", 59.9343, 30.3351)
	srv.SeedRequestAt(boris, "Каток прошлой зимой", "2020-01-15", 55.7600, 37.6200)
	t.Setenv("CURS_TOKEN", srv.TokenFor(alice))

	// Act
	out := runCLI(t, "requests", "nearby", "--lat", "55.7558", "--lon", "37.6173", "--radius", "10")

	// Assert
	assert.Contains(t, out, "Бадминтон рядом")
	assert.NotContains(t, out, "Хоккей в Петербурге")
	assert.NotContains(t, out, "Каток прошлой зимой")
}
