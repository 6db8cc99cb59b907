// Command devserver runs the in-memory development backend with a small set
// of demo data. The curs client talks to it with
// CURS_API_URL=http://localhost:8080/api.
package main

import (
	"flag"
	"net/http"
	"os"

	"github.com/rs/zerolog"

	"github.com/akobyansamvel/curs/internal/devserver"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	secret := flag.String("secret", "dev-secret", "JWT signing secret")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger()

	srv := devserver.New(*secret, log)
	seedDemo(srv, log)

	log.Info().Str("addr", *addr).Msg("devserver listening")
	if err := http.ListenAndServe(*addr, srv.Handler()); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// seedDemo fills the server with two accounts, a catalog and a shared room
// so every CLI command has something to show right away.
func seedDemo(srv *devserver.Server, log zerolog.Logger) {
	alice := srv.SeedUser("alice", "alice123")
	boris := srv.SeedUser("boris", "boris123")
	srv.SeedModerator("admin", "admin123")

	srv.SeedActivity("Спорт", "Футбол")
	srv.SeedActivity("Развлечения", "Настольные игры")

	srv.SeedRequest(alice, "Футбол в субботу", "2026-09-05", "18:00")

	room := srv.SeedRoom(alice, boris)
	srv.SeedMessage(room, alice, "Привет! Играешь в субботу?")
	srv.SeedMessage(room, boris, "Привет, да, буду!")

	log.Info().
		Int64("room_id", room.ID).
		Msg("demo data seeded: users alice/alice123, boris/boris123, admin/admin123")
}
