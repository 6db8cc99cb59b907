package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/akobyansamvel/curs/internal/api"
	"github.com/akobyansamvel/curs/internal/config"
	"github.com/akobyansamvel/curs/internal/localization"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "curs",
		Short: "curs — поиск партнёров для совместных занятий",
		Long:  "Терминальный клиент сервиса поиска партнёров: заявки, чаты, уведомления.",
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newRegisterCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newWhoamiCmd())
	cmd.AddCommand(newProfileCmd())
	cmd.AddCommand(newRequestsCmd())
	cmd.AddCommand(newRoomsCmd())
	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newNotificationsCmd())
	cmd.AddCommand(newModerationCmd())
	cmd.AddCommand(newGeocodeCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "curs %s (commit: %s)\n", Version, Commit)
		},
	}
}

// env wires together everything a command needs: settings, logger, REST
// client and the string table.
type env struct {
	cfg    *config.Config
	log    zerolog.Logger
	client *api.Client
	loc    *localization.Localizer
}

func newEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().Level(level)

	loc, err := localization.NewLocalizer()
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:    cfg,
		log:    log,
		client: api.NewClient(cfg.BaseURL, cfg.Token, log),
		loc:    loc,
	}, nil
}

// tr returns the localized string for the configured language.
func (e *env) tr(key string) string {
	return e.loc.GetString(e.cfg.Locale, key)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректный идентификатор: %q", arg)
	}
	return id, nil
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
