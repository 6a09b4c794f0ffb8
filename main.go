package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/codemytelab/gamezone/internal/config"
	"github.com/codemytelab/gamezone/internal/game"
	"github.com/codemytelab/gamezone/internal/hacker"
	"github.com/codemytelab/gamezone/internal/httpserver"
	"github.com/codemytelab/gamezone/internal/i18n"
	"github.com/codemytelab/gamezone/internal/session"
	"github.com/codemytelab/gamezone/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "gamezone",
		Short:        "Binary conversion and hacker puzzle quiz server",
		SilenceUsage: true,
	}
	config.RegisterFlags(root.PersistentFlags())

	serve := serveCmd()
	root.AddCommand(serve, playCmd(), catalogCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP/WebSocket game server",
		RunE:  runServe,
	}
}

func catalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Validate the puzzle catalog and print its tier sizes",
		RunE:  runCatalog,
	}
}

// setupLogging configures the global zerolog logger.
func setupLogging(cfg *config.Config) {
	if lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if strings.ToLower(cfg.LogFormat) == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// loadConfig resolves config and initializes logging and translations.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	setupLogging(cfg)
	if err := i18n.Init(cfg.Lang); err != nil {
		return nil, fmt.Errorf("init i18n: %w", err)
	}
	return cfg, nil
}

// loadCatalog reads the configured catalog and checks that every plan can be filled.
func loadCatalog(cfg *config.Config) (*hacker.Catalog, error) {
	cat, err := hacker.Load(cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if err := hacker.CheckPlans(cat); err != nil {
		return nil, err
	}
	return cat, nil
}

// openStore selects the session backend.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		return store.OpenSQLite(cfg.DBPath)
	case config.StoreRedis:
		return store.OpenRedis(ctx, cfg.RedisURL, cfg.SessionTTL)
	}
	return store.NewMemoryStore(), nil
}

func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.DevSecret() {
		log.Warn().Msg("using the development JWT secret; set JWT_SECRET in production")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store, err)
	}
	if c, ok := st.(io.Closer); ok {
		defer c.Close()
	}

	m := session.NewManager(st, session.Builders(cat, newRand(0)),
		session.WithSummaryDelay(cfg.SummaryDelay))
	go m.RunJanitor(ctx, cfg.SessionTTL, time.Minute)

	srv := httpserver.New(m, httpserver.Options{
		JWTSecret:     cfg.JWTSecret,
		TokenTTL:      cfg.TokenTTL,
		ClientOrigin:  cfg.ClientOrigin,
		Lang:          cfg.Lang,
		SecureCookies: strings.HasPrefix(cfg.ClientOrigin, "https://"),
	})

	errc := make(chan error, 1)
	go func() { errc <- srv.Start(cfg.Addr) }()
	log.Info().
		Str("addr", cfg.Addr).
		Str("store", cfg.Store).
		Int("catalog", cat.Len()).
		Dur("summaryDelay", cfg.SummaryDelay).
		Msg("starting gamezone")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Info().Msg("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errc
}

func runCatalog(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cat, err := hacker.Load(cfg.Catalog)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	stats := cat.Stats()
	fmt.Fprintf(out, "%d questions\n", cat.Len())
	for _, d := range game.Difficulties {
		fmt.Fprintf(out, "  %-6s %d\n", d, stats[d])
	}
	if err := hacker.CheckPlans(cat); err != nil {
		if errors.Is(err, game.ErrInsufficientQuestions) {
			fmt.Fprintln(out, "not playable:", err)
		}
		return err
	}
	fmt.Fprintln(out, "all difficulties playable")
	return nil
}
