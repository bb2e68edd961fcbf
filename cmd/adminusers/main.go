package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/alphagov-mirror/pay-adminusers/internal/bus"
	"github.com/alphagov-mirror/pay-adminusers/internal/config"
	"github.com/alphagov-mirror/pay-adminusers/internal/db"
	"github.com/alphagov-mirror/pay-adminusers/internal/handlers"
	"github.com/alphagov-mirror/pay-adminusers/internal/invite"
	"github.com/alphagov-mirror/pay-adminusers/internal/metrics"
	"github.com/alphagov-mirror/pay-adminusers/internal/notify"
	"github.com/alphagov-mirror/pay-adminusers/internal/otel"
	"github.com/alphagov-mirror/pay-adminusers/internal/store"
	"github.com/alphagov-mirror/pay-adminusers/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "adminusers",
		Short:         "User and invitation management for the payments platform",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newSeedCommand())
	return cmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the adminusers HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			return db.MigrateDSN(ctx, cfg.DBDSN)
		},
	}
}

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the role vocabulary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			database, err := db.Connect(ctx, cfg.DBDSN)
			if err != nil {
				return err
			}
			defer func() {
				_ = db.Close(database)
			}()
			return db.Seed(ctx, database)
		},
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.NotifyBaseURL == "" || cfg.NotifyAPIKey == "" || cfg.NotifyTemplatesFile == "" {
		return errors.New("NOTIFY_BASE_URL, NOTIFY_API_KEY and NOTIFY_TEMPLATES_FILE are required")
	}

	cleanup, err := otel.Init(ctx, version.Name, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("init otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cleanup(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown otel")
		}
	}()

	database, err := db.Connect(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		if err := db.Close(database); err != nil {
			log.Error().Err(err).Msg("close database")
		}
	}()

	pool, err := db.Open(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("open query pool: %w", err)
	}
	defer pool.Close()

	if err := db.MigrateDSN(ctx, cfg.DBDSN); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	if err := db.Seed(ctx, database); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}

	entities, err := store.New(database, pool)
	if err != nil {
		return err
	}

	var events invite.EventPublisher
	if cfg.NATSURL != "" {
		b, err := bus.New(cfg.NATSURL)
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer b.Close()
		events = b
	}

	templates, err := notify.LoadTemplates(cfg.NotifyTemplatesFile)
	if err != nil {
		return fmt.Errorf("load notify templates: %w", err)
	}
	notifier, err := notify.NewClient(cfg.NotifyBaseURL, cfg.NotifyAPIKey, templates, nil)
	if err != nil {
		return fmt.Errorf("notify client: %w", err)
	}

	collector := metrics.NewCollector(prometheus.DefaultRegisterer)
	dispatcher := invite.NewDispatcher(notifier, collector)

	links := invite.Links{
		SelfserviceInvitesURL:           cfg.SelfserviceInvitesURL(),
		SelfserviceLoginURL:             cfg.SelfserviceLoginURL,
		SelfserviceForgottenPasswordURL: cfg.SelfserviceForgottenPasswordURL,
		SupportURL:                      cfg.SupportURL,
	}
	inviteCfg := invite.Config{
		Links:                    links,
		TTL:                      cfg.InviteTTL,
		Events:                   events,
		Metrics:                  collector,
		RequirePublicSectorEmail: cfg.RestrictToPublicSector,
	}

	serviceCreator, err := invite.NewServiceCreator(entities, dispatcher, inviteCfg)
	if err != nil {
		return err
	}
	userCreator, err := invite.NewUserCreator(entities, dispatcher, inviteCfg)
	if err != nil {
		return err
	}

	api, err := handlers.New(serviceCreator, userCreator, entities, handlers.Config{
		AllowedOrigins: cfg.AllowedOrigins,
		Links:          links,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("version", version.Version).Msg("starting adminusers")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown server")
	}

	// Let in-flight notification sends finish before the process exits.
	dispatcher.Wait()
	return nil
}
