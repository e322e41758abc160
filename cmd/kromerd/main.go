// Command kromerd is the Kromer server: it loads configuration, opens the
// database pool, applies migrations, wires the event bus/ledger/registry,
// and serves the HTTP contract and WebSocket gateway.
package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"kromer/internal/eventbus"
	"kromer/internal/httpapi"
	"kromer/internal/ledger"
	"kromer/internal/store"
	"kromer/internal/wsproto"
	"kromer/internal/wsregistry"
	pkgconfig "kromer/pkg/config"
)

func main() {
	var flags pkgconfig.Flags

	root := &cobra.Command{
		Use:   "kromerd",
		Short: "Kromer currency server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(flags)
		},
	}
	root.Flags().StringVar(&flags.URL, "url", "", "address to listen on (default 0.0.0.0:8080)")
	root.Flags().StringVar(&flags.DatabaseURL, "database-url", "", "postgres connection string")
	root.Flags().StringVar(&flags.Key, "key", "", "internal API key")
	root.Flags().BoolVar(&flags.Debug, "debug", false, "enable debug logging")
	root.Flags().BoolVar(&flags.Insecure, "insecure", false, "force ws:// instead of wss:// in public URLs")

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func run(flags pkgconfig.Flags) error {
	cfg, err := pkgconfig.Load(flags)
	if err != nil {
		return err
	}
	if cfg.Server.Debug {
		log.SetLevel(log.DebugLevel)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	sqlDB, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	migrator := &store.GooseMigrator{DB: sqlDB}
	if err := migrator.Migrate(ctx); err != nil {
		return err
	}

	bus := eventbus.New()
	registry := wsregistry.New()
	led := ledger.New(pool, bus)

	wsHandler := &wsproto.Handler{
		Registry: registry,
		Ledger:   led,
		Store:    pool,
		Bus:      bus,
		Config:   cfg,
	}

	server := &httpapi.Server{
		Store:    pool,
		Pool:     pool,
		Ledger:   led,
		Bus:      bus,
		Registry: registry,
		Config:   cfg,
		WS:       wsHandler,
	}

	go wsproto.Pump(ctx, bus, registry)

	httpServer := &http.Server{
		Addr:              cfg.Server.URL,
		Handler:           httpapi.NewRouter(server),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.WithFields(log.Fields{"addr": cfg.Server.URL}).Info("kromerd listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
