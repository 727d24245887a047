/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the coverage engine server: the claims manager,
  its arbitrator adapters, the HTTP API and the stuck dispute monitor.

STARTUP SEQUENCE:
  1. Load environment configuration, apply command-line flags
  2. Build the process logger
  3. Initialize SQLite store
  4. Wire roles, price converter, staking pool and the claims manager
  5. Register the passive arbitrator and the court proxy
  6. Run the HTTP server and the monitor until a signal arrives

COMMAND-LINE FLAGS (override the environment):
  -port    HTTP server port
  -db      SQLite database path; ":memory:" for an in-memory database

ENVIRONMENT:
  See config/config.go. Role grants come from COVERAGE_ROLE_GRANTS as
  comma-separated ROLE=ADDRESS pairs. The adapter addresses are granted the
  arbitrator role automatically.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the monitor
  4. Close database connection

SEE ALSO:
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/warp/coverage-engine/access"
	"github.com/warp/coverage-engine/api"
	"github.com/warp/coverage-engine/arbitration"
	"github.com/warp/coverage-engine/claims"
	"github.com/warp/coverage-engine/config"
	"github.com/warp/coverage-engine/oracle"
	"github.com/warp/coverage-engine/pool"
	"github.com/warp/coverage-engine/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	level, _ := cfg.Level()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	store, err := sqlite.New(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	roles := access.NewRegistry()
	if err := roles.GrantAll(cfg.RoleGrants); err != nil {
		return err
	}

	manager, err := claims.NewManager(claims.Options{
		Store:        store,
		Roles:        roles,
		RoleNames:    cfg.Roles(),
		Converter:    oracle.NewConverter(oracle.Fixed{Value: config.MustDecimal(cfg.AssetPriceUSD)}, cfg.MaxPriceAge),
		Pool:         pool.NewStakingPool(config.MustDecimal(cfg.PoolStake)),
		Periods:      cfg.Periods(),
		SelfQuotaKey: claims.NewAddress(cfg.SelfQuotaKey),
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	passive := arbitration.NewPassiveArbitrator(
		claims.NewAddress(cfg.PassiveArbitrator), claims.NewAddress(cfg.PassiveOperator), manager)
	court := arbitration.NewLocalCourt(claims.NewAddress(cfg.Court),
		config.MustDecimal(cfg.ArbitrationCost), config.MustDecimal(cfg.AppealCost))
	proxy, err := arbitration.NewCourtProxy(arbitration.CourtProxyConfig{
		Address:  claims.NewAddress(cfg.CourtProxy),
		Manager:  manager,
		Court:    court,
		Store:    store,
		Subcourt: cfg.CourtSubcourt,
		Jurors:   cfg.CourtJurors,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	for _, a := range []claims.Arbitrator{passive, proxy} {
		roles.Grant(cfg.ArbitratorRole, a.Address())
		manager.RegisterArbitrator(a)
	}

	handler := api.NewHandler(manager, passive, proxy, logger).WithHealthCheck(store)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      api.NewRouter(handler, []string{"http://localhost:5173", fmt.Sprintf("http://localhost:%d", *port)}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	monitor := api.NewDisputeMonitor(manager, cfg.MonitorInterval, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", "addr", server.Addr, "db", *dbPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return monitor.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
