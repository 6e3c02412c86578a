package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/frontdesk-gym/frontdesk/internal/config"
	"github.com/frontdesk-gym/frontdesk/internal/db"
	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/service"
	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/store"
	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/store/memory"
	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/store/sqlite"
	"github.com/frontdesk-gym/frontdesk/internal/grpcapi"
	"github.com/frontdesk-gym/frontdesk/internal/httpapi"
	"github.com/frontdesk-gym/frontdesk/internal/logger"
)

func main() {
	configPath := flag.String("config", config.Path(), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Options{
		Dir:   cfg.Log.Dir,
		Name:  "frontdesk-server",
		Tee:   cfg.Log.Tee || logger.RunningInTTY(),
		Debug: cfg.Log.Debug,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Errorw("server exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Durable store.  If it cannot be opened the server still runs on the
	// in-process fallback so the desk keeps checking people in.
	var (
		sqlDB       *sql.DB
		durableLogs store.EntranceLogStore
		stations    store.StationStore
		ping        func(context.Context) error
	)
	sqlDB, err := db.Open(ctx, db.Config{Path: cfg.DB.Path, Env: cfg.Env})
	if err != nil {
		log.Warnw("durable store unavailable; running fallback-only, entrance logs will be lost on restart",
			"path", cfg.DB.Path, "err", err)
		stations = memory.NewStationStore(cfg.Stations.Known)
	} else {
		defer sqlDB.Close()

		if cfg.Env == "dev" {
			if err := db.SeedDev(ctx, sqlDB, db.SeedDevOptions{KnownStations: cfg.Stations.Known}); err != nil {
				return fmt.Errorf("seed dev: %w", err)
			}
		}

		writer := db.NewWorker(sqlDB)
		defer writer.Close()

		durableLogs = sqlite.NewEntranceLogStore(sqlDB, writer)
		stations = sqlite.NewStationStore(sqlDB, writer)
		ping = sqlDB.PingContext
	}

	// Member directory.
	var members store.MemberStore
	if cfg.Members.Driver == "sqlite" && sqlDB == nil {
		log.Warnw("no member database; every lookup will report a connection error")
	} else {
		mdb, err := db.OpenMembers(ctx, cfg.Members.Driver, cfg.Members.DSN, sqlDB)
		if err != nil {
			log.Warnw("member database unavailable", "driver", cfg.Members.Driver, "err", err)
		} else {
			if cfg.Members.Driver != "sqlite" {
				defer mdb.Close()
			}
			members = sqlite.NewMemberStore(mdb)
		}
	}

	fallback := memory.NewEntranceLogStore(cfg.Audit.FallbackCapacity)
	audit := service.NewAuditLogger(durableLogs, fallback, log)
	checkIn := service.NewCheckInService(nil, service.NewEvaluator(members, cfg.Members.LookupTimeout), audit, log)
	heartbeat := service.NewHeartbeatService(stations, service.NewStationRegistry(stations), log)

	flusher := service.NewFallbackFlusher(durableLogs, fallback, cfg.Audit.FlushInterval, log)
	flusher.Start(ctx)
	defer flusher.Stop()

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:           log,
		Addr:             cfg.HTTP.Addr,
		CheckInService:   checkIn,
		AuditLogger:      audit,
		HeartbeatService: heartbeat,
		Ping:             ping,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infow("http listening", "addr", cfg.HTTP.Addr, "env", cfg.Env)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.GRPC.Addr != "" {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		health := grpcapi.NewServer(ping, grpcapi.DefaultCheckInterval, log)
		g.Go(func() error { return health.Serve(gctx, lis) })
	}

	return g.Wait()
}
