package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/othello-net/othello-server/internal/config"
	"github.com/othello-net/othello-server/internal/httpapi"
	"github.com/othello-net/othello-server/internal/hub"
	"github.com/othello-net/othello-server/internal/ident"
	"github.com/othello-net/othello-server/internal/storage"
	"github.com/othello-net/othello-server/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) (err error) {
	fs := flag.NewFlagSet("othello-server", flag.ContinueOnError)
	configFile := fs.String("config", "", "YAML config file")
	envFile := fs.String("env-file", ".env", "dotenv file, ignored when missing")
	fs.String("addr", "", "listen address")
	fs.Bool("dev", false, "development logging")
	fs.String("log-level", "", "debug, info, warn or error")
	fs.String("database-dsn", "", "postgres DSN for the results archive")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(config.Options{
		File:      *configFile,
		EnvFile:   *envFile,
		Environ:   os.Environ(),
		Overrides: config.FlagOverrides(fs, config.Defaults()),
	})
	if err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		rec     hub.Recorder
		results httpapi.ResultLister
	)
	if cfg.DatabaseDSN != "" {
		store, err := storage.OpenPostgres(cfg.DatabaseDSN, log)
		if err != nil {
			return err
		}
		recorder := storage.NewRecorder(store, cfg.RecorderQueue, log)
		defer func() {
			// also closes the store
			err = multierr.Append(err, recorder.Shutdown(shutdownTimeout))
		}()
		rec, results = recorder, store
	} else {
		log.Info("no database configured, results are not archived")
	}

	h := hub.NewHub(ctx, log, ident.New(nil), rec)

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: httpapi.SetupRoutes(h, httpapi.Options{
			WS: ws.Options{
				ReadTimeout:    cfg.ReadTimeout,
				WriteTimeout:   cfg.WriteTimeout,
				PingInterval:   cfg.PingInterval,
				OutboxLimit:    cfg.OutboxLimit,
				OriginPatterns: cfg.AllowedOrigins,
			},
			Results:      results,
			ResultsLimit: cfg.ResultsLimit,
		}, log),
		ReadHeaderTimeout: 10 * time.Second,
		// websocket handlers are hijacked and not tracked by Shutdown; they
		// end when this context is cancelled
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.Bool("archive", rec != nil))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		h.Shutdown()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if cfg.Dev {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}
