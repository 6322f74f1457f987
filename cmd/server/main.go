package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"lixi.vn/internal/config"
	"lixi.vn/internal/persistence/archive"
	"lixi.vn/internal/ratelimit"
	"lixi.vn/internal/store"
	"lixi.vn/internal/transport/httpapi"
	"lixi.vn/internal/transport/watch"
	"lixi.vn/internal/tuning"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		dataDir    = flag.String("data", "", "runtime data directory (default: $LIXI_DATA_DIR or ./data)")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	envCfg, err := config.Parse()
	if err != nil {
		logger.Fatalf("parse environment: %v", err)
	}
	if *dataDir != "" {
		envCfg.DataDir = *dataDir
	}
	if envCfg.RequiresSetup() {
		logger.Printf("LIXI_ADMIN_PASSWORD not set; admin panel disabled until configured")
	}

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", *tuningPath)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	st := store.New(store.Config{
		Path:     filepath.Join(envCfg.DataDir, "deck.json"),
		Seed:     tune.SeedState(),
		Archiver: archive.New(filepath.Join(envCfg.DataDir, "archives")),
		Logger:   logger,
	})
	go st.Run(ctx)

	hub := watch.NewHub(logger)
	api := httpapi.New(st, ratelimit.New(), hub, tune, envCfg, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		m := api.Metrics()
		remaining := 0
		if cfg, err := st.PublicConfig(); err == nil {
			remaining = cfg.RemainingTotal
		}

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP lixi_remaining_total Envelopes left in the deck.\n")
		fmt.Fprintf(rw, "# TYPE lixi_remaining_total gauge\n")
		fmt.Fprintf(rw, "lixi_remaining_total %d\n", remaining)

		fmt.Fprintf(rw, "# HELP lixi_draws_total Draw outcomes since process start.\n")
		fmt.Fprintf(rw, "# TYPE lixi_draws_total counter\n")
		fmt.Fprintf(rw, "lixi_draws_total{outcome=%q} %d\n", "won", m.Draws)
		fmt.Fprintf(rw, "lixi_draws_total{outcome=%q} %d\n", "exhausted", m.DrawsExhausted)
		fmt.Fprintf(rw, "lixi_draws_total{outcome=%q} %d\n", "locked", m.DrawsLocked)
		fmt.Fprintf(rw, "lixi_draws_total{outcome=%q} %d\n", "rate_limited", m.DrawsRateLimited)

		fmt.Fprintf(rw, "# HELP lixi_watch_clients Connected watch websocket clients.\n")
		fmt.Fprintf(rw, "# TYPE lixi_watch_clients gauge\n")
		fmt.Fprintf(rw, "lixi_watch_clients %d\n", m.WatchClients)
	})
	if envCfg.EnablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else {
		logger.Printf("pprof endpoints disabled (LIXI_ENABLE_PPROF=false)")
	}
	api.Register(mux)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
