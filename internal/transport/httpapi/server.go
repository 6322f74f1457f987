// Package httpapi translates HTTP requests into deck store operations,
// handling origin checks, rate limits and token cookies before anything
// reaches the store.
package httpapi

import (
	"log"
	"net/http"
	"os"
	"sync/atomic"

	"lixi.vn/internal/config"
	"lixi.vn/internal/ratelimit"
	"lixi.vn/internal/store"
	"lixi.vn/internal/transport/watch"
	"lixi.vn/internal/tuning"
)

const (
	drawLockCookie     = "lixi_draw_lock"
	adminSessionCookie = "lixi_admin_session"
)

type Server struct {
	store   *store.Store
	limiter *ratelimit.Limiter
	tune    tuning.Tuning
	env     config.Env
	hub     *watch.Hub // optional
	log     *log.Logger

	draws            atomic.Int64
	drawsExhausted   atomic.Int64
	drawsLocked      atomic.Int64
	drawsRateLimited atomic.Int64
}

func New(st *store.Store, limiter *ratelimit.Limiter, hub *watch.Hub, tune tuning.Tuning, envCfg config.Env, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(os.Stdout, "[api] ", log.LstdFlags)
	}
	return &Server{
		store:   st,
		limiter: limiter,
		tune:    tune,
		env:     envCfg,
		hub:     hub,
		log:     logger,
	}
}

func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/draw", s.handleDraw)
	mux.HandleFunc("/api/deposit", s.handleDeposit)
	mux.HandleFunc("/api/admin/status", s.handleAdminStatus)
	mux.HandleFunc("/api/admin/login", s.handleAdminLogin)
	mux.HandleFunc("/api/admin/logout", s.handleAdminLogout)
	mux.HandleFunc("/api/admin/deck", s.handleAdminDeck)
	if s.hub != nil {
		mux.HandleFunc("/v1/watch", s.hub.Handler(func() (any, error) {
			return s.store.PublicConfig()
		}))
	}
}

// Metrics is a point-in-time counter snapshot for the /metrics endpoint.
type Metrics struct {
	Draws            int64
	DrawsExhausted   int64
	DrawsLocked      int64
	DrawsRateLimited int64
	WatchClients     int
}

func (s *Server) Metrics() Metrics {
	m := Metrics{
		Draws:            s.draws.Load(),
		DrawsExhausted:   s.drawsExhausted.Load(),
		DrawsLocked:      s.drawsLocked.Load(),
		DrawsRateLimited: s.drawsRateLimited.Load(),
	}
	if s.hub != nil {
		m.WatchClients = s.hub.ClientCount()
	}
	return m
}

// publishConfig pushes the current public config to watch subscribers after
// a mutation. Best-effort.
func (s *Server) publishConfig() {
	if s.hub == nil {
		return
	}
	cfg, err := s.store.PublicConfig()
	if err != nil {
		s.log.Printf("watch: read config: %v", err)
		return
	}
	s.hub.Publish(cfg)
}
