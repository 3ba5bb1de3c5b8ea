// Package server provides the HTTP server and routing for the portfolio
// balancer API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/glongrais/Portfolio-Balancer-sub000/internal/config"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/di"
	deposithandlers "github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/deposits/handlers"
	dividendhandlers "github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/dividends/handlers"
	portfoliohandlers "github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/portfolio/handlers"
	rebalancinghandlers "github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/rebalancing/handlers"
	transactionhandlers "github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/transactions/handlers"
	universehandlers "github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/universe/handlers"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Container *di.Container
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	container      *di.Container
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg.Config,
		container: cfg.Container,
	}

	s.systemHandlers = NewSystemHandlers(
		cfg.Log,
		cfg.Config.DataDir,
		cfg.Container.PortfolioDB,
		cfg.Container.CacheDB,
		cfg.Container.HistoryDB,
		cfg.Container.BackupService,
	)

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	c := s.container

	s.router.Route("/api", func(r chi.Router) {
		// Live event stream
		wsHandler := NewEventsWSHandler(c.Hub, s.log)
		r.Get("/events/ws", wsHandler.ServeHTTP)

		// System monitoring and operations
		r.Route("/system", func(r chi.Router) {
			r.Get("/health", s.systemHandlers.HandleHealth)
			r.Post("/backup", s.systemHandlers.HandleBackup)
		})

		// Portfolio, rebalancing and dividend reports share the
		// /portfolio prefix
		portfolioHandler := portfoliohandlers.NewHandler(
			c.PositionRepo,
			c.StockRepo,
			c.PortfolioService,
			c.UniverseService,
			c.ValueHistory,
			s.cfg.Currency,
			s.log,
		)
		rebalancingHandler := rebalancinghandlers.NewHandler(c.RebalancingService, s.log)
		dividendHandler := dividendhandlers.NewHandler(c.DividendsService, s.cfg.Currency, s.log)
		r.Route("/portfolio", func(r chi.Router) {
			portfolioHandler.RegisterRoutes(r)
			rebalancingHandler.RegisterRoutes(r)
			dividendHandler.RegisterRoutes(r)
		})

		// Stock catalog
		universeHandler := universehandlers.NewHandler(
			c.StockRepo,
			c.UniverseService,
			c.PositionRepo,
			c.PriceStore,
			c.HistoricalService,
			s.log,
		)
		universeHandler.RegisterRoutes(r)

		// Transaction ledger
		transactionHandler := transactionhandlers.NewHandler(c.TransactionsService, s.log)
		transactionHandler.RegisterRoutes(r)

		// Deposits
		depositHandler := deposithandlers.NewHandler(c.DepositRepo, c.Hub, s.cfg.Currency, s.log)
		depositHandler.RegisterRoutes(r)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
