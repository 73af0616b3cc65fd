package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vitos/crypto_tracker/internal/domain"
	"github.com/vitos/crypto_tracker/internal/usecase"
)

// Server is the JSON boundary consumed by the dashboard UI. The UI
// itself lives elsewhere; this layer only hands it normalized records
// and accepts watchlist mutations.
type Server struct {
	router    *http.ServeMux
	server    *http.Server
	service   *usecase.MarketService
	watchlist *domain.Watchlist
	hub       *Hub
	currency  string
	logger    *zap.Logger
	startedAt time.Time
}

func NewServer(
	port int,
	service *usecase.MarketService,
	watchlist *domain.Watchlist,
	hub *Hub,
	defaultCurrency string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:    http.NewServeMux(),
		service:   service,
		watchlist: watchlist,
		hub:       hub,
		currency:  defaultCurrency,
		logger:    logger,
		startedAt: time.Now(),
	}
	s.routes()
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.router,
	}
	return s
}

func (s *Server) routes() {
	// Market data
	s.router.HandleFunc("GET /api/quotes", s.handleQuotes)
	s.router.HandleFunc("GET /api/history", s.handleHistory)
	s.router.HandleFunc("GET /api/indicators", s.handleIndicators)

	// Watchlist
	s.router.HandleFunc("GET /api/watchlist", s.handleWatchlist)
	s.router.HandleFunc("POST /api/watchlist", s.handleAddSymbol)
	s.router.HandleFunc("DELETE /api/watchlist/{symbol}", s.handleRemoveSymbol)
	s.router.HandleFunc("POST /api/watchlist/import", s.handleImport)

	// Live updates
	s.router.HandleFunc("GET /ws", s.hub.HandleWS)

	// Operability
	s.router.HandleFunc("GET /status", s.handleStatus)
	s.router.Handle("GET /metrics", promhttp.Handler())
}

func (s *Server) Start() error {
	s.logger.Info("starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.server.Shutdown(ctx)
}
