package server

import (
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/tidewater/fundval/internal/common"
	"github.com/tidewater/fundval/internal/metrics"
)

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)
	mux.HandleFunc("/debug/memstats", s.handleMemstats)
	mux.Handle("/metrics", metrics.Handler())

	// Portfolio
	mux.HandleFunc("/api/portfolio/positions", s.handlePositions)
	mux.HandleFunc("/api/portfolio/holdings/", s.routeHoldings)
	mux.HandleFunc("/api/portfolio/holdings", s.handleHoldings)
	mux.HandleFunc("/api/portfolio/refresh", s.handleRefresh)

	// Funds
	mux.HandleFunc("/api/funds/", s.routeFunds)
	mux.HandleFunc("/api/funds", s.handleFundList)

	// Watchlist
	mux.HandleFunc("/api/watchlist/", s.handleWatchlistRemove)
	mux.HandleFunc("/api/watchlist", s.handleWatchlist)

	// Trades
	mux.HandleFunc("/api/trades/confirm", s.handleTradeConfirm)
	mux.HandleFunc("/api/trades", s.handleTrades)
}

// routeHoldings dispatches /api/portfolio/holdings/{code} to the appropriate handler.
func (s *Server) routeHoldings(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimPrefix(r.URL.Path, "/api/portfolio/holdings/")
	if code == "" {
		s.handleHoldings(w, r)
		return
	}
	s.handleHoldingItem(w, r, code)
}

// routeFunds dispatches /api/funds/{code}/* to the appropriate handler.
func (s *Server) routeFunds(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/funds/")
	if path == "" {
		s.handleFundList(w, r)
		return
	}

	parts := strings.SplitN(path, "/", 2)
	code := parts[0]
	subpath := ""
	if len(parts) > 1 {
		subpath = parts[1]
	}

	switch subpath {
	case "":
		s.handleFundDetail(w, r, code)
	case "history":
		s.handleFundHistory(w, r, code)
	case "risk":
		s.handleFundRisk(w, r, code)
	case "intraday":
		s.handleFundIntraday(w, r, code)
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	cfg := s.app.Config
	uptime := time.Since(s.app.StartupTime).Round(time.Second)

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"environment":       cfg.Environment,
		"default_account":   cfg.Portfolio.DefaultAccount,
		"market_timezone":   cfg.Portfolio.MarketTimezone,
		"fetch_concurrency": cfg.Portfolio.FetchConcurrency,
		"storage_path":      cfg.Storage.Path,
		"logging_level":     cfg.Logging.Level,
		"eastmoney_url":     cfg.Clients.Eastmoney.BaseURL,
		"scheduler_enabled": cfg.Scheduler.Enabled,
		"snapshot_interval": cfg.Scheduler.SnapshotInterval,
		"refresh_interval":  cfg.Scheduler.RefreshInterval,
		"uptime":            uptime.String(),
		"started_at":        s.app.StartupTime,
	})
}

func (s *Server) handleMemstats(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"heap_alloc_bytes": m.HeapAlloc,
		"heap_inuse_bytes": m.HeapInuse,
		"heap_idle_bytes":  m.HeapIdle,
		"sys_bytes":        m.Sys,
		"num_gc":           m.NumGC,
		"heap_alloc_mb":    float64(m.HeapAlloc) / 1024 / 1024,
		"heap_inuse_mb":    float64(m.HeapInuse) / 1024 / 1024,
		"heap_idle_mb":     float64(m.HeapIdle) / 1024 / 1024,
		"sys_mb":           float64(m.Sys) / 1024 / 1024,
	})
}
