package server

import (
	"fmt"
	"net/http"
	"strings"
)

// handleWatchlist handles GET and POST /api/watchlist.
func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}

	account := s.resolveAccount(r)

	if r.Method == http.MethodGet {
		watched, err := s.app.WatchlistService.GetWatchlist(r.Context(), account)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error getting watchlist: %v", err))
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"account":   account,
			"watchlist": watched,
			"count":     len(watched),
		})
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	code, errMsg := validateCode(req.Code)
	if errMsg != "" {
		WriteError(w, http.StatusBadRequest, errMsg)
		return
	}

	if err := s.app.WatchlistService.Watch(r.Context(), account, code); err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error adding watch: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "watched", "code": code})
}

// handleWatchlistRemove handles DELETE /api/watchlist/{code}.
func (s *Server) handleWatchlistRemove(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimPrefix(r.URL.Path, "/api/watchlist/")
	if code == "" {
		s.handleWatchlist(w, r)
		return
	}

	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}

	code, errMsg := validateCode(code)
	if errMsg != "" {
		WriteError(w, http.StatusBadRequest, errMsg)
		return
	}
	account := s.resolveAccount(r)

	if err := s.app.WatchlistService.Unwatch(r.Context(), account, code); err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error removing watch: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "removed", "code": code})
}
