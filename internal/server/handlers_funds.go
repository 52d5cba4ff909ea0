package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/tidewater/fundval/internal/interfaces"
)

// handleFundList handles GET /api/funds.
func (s *Server) handleFundList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	funds, err := s.app.FundService.ListFunds(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error listing funds: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"funds": funds,
		"count": len(funds),
	})
}

// handleFundDetail handles GET /api/funds/{code}.
func (s *Server) handleFundDetail(w http.ResponseWriter, r *http.Request, code string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	code, errMsg := validateCode(code)
	if errMsg != "" {
		WriteError(w, http.StatusBadRequest, errMsg)
		return
	}

	detail, err := s.app.FundService.GetFundDetail(r.Context(), code)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error getting fund detail: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, detail)
}

// handleFundHistory handles GET /api/funds/{code}/history?days=N.
func (s *Server) handleFundHistory(w http.ResponseWriter, r *http.Request, code string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	code, errMsg := validateCode(code)
	if errMsg != "" {
		WriteError(w, http.StatusBadRequest, errMsg)
		return
	}

	days := queryInt(r, "days", 0)
	points, err := s.app.FundService.GetHistory(r.Context(), code, days)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error getting history: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"code":   code,
		"points": points,
		"count":  len(points),
	})
}

// handleFundRisk handles GET /api/funds/{code}/risk?days=N.
func (s *Server) handleFundRisk(w http.ResponseWriter, r *http.Request, code string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	code, errMsg := validateCode(code)
	if errMsg != "" {
		WriteError(w, http.StatusBadRequest, errMsg)
		return
	}

	days := queryInt(r, "days", 0)
	report, err := s.app.RiskService.GetRiskReport(r.Context(), code, days)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error computing risk report: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, newRiskDTO(report))
}

// handleFundIntraday handles GET /api/funds/{code}/intraday?date=YYYY-MM-DD.
func (s *Server) handleFundIntraday(w http.ResponseWriter, r *http.Request, code string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	code, errMsg := validateCode(code)
	if errMsg != "" {
		WriteError(w, http.StatusBadRequest, errMsg)
		return
	}

	loc := s.marketLocation()
	day := time.Now().In(loc)
	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		parsed, err := time.ParseInLocation(displayDate, dateStr, loc)
		if err != nil {
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid date %q: expected YYYY-MM-DD", dateStr))
			return
		}
		day = parsed
	}

	ctx := r.Context()
	if _, err := s.app.Storage.FundStorage().GetFund(ctx, code); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			WriteError(w, http.StatusNotFound, fmt.Sprintf("Fund not found: %s", code))
			return
		}
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error looking up fund: %v", err))
		return
	}

	snaps, err := s.app.FundService.GetIntraday(ctx, code, day)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error getting intraday snapshots: %v", err))
		return
	}

	// Baseline for the chart: the last confirmed NAV before the requested day
	var prevNav *float64
	dayKey := day.Format(displayDate)
	points, err := s.app.Storage.HistoryStorage().GetHistory(ctx, code, 0)
	if err == nil {
		for i := len(points) - 1; i >= 0; i-- {
			if points[i].Date.Format(displayDate) < dayKey {
				nav := points[i].Nav
				prevNav = &nav
				break
			}
		}
	}

	WriteJSON(w, http.StatusOK, newIntradayResponse(day, prevNav, snaps, loc))
}

// queryInt parses an integer query parameter, falling back to def.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}
