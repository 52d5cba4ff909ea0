package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidewater/fundval/internal/interfaces"
	"github.com/tidewater/fundval/internal/models"
)

// resolveAccount returns the account query parameter or the configured default.
func (s *Server) resolveAccount(r *http.Request) string {
	if account := r.URL.Query().Get("account"); account != "" {
		return account
	}
	return s.app.DefaultAccount
}

// handlePositions handles GET /api/portfolio/positions.
func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	account := s.resolveAccount(r)
	positions, err := s.app.PortfolioService.GetPositions(r.Context(), account)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error valuing positions: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, newPositionsResponse(positions, s.marketLocation()))
}

type holdingRequest struct {
	Code        string  `json:"code"`
	CostPerUnit float64 `json:"cost_per_unit"`
	Units       float64 `json:"units"`
}

// handleHoldings handles GET and POST /api/portfolio/holdings.
func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}

	account := s.resolveAccount(r)

	if r.Method == http.MethodGet {
		holdings, err := s.app.PortfolioService.ListHoldings(r.Context(), account)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error listing holdings: %v", err))
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"account":  account,
			"holdings": holdings,
			"count":    len(holdings),
		})
		return
	}

	var req holdingRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	code, errMsg := validateCode(req.Code)
	if errMsg != "" {
		WriteError(w, http.StatusBadRequest, errMsg)
		return
	}
	if req.Units <= 0 || req.CostPerUnit <= 0 {
		WriteError(w, http.StatusBadRequest, "units and cost_per_unit must be positive")
		return
	}

	holding := &models.Holding{
		Account:     account,
		Code:        code,
		CostPerUnit: req.CostPerUnit,
		Units:       req.Units,
	}
	if err := s.app.PortfolioService.SaveHolding(r.Context(), holding); err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error saving holding: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, holding)
}

// handleHoldingItem handles GET, PUT and DELETE /api/portfolio/holdings/{code}.
func (s *Server) handleHoldingItem(w http.ResponseWriter, r *http.Request, code string) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPut, http.MethodDelete) {
		return
	}

	code, errMsg := validateCode(code)
	if errMsg != "" {
		WriteError(w, http.StatusBadRequest, errMsg)
		return
	}
	account := s.resolveAccount(r)

	switch r.Method {
	case http.MethodGet:
		holding, err := s.app.PortfolioService.GetHolding(r.Context(), account, code)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				WriteError(w, http.StatusNotFound, fmt.Sprintf("Holding not found: %s", code))
				return
			}
			WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error getting holding: %v", err))
			return
		}
		WriteJSON(w, http.StatusOK, holding)

	case http.MethodPut:
		var req holdingRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		if req.Units <= 0 || req.CostPerUnit <= 0 {
			WriteError(w, http.StatusBadRequest, "units and cost_per_unit must be positive")
			return
		}
		holding := &models.Holding{
			Account:     account,
			Code:        code,
			CostPerUnit: req.CostPerUnit,
			Units:       req.Units,
		}
		if err := s.app.PortfolioService.SaveHolding(r.Context(), holding); err != nil {
			WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error saving holding: %v", err))
			return
		}
		WriteJSON(w, http.StatusOK, holding)

	case http.MethodDelete:
		if err := s.app.PortfolioService.DeleteHolding(r.Context(), account, code); err != nil {
			WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error deleting holding: %v", err))
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted", "code": code})
	}
}

// handleRefresh handles POST /api/portfolio/refresh.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Codes []string `json:"codes"`
	}
	if r.Body != nil && r.ContentLength > 0 {
		if !DecodeJSON(w, r, &req) {
			return
		}
	}

	result, err := s.app.FundService.RefreshNavHistory(r.Context(), req.Codes...)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Refresh error: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, result)
}
