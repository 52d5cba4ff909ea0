package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/tidewater/fundval/internal/models"
)

const (
	defaultTradeLimit = 100
	maxTradeLimit     = 500
)

// handleTrades handles GET and POST /api/trades.
func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}

	if r.Method == http.MethodGet {
		s.handleTradeList(w, r)
		return
	}
	s.handleTradePlace(w, r)
}

func (s *Server) handleTradeList(w http.ResponseWriter, r *http.Request) {
	account := s.resolveAccount(r)

	txns, err := s.app.TradeService.ListTransactions(r.Context(), account)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error listing transactions: %v", err))
		return
	}

	if code := r.URL.Query().Get("code"); code != "" {
		filtered := txns[:0]
		for _, txn := range txns {
			if txn.Code == code {
				filtered = append(filtered, txn)
			}
		}
		txns = filtered
	}

	limit := queryInt(r, "limit", defaultTradeLimit)
	if limit > maxTradeLimit {
		limit = maxTradeLimit
	}
	if len(txns) > limit {
		txns = txns[:limit]
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"account":      account,
		"transactions": txns,
		"count":        len(txns),
	})
}

type tradeRequest struct {
	Kind      string  `json:"kind"` // buy or sell
	Code      string  `json:"code"`
	Amount    float64 `json:"amount"` // cash amount, buys only
	Units     float64 `json:"units"`  // unit count, sells only
	TradeDate string  `json:"trade_date,omitempty"`
}

func (s *Server) handleTradePlace(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	code, errMsg := validateCode(req.Code)
	if errMsg != "" {
		WriteError(w, http.StatusBadRequest, errMsg)
		return
	}

	var tradeDate time.Time
	if req.TradeDate != "" {
		parsed, err := time.ParseInLocation(displayDate, req.TradeDate, s.marketLocation())
		if err != nil {
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid trade_date %q: expected YYYY-MM-DD", req.TradeDate))
			return
		}
		tradeDate = parsed
	}

	account := s.resolveAccount(r)

	var txn *models.Transaction
	var err error
	switch models.TradeKind(req.Kind) {
	case models.TradeBuy:
		txn, err = s.app.TradeService.PlaceBuy(r.Context(), account, code, req.Amount, tradeDate)
	case models.TradeSell:
		txn, err = s.app.TradeService.PlaceSell(r.Context(), account, code, req.Units, tradeDate)
	default:
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid kind %q: expected buy or sell", req.Kind))
		return
	}
	if err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Error placing order: %v", err))
		return
	}

	WriteJSON(w, http.StatusCreated, txn)
}

// handleTradeConfirm handles POST /api/trades/confirm.
func (s *Server) handleTradeConfirm(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	account := s.resolveAccount(r)
	confirmed, err := s.app.TradeService.ConfirmPending(r.Context(), account)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error confirming trades: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"account":   account,
		"confirmed": confirmed,
	})
}
