package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"crypto-tracker-go/internal/coingecko"
	"crypto-tracker-go/internal/models"
	"crypto-tracker-go/internal/portfolio"
	"crypto-tracker-go/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// userIDHeader carries the caller's identity; authentication proper is
// owned by an upstream gateway.
const userIDHeader = "User-ID"

// Server provides the HTTP interface for trade submission and portfolio
// analysis.
type Server struct {
	server           *http.Server
	logger           *zap.Logger
	repo             *repository.TradeRepository
	oracle           coingecko.OracleInterface
	analyzer         *portfolio.Analyzer
	percentPrecision int32
}

// NewServer creates a new API server listening on the given port.
func NewServer(
	port int,
	repo *repository.TradeRepository,
	oracle coingecko.OracleInterface,
	analyzer *portfolio.Analyzer,
	percentPrecision int32,
	logger *zap.Logger,
) *Server {
	s := &Server{
		logger:           logger.Named("api-server"),
		repo:             repo,
		oracle:           oracle,
		analyzer:         analyzer,
		percentPrecision: percentPrecision,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /trades", s.createTradeHandler)
	mux.HandleFunc("GET /portfolio/analysis", s.analysisHandler)
	mux.HandleFunc("GET /health", s.healthHandler)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: corsMiddleware(mux),
	}

	return s
}

// corsMiddleware applies a permissive CORS policy; the API is consumed by
// browser frontends served from other origins.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, User-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Start runs the HTTP server in a new goroutine.
func (s *Server) Start() {
	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Error("API server failed", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")
	return s.server.Shutdown(ctx)
}

// CreateTradeRequest is the trade submission payload.
type CreateTradeRequest struct {
	CoinSymbol  string          `json:"coin_symbol"`
	Quantity    decimal.Decimal `json:"quantity"`
	AvgBuyPrice decimal.Decimal `json:"avg_buy_price"`
}

// CreateTradeResponse acknowledges a persisted trade.
type CreateTradeResponse struct {
	Message string `json:"message"`
	TradeID uint   `json:"trade_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) createTradeHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		s.writeError(w, http.StatusBadRequest, "User-ID header missing")
		return
	}

	var req CreateTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(req.CoinSymbol))
	if symbol == "" {
		s.writeError(w, http.StatusBadRequest, "coin_symbol must not be empty")
		return
	}
	if !req.Quantity.IsPositive() {
		s.writeError(w, http.StatusBadRequest, "quantity must be greater than zero")
		return
	}
	if req.AvgBuyPrice.IsNegative() {
		s.writeError(w, http.StatusBadRequest, "avg_buy_price must not be negative")
		return
	}

	// An unknown symbol is rejected before the trade is persisted, so
	// analysis never sees symbols the oracle cannot price.
	if err := s.oracle.VerifySymbol(r.Context(), symbol); err != nil {
		if errors.Is(err, coingecko.ErrUnknownSymbol) {
			s.writeError(w, http.StatusBadRequest,
				fmt.Sprintf("invalid coin symbol: %s, not found on the price source", symbol))
			return
		}
		s.logger.Error("Symbol verification failed", zap.String("symbol", symbol), zap.Error(err))
		s.writeError(w, http.StatusBadGateway, "price source unavailable, try again later")
		return
	}

	trade := models.Trade{
		UserID:      userID,
		CoinSymbol:  symbol,
		Quantity:    req.Quantity,
		AvgBuyPrice: req.AvgBuyPrice,
	}
	if err := s.repo.Create(&trade); err != nil {
		s.logger.Error("Failed to persist trade", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to save trade")
		return
	}

	s.logger.Info("Trade created",
		zap.Uint("trade_id", trade.ID),
		zap.String("user_id", userID),
		zap.String("symbol", symbol),
	)
	s.writeJSON(w, http.StatusCreated, CreateTradeResponse{
		Message: "Trade created successfully",
		TradeID: trade.ID,
	})
}

func (s *Server) analysisHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		s.writeError(w, http.StatusBadRequest, "User-ID header missing")
		return
	}

	trades, err := s.repo.ListByUser(userID)
	if err != nil {
		s.logger.Error("Failed to load trades", zap.String("user_id", userID), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to load trades")
		return
	}

	summary, err := s.analyzer.Analyze(r.Context(), trades)
	if err != nil {
		if errors.Is(err, portfolio.ErrNoTradesFound) {
			s.writeError(w, http.StatusNotFound, "No trades found for this user")
			return
		}
		s.logger.Error("Analysis failed", zap.String("user_id", userID), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	s.writeJSON(w, http.StatusOK, portfolio.AssembleAnalysis(summary, s.percentPrecision))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}
