package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/apexledger/transfer-engine/internal/engine"
	"github.com/apexledger/transfer-engine/internal/interfaces"
	"github.com/apexledger/transfer-engine/internal/models"
	"github.com/apexledger/transfer-engine/internal/models/events"
)

// transferTimeout bounds a whole transfer, lock wait included.
const transferTimeout = 5 * time.Second

const transferCompletedTopic = "transfer_completed"

// Server exposes the transfer engine and its stores over HTTP.
type Server struct {
	coordinator *engine.Coordinator
	accounts    interfaces.AccountStore
	ledger      interfaces.TransferLedger
	publisher   interfaces.EventPublisher // nil disables events
}

func New(coordinator *engine.Coordinator, accounts interfaces.AccountStore, ledger interfaces.TransferLedger, publisher interfaces.EventPublisher) *Server {
	return &Server{
		coordinator: coordinator,
		accounts:    accounts,
		ledger:      ledger,
		publisher:   publisher,
	}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("POST /transfers", s.handleCreateTransfer)
	mux.HandleFunc("GET /transfers", s.handleListTransfers)
	mux.HandleFunc("GET /transfers/{id}", s.handleGetTransfer)
	mux.HandleFunc("DELETE /transfers/{id}", s.handleDeleteTransfer)
	mux.HandleFunc("POST /accounts", s.handleCreateAccount)
	mux.HandleFunc("GET /accounts/{id}", s.handleGetAccount)
	mux.HandleFunc("DELETE /accounts/{id}", s.handleDeleteAccount)
	return mux
}

func (s *Server) handleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SourceAccountID      int64           `json:"source_account_id"`
		DestinationAccountID int64           `json:"destination_account_id"`
		Amount               decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), transferTimeout)
	defer cancel()

	result, err := s.coordinator.Execute(ctx, req.SourceAccountID, req.DestinationAccountID, req.Amount)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	s.publish(events.TransferCompleted{
		TransferID:           result.Transfer.ID,
		SourceAccountID:      result.Transfer.SourceAccountID,
		DestinationAccountID: result.Transfer.DestinationAccountID,
		Amount:               result.Transfer.Amount,
		OccurredAt:           result.Transfer.CreatedAt,
	})

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListTransfers(w http.ResponseWriter, r *http.Request) {
	transfers, err := s.ledger.GetTransfers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if transfers == nil {
		transfers = []models.Transfer{}
	}
	writeJSON(w, http.StatusOK, transfers)
}

func (s *Server) handleGetTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transfer id")
		return
	}
	transfer, err := s.ledger.GetTransfer(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, transfer)
}

// handleDeleteTransfer corrects the audit trail only; balances are never
// restored.
func (s *Server) handleDeleteTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transfer id")
		return
	}
	if err := s.ledger.DeleteTransfer(r.Context(), id); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Owner       string          `json:"owner"`
		Institution string          `json:"institution"`
		Balance     decimal.Decimal `json:"balance"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Balance.Sign() < 0 {
		writeError(w, http.StatusBadRequest, "opening balance must not be negative")
		return
	}

	account, err := s.accounts.CreateAccount(r.Context(), models.Account{
		Owner:       req.Owner,
		Institution: req.Institution,
		Number:      uuid.NewString(),
		Balance:     req.Balance,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}
	account, err := s.accounts.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}
	if err := s.accounts.DeleteAccount(r.Context(), id); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) publish(event events.TransferCompleted) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(transferCompletedTopic, event); err != nil {
		log.Printf("publish %s: %v", transferCompletedTopic, err)
	}
}

// statusFor maps engine and store errors onto HTTP status codes. Rejections
// of an invalid transfer are 4xx; retry exhaustion is 409 so clients know
// retrying may succeed; anything unexpected is 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrAccountNotFound),
		errors.Is(err, models.ErrTransferNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrSameAccount),
		errors.Is(err, models.ErrInsufficientFunds):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrAccountHasTransfers):
		return http.StatusConflict
	case errors.Is(err, models.ErrTransferFailed):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
