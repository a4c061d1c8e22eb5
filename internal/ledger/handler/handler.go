// Package handler exposes the ledger over HTTP. Mutating routes require a
// JWT-authenticated caller; queries are public.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"rightsledger/internal/ledger/models"
	"rightsledger/internal/ledger/service"
	"rightsledger/internal/platform/middleware"
	"rightsledger/internal/roles"
	id "rightsledger/pkg/domain"
	dErrors "rightsledger/pkg/domain-errors"
	"rightsledger/pkg/platform/httputil"
)

const defaultPageLimit = 50

// Service is the facade surface the handler depends on.
type Service interface {
	Create(ctx context.Context, caller id.Address, keyLocator, documentRef string, cfg models.RevenueShareConfig, paidFee uint64) (service.CreateResult, error)
	Mint(ctx context.Context, caller id.Address, tokenID id.TokenID, customer id.Address, saleAmount uint64, invoiceID string, paidFee uint64) (service.MintResult, error)
	UpdateRevenueShare(ctx context.Context, caller id.Address, tokenID id.TokenID, cfg models.RevenueShareConfig) error
	TransferByOwner(ctx context.Context, caller, from, to id.Address, tokenID id.TokenID, amount uint64) error
	Transfer(ctx context.Context, caller, from, to id.Address, tokenID id.TokenID, amount uint64) error
	Burn(ctx context.Context, caller, holder id.Address, tokenID id.TokenID, amount uint64) error
	GrantRole(ctx context.Context, caller, address id.Address, role roles.Role) error
	RevokeRole(ctx context.Context, caller, address id.Address, role roles.Role) error

	GetReceipt(ctx context.Context, receiptID id.ReceiptID) (*models.Receipt, error)
	ReceiptsByToken(ctx context.Context, tokenID id.TokenID) ([]id.ReceiptID, error)
	ReceiptsByCustomer(ctx context.Context, customer id.Address) ([]id.ReceiptID, error)
	ReceiptCountByToken(ctx context.Context, tokenID id.TokenID) (int, error)
	ReceiptCountByCustomer(ctx context.Context, customer id.Address) (int, error)
	ReceiptsByTokenPaginated(ctx context.Context, tokenID id.TokenID, offset, limit int) ([]*models.Receipt, error)
	RevenueShareConfig(ctx context.Context, tokenID id.TokenID) (models.RevenueShareConfig, error)
	RevenueShareHistory(ctx context.Context, tokenID id.TokenID) ([]models.RevenueShareHistoryEntry, error)
	RevenueShareHistoryCount(ctx context.Context, tokenID id.TokenID) (int, error)
	BalanceOf(ctx context.Context, tokenID id.TokenID, holder id.Address) (uint64, error)
	OwnerOf(ctx context.Context, tokenID id.TokenID) (id.Address, error)
	TokenInfo(ctx context.Context, tokenID id.TokenID) (*models.Token, error)
	TransferStatusOf(ctx context.Context, tokenID id.TokenID, holder id.Address) (models.TransferStatus, error)
	HasRole(ctx context.Context, address id.Address, role roles.Role) (bool, error)
	CollectedFees(ctx context.Context) (uint64, error)
}

type Handler struct {
	logger       *slog.Logger
	ledger       Service
	jwtValidator middleware.JWTValidator
}

func New(ledger Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		ledger:       ledger,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the ledger routes. Queries are public; everything that
// mutates sits behind the auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		r.Post("/tokens", h.handleCreate)
		r.Post("/tokens/{tokenID}/mint", h.handleMint)
		r.Put("/tokens/{tokenID}/revenue-share", h.handleUpdateRevenueShare)
		r.Post("/tokens/{tokenID}/transfers/owner", h.handleTransferByOwner)
		r.Post("/tokens/{tokenID}/transfers", h.handleTransfer)
		r.Post("/tokens/{tokenID}/burn", h.handleBurn)
		r.Post("/roles/grants", h.handleGrantRole)
		r.Post("/roles/revocations", h.handleRevokeRole)
	})

	r.Group(func(r chi.Router) {
		r.Get("/tokens/{tokenID}", h.handleTokenInfo)
		r.Get("/tokens/{tokenID}/owner", h.handleOwner)
		r.Get("/tokens/{tokenID}/revenue-share", h.handleRevenueShareConfig)
		r.Get("/tokens/{tokenID}/revenue-share/history", h.handleRevenueShareHistory)
		r.Get("/tokens/{tokenID}/revenue-share/history/count", h.handleRevenueShareHistoryCount)
		r.Get("/tokens/{tokenID}/balances/{address}", h.handleBalance)
		r.Get("/tokens/{tokenID}/transfer-status/{address}", h.handleTransferStatus)
		r.Get("/tokens/{tokenID}/receipts", h.handleReceiptsByToken)
		r.Get("/tokens/{tokenID}/receipts/count", h.handleReceiptCountByToken)
		r.Get("/receipts/{receiptID}", h.handleGetReceipt)
		r.Get("/customers/{address}/receipts", h.handleReceiptsByCustomer)
		r.Get("/customers/{address}/receipts/count", h.handleReceiptCountByCustomer)
		r.Get("/roles/{role}/{address}", h.handleHasRole)
		r.Get("/treasury/fees", h.handleCollectedFees)
	})
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (id.Address, bool) {
	caller := middleware.GetCaller(r.Context())
	if caller.IsZero() {
		// RequireAuth guarantees a caller; reaching here is a wiring bug.
		h.logger.ErrorContext(r.Context(), "caller missing from context despite auth middleware",
			"request_id", middleware.GetRequestID(r.Context()),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return id.ZeroAddress, false
	}
	return caller, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.logger.WarnContext(r.Context(), "invalid request body",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return false
	}
	return true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := dErrors.CodeOf(err)
	if code == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), "ledger operation failed",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}

func tokenIDParam(r *http.Request) (id.TokenID, error) {
	return id.ParseTokenID(chi.URLParam(r, "tokenID"))
}

func addressParam(r *http.Request) (id.Address, error) {
	return id.ParseAddress(chi.URLParam(r, "address"))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req createTokenRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.ledger.Create(r.Context(), caller, req.KeyLocator, req.DocumentRef, shareConfig(req.Recipients, req.Shares), req.PaidFee)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, createTokenResponse{TokenID: res.TokenID, Refund: res.Refund})
}

func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	tokenID, err := tokenIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req mintRequest
	if !h.decode(w, r, &req) {
		return
	}

	// Empty customer parses to the zero address the service rejects.
	customer, _ := id.ParseAddress(req.Customer)
	res, err := h.ledger.Mint(r.Context(), caller, tokenID, customer, req.SaleAmount, req.PaymentInvoiceID, req.PaidFee)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, mintResponse{ReceiptID: res.ReceiptID, Refund: res.Refund})
}

func (h *Handler) handleUpdateRevenueShare(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	tokenID, err := tokenIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req updateRevenueShareRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.ledger.UpdateRevenueShare(r.Context(), caller, tokenID, shareConfig(req.Recipients, req.Shares)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTransferByOwner(w http.ResponseWriter, r *http.Request) {
	h.handleTransferLike(w, r, h.ledger.TransferByOwner)
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	h.handleTransferLike(w, r, h.ledger.Transfer)
}

func (h *Handler) handleTransferLike(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, caller, from, to id.Address, tokenID id.TokenID, amount uint64) error) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	tokenID, err := tokenIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req transferRequest
	if !h.decode(w, r, &req) {
		return
	}

	from, _ := id.ParseAddress(req.From)
	to, _ := id.ParseAddress(req.To)
	if err := op(r.Context(), caller, from, to, tokenID, req.Amount); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleBurn(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	tokenID, err := tokenIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req burnRequest
	if !h.decode(w, r, &req) {
		return
	}

	holder, _ := id.ParseAddress(req.Holder)
	if err := h.ledger.Burn(r.Context(), caller, holder, tokenID, req.Amount); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGrantRole(w http.ResponseWriter, r *http.Request) {
	h.handleRoleChange(w, r, h.ledger.GrantRole)
}

func (h *Handler) handleRevokeRole(w http.ResponseWriter, r *http.Request) {
	h.handleRoleChange(w, r, h.ledger.RevokeRole)
}

func (h *Handler) handleRoleChange(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, caller, address id.Address, role roles.Role) error) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req roleRequest
	if !h.decode(w, r, &req) {
		return
	}

	address, _ := id.ParseAddress(req.Address)
	if err := op(r.Context(), caller, address, roles.Role(req.Role)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTokenInfo(w http.ResponseWriter, r *http.Request) {
	tokenID, err := tokenIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	token, err := h.ledger.TokenInfo(r.Context(), tokenID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, token)
}

func (h *Handler) handleOwner(w http.ResponseWriter, r *http.Request) {
	tokenID, err := tokenIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	owner, err := h.ledger.OwnerOf(r.Context(), tokenID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ownerResponse{TokenID: tokenID, Owner: owner})
}

func (h *Handler) handleRevenueShareConfig(w http.ResponseWriter, r *http.Request) {
	tokenID, err := tokenIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	cfg, err := h.ledger.RevenueShareConfig(r.Context(), tokenID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cfg)
}

func (h *Handler) handleRevenueShareHistory(w http.ResponseWriter, r *http.Request) {
	tokenID, err := tokenIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	history, err := h.ledger.RevenueShareHistory(r.Context(), tokenID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, history)
}

func (h *Handler) handleRevenueShareHistoryCount(w http.ResponseWriter, r *http.Request) {
	tokenID, err := tokenIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	n, err := h.ledger.RevenueShareHistoryCount(r.Context(), tokenID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, countResponse{Count: n})
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	tokenID, err := tokenIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	holder, err := addressParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	balance, err := h.ledger.BalanceOf(r.Context(), tokenID, holder)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, balanceResponse{TokenID: tokenID, Holder: holder, Balance: balance})
}

func (h *Handler) handleTransferStatus(w http.ResponseWriter, r *http.Request) {
	tokenID, err := tokenIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	holder, err := addressParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	status, err := h.ledger.TransferStatusOf(r.Context(), tokenID, holder)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

// handleReceiptsByToken serves both forms: with offset/limit query
// parameters it returns full receipt records, otherwise the bare ID list.
func (h *Handler) handleReceiptsByToken(w http.ResponseWriter, r *http.Request) {
	tokenID, err := tokenIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	query := r.URL.Query()
	if query.Has("offset") || query.Has("limit") {
		offset := parseIntOrDefault(query.Get("offset"), 0)
		limit := parseIntOrDefault(query.Get("limit"), defaultPageLimit)
		receipts, err := h.ledger.ReceiptsByTokenPaginated(r.Context(), tokenID, offset, limit)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, receipts)
		return
	}

	ids, err := h.ledger.ReceiptsByToken(r.Context(), tokenID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, receiptIDsResponse{ReceiptIDs: ids})
}

func (h *Handler) handleReceiptCountByToken(w http.ResponseWriter, r *http.Request) {
	tokenID, err := tokenIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	n, err := h.ledger.ReceiptCountByToken(r.Context(), tokenID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, countResponse{Count: n})
}

func (h *Handler) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	receiptID, err := id.ParseReceiptID(chi.URLParam(r, "receiptID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	receipt, err := h.ledger.GetReceipt(r.Context(), receiptID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, receipt)
}

func (h *Handler) handleReceiptsByCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := addressParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	ids, err := h.ledger.ReceiptsByCustomer(r.Context(), customer)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, receiptIDsResponse{ReceiptIDs: ids})
}

func (h *Handler) handleReceiptCountByCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := addressParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	n, err := h.ledger.ReceiptCountByCustomer(r.Context(), customer)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, countResponse{Count: n})
}

func (h *Handler) handleHasRole(w http.ResponseWriter, r *http.Request) {
	address, err := addressParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	role := roles.Role(chi.URLParam(r, "role"))
	has, err := h.ledger.HasRole(r.Context(), address, role)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, hasRoleResponse{Address: address, Role: role, HasRole: has})
}

func (h *Handler) handleCollectedFees(w http.ResponseWriter, r *http.Request) {
	collected, err := h.ledger.CollectedFees(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, collectedFeesResponse{CollectedFees: collected})
}

func parseIntOrDefault(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
