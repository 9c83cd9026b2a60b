package wallet

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"hotelbooking/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type AmountRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

type BonusRequest struct {
	Amount int64  `json:"amount" binding:"required,gt=0"`
	Note   string `json:"note" binding:"max=255"`
}

type ConfirmWithdrawalRequest struct {
	Code string `json:"code" binding:"required,len=6,numeric"`
}

func (h *Handler) GetMyWallet(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	w, err := h.service.GetOrCreateWallet(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"wallet": w})
}

func (h *Handler) TopUp(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", "amount must be a positive integer")
		return
	}

	w, tx, err := h.service.TopUp(c.Request.Context(), userID, req.Amount)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"wallet": w, "transaction": tx})
}

func (h *Handler) ListTransactions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	items, err := h.service.ListTransactions(c.Request.Context(), userID, limit)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"transactions": items})
}

func (h *Handler) RequestWithdrawal(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", "amount must be a positive integer")
		return
	}

	wd, err := h.service.RequestWithdrawal(c.Request.Context(), userID, req.Amount)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"withdrawal":  wd,
		"ttl_seconds": int(h.service.codeTTL.Seconds()),
	})
}

func (h *Handler) ConfirmWithdrawal(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.CustomError(c, http.StatusBadRequest, "INVALID_ID", "Invalid withdrawal id")
		return
	}
	var req ConfirmWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", "code must be 6 digits")
		return
	}

	wd, w, err := h.service.ConfirmWithdrawal(c.Request.Context(), userID, id, req.Code)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"withdrawal": wd, "wallet": w})
}

func (h *Handler) GrantBonus(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}
	var req BonusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", "amount must be a positive integer")
		return
	}
	if req.Note == "" {
		req.Note = "promotion"
	}

	w, tx, err := h.service.GrantBonus(c.Request.Context(), userID, req.Amount, req.Note)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"wallet": w, "transaction": tx})
}

func (h *Handler) Reconcile(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	r, err := h.service.Reconcile(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reconciliation": r})
}

func currentUser(c *gin.Context) (int64, bool) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return 0, false
	}
	return userID, true
}

func parseUserID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil || id <= 0 {
		response.CustomError(c, http.StatusBadRequest, "INVALID_ID", "Invalid user id")
		return 0, false
	}
	return id, true
}

func handleError(c *gin.Context, err error) {
	var insufficient *InsufficientFundsError
	switch {
	case errors.As(err, &insufficient):
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", err.Error(), gin.H{
			"required":  insufficient.Required,
			"available": insufficient.Available,
			"shortfall": insufficient.Shortfall(),
		})
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidCode):
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrCodeExpired):
		response.CustomError(c, http.StatusGone, "CODE_EXPIRED", err.Error())
	case errors.Is(err, ErrTooManyAttempts), errors.Is(err, ErrWithdrawalClosed):
		response.CustomError(c, http.StatusConflict, "GUARD_VIOLATION", err.Error())
	case errors.Is(err, ErrWithdrawalNotFound):
		response.CustomError(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrSettlementConflict):
		response.CustomError(c, http.StatusConflict, "SETTLEMENT_CONFLICT", err.Error())
	case errors.Is(err, ErrLedgerMismatch):
		_ = c.Error(err)
		response.CustomError(c, http.StatusConflict, "LEDGER_MISMATCH", err.Error())
	default:
		_ = c.Error(err)
		response.CustomError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
