package booking

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hotelbooking/internal/domain/auth"
	"hotelbooking/internal/domain/wallet"
	"hotelbooking/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// View adds display labels to a booking.
type View struct {
	*Booking
	StatusLabel        string `json:"status_label"`
	StatusColor        string `json:"status_color"`
	PaymentStatusLabel string `json:"payment_status_label"`
	PaymentStatusColor string `json:"payment_status_color"`
	Outstanding        int64  `json:"outstanding"`
}

func NewView(b *Booking) View {
	return View{
		Booking:            b,
		StatusLabel:        b.Status.Label(),
		StatusColor:        b.Status.Color(),
		PaymentStatusLabel: b.PaymentStatus.Label(),
		PaymentStatusColor: b.PaymentStatus.Color(),
		Outstanding:        b.Outstanding(),
	}
}

func views(rows []Booking) []View {
	out := make([]View, 0, len(rows))
	for i := range rows {
		out = append(out, NewView(&rows[i]))
	}
	return out
}

func (h *Handler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	b, err := h.service.Create(c.Request.Context(), actor.UserID, req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"booking": NewView(b)})
}

func (h *Handler) Get(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	b, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": NewView(b)})
}

func (h *Handler) ListMine(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	limit, offset := pageParams(c)

	rows, err := h.service.ListMine(c.Request.Context(), actor.UserID, limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": views(rows)})
}

func (h *Handler) List(c *gin.Context) {
	limit, offset := pageParams(c)

	res, err := h.service.List(c.Request.Context(), Status(c.Query("status")), limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": views(res.Bookings), "total": res.Total})
}

func (h *Handler) PayFromWallet(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	b, err := h.service.PayFromWallet(c.Request.Context(), actor.UserID, id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": NewView(b)})
}

func (h *Handler) SubmitDepositProof(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req DepositProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", "reference is required")
		return
	}

	b, err := h.service.SubmitDepositProof(c.Request.Context(), actor.UserID, id, req.Reference)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": NewView(b)})
}

func (h *Handler) Cancel(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req CancelRequest
	_ = c.ShouldBindJSON(&req)

	b, err := h.service.Cancel(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": NewView(b)})
}

func (h *Handler) Approve(c *gin.Context) {
	h.adminAction(c, h.service.Approve)
}

func (h *Handler) CheckIn(c *gin.Context) {
	h.adminAction(c, h.service.CheckIn)
}

func (h *Handler) Checkout(c *gin.Context) {
	h.adminAction(c, h.service.Checkout)
}

func (h *Handler) MarkPaid(c *gin.Context) {
	h.adminAction(c, h.service.MarkPaid)
}

func (h *Handler) AddService(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req AddServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", "service_id is required")
		return
	}

	b, err := h.service.AddService(c.Request.Context(), actor.UserID, id, req.ServiceID, req.Quantity)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": NewView(b)})
}

func (h *Handler) Scan(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", "code is required")
		return
	}

	b, err := h.service.AddServiceByCode(c.Request.Context(), actor.UserID, id, req.Code, req.Quantity)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": NewView(b)})
}

func (h *Handler) adminAction(c *gin.Context, fn func(context.Context, int64) (*Booking, error)) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	b, err := fn(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": NewView(b)})
}

func actorFrom(c *gin.Context) (Actor, bool) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return Actor{}, false
	}
	return Actor{UserID: userID, Admin: c.GetString("role") == string(auth.RoleAdmin)}, true
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.CustomError(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking id")
		return 0, false
	}
	return id, true
}

func pageParams(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	return limit, offset
}

func handleError(c *gin.Context, err error) {
	var (
		verr         *ValidationError
		insufficient *wallet.InsufficientFundsError
	)
	switch {
	case errors.As(err, &verr):
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), verr.Fields)
	case errors.As(err, &insufficient):
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", err.Error(), gin.H{
			"required":  insufficient.Required,
			"available": insufficient.Available,
			"shortfall": insufficient.Shortfall(),
		})
	case errors.Is(err, ErrNotFound):
		response.CustomError(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
	case errors.Is(err, ErrForbidden):
		response.CustomError(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
	case errors.Is(err, ErrInvalidStatusTransition):
		response.CustomError(c, http.StatusConflict, "INVALID_STATUS_TRANSITION", "Booking cannot move to that status")
	case errors.Is(err, ErrGuardViolation):
		response.CustomError(c, http.StatusConflict, "GUARD_VIOLATION", err.Error())
	case errors.Is(err, ErrConcurrentUpdate), errors.Is(err, wallet.ErrSettlementConflict):
		response.CustomError(c, http.StatusConflict, "SETTLEMENT_CONFLICT", err.Error())
	default:
		_ = c.Error(err)
		response.CustomError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
