package invoice

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hotelbooking/internal/domain/auth"
	"hotelbooking/internal/domain/booking"
	"hotelbooking/internal/domain/catalog"
	"hotelbooking/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes expects the group to be guarded by auth middleware.
func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	protected.GET("/bookings/:id/invoice", h.GetInvoice) // ?format=text
}

func (h *Handler) GetInvoice(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.CustomError(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking id")
		return
	}
	actor := booking.Actor{UserID: userID, Admin: c.GetString("role") == string(auth.RoleAdmin)}

	inv, err := h.service.ForBooking(c.Request.Context(), actor, id)
	var integrity string
	if errors.Is(err, ErrSubtotalMismatch) {
		integrity, err = err.Error(), nil
	}
	if err != nil {
		handleError(c, err)
		return
	}

	if c.Query("format") == "text" {
		var notes []string
		if integrity != "" {
			notes = append(notes, "integrity error: "+integrity)
		}
		c.String(http.StatusOK, inv.TextWithNotes(notes...))
		return
	}
	out := gin.H{"invoice": inv}
	if integrity != "" {
		out["integrity_error"] = integrity
	}
	response.Success(c, http.StatusOK, out)
}

func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, booking.ErrNotFound), errors.Is(err, catalog.ErrNotFound), errors.Is(err, auth.ErrUserNotFound):
		response.CustomError(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
	case errors.Is(err, booking.ErrForbidden):
		response.CustomError(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
	case errors.Is(err, ErrNotInvoiceable):
		response.CustomError(c, http.StatusConflict, "GUARD_VIOLATION", err.Error())
	default:
		_ = c.Error(err)
		response.CustomError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
