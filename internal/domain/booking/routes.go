package booking

import "github.com/gin-gonic/gin"

// RegisterRoutes expects the group to be guarded by auth middleware.
func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	bookings := protected.Group("/bookings")
	{
		bookings.POST("", h.Create)
		bookings.GET("/:id", h.Get)
		bookings.POST("/:id/pay-wallet", h.PayFromWallet)
		bookings.POST("/:id/deposit-proof", h.SubmitDepositProof)
		bookings.POST("/:id/cancel", h.Cancel)
	}
	protected.GET("/users/me/bookings", h.ListMine)
}

// RegisterAdminRoutes expects the group to be guarded by auth + admin middleware.
func (h *Handler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	bookings := admin.Group("/bookings")
	{
		bookings.GET("", h.List) // ?status=
		bookings.PATCH("/:id/approve", h.Approve)
		bookings.PATCH("/:id/check-in", h.CheckIn)
		bookings.PATCH("/:id/check-out", h.Checkout)
		bookings.PATCH("/:id/mark-paid", h.MarkPaid)
		bookings.PATCH("/:id/cancel", h.Cancel)
		bookings.POST("/:id/services", h.AddService)
		bookings.POST("/:id/scan", h.Scan)
	}
}
