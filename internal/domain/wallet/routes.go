package wallet

import "github.com/gin-gonic/gin"

// RegisterRoutes expects the group to be guarded by auth middleware.
func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	me := protected.Group("/wallets/me")
	{
		me.GET("", h.GetMyWallet)
		me.POST("/top-up", h.TopUp)
		me.GET("/transactions", h.ListTransactions)
		me.POST("/withdrawals", h.RequestWithdrawal)
		me.POST("/withdrawals/:id/confirm", h.ConfirmWithdrawal)
	}
}

// RegisterAdminRoutes expects the group to be guarded by auth + admin middleware.
func (h *Handler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.POST("/wallets/:userId/bonus", h.GrantBonus)
	admin.GET("/wallets/:userId/reconcile", h.Reconcile)
}
