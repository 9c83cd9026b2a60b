package catalog

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	hotels := r.Group("/hotels")
	{
		hotels.GET("", h.GetHotels) // ?city=
		hotels.GET("/:id", h.GetHotelByID)
		hotels.GET("/:id/rooms", h.GetHotelRooms)
	}

	r.GET("/services", h.GetServices)
	r.POST("/quote", h.Quote)
}

// RegisterAdminRoutes expects the group to be guarded by auth + admin middleware.
func (h *Handler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.POST("/hotels", h.CreateHotel)
	admin.POST("/rooms", h.CreateRoom)
	admin.PATCH("/rooms/:id/price", h.UpdateRoomPrice)
	admin.POST("/services", h.CreateService)
	admin.PATCH("/services/:id/price", h.UpdateServicePrice)
}
