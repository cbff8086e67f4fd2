package api

import (
	"net/http"

	"storefront-api/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up all routes
func SetupRoutes(r *gin.Engine, h *Handler) {
	api := r.Group("/api")
	{
		catalog := api.Group("/catalog")
		{
			catalog.GET("/batches", h.ListBatches)
			catalog.GET("/files", h.ListFiles)
		}
		api.GET("/pricing", h.GetPricing)

		checkout := api.Group("/checkout")
		{
			checkout.POST("/initiate", h.InitiateCheckout)
			checkout.POST("/purchase", h.Purchase)
			checkout.GET("/status", h.GetPaymentStatus)
			checkout.GET("/reconcile", h.Reconcile)
		}

		// M-Pesa calls this, no admin auth
		api.POST("/mpesa/callback", h.MpesaCallback)

		admin := api.Group("/admin")
		admin.Use(middleware.AdminAuthMiddleware(h.AdminPassword))
		{
			admin.GET("/files", h.AdminListFiles)
			admin.POST("/files", h.AdminCreateFile)
			admin.PUT("/files/:id", h.AdminUpdateFile)
			admin.DELETE("/files/:id", h.AdminDeleteFile)
			admin.GET("/payments", h.AdminListPayments)
		}
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": h.ServiceName,
		})
	})
}
