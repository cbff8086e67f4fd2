package api

import (
	"storefront-api/internal/response"
	"storefront-api/internal/services"

	"github.com/gin-gonic/gin"
)

// ListBatches lists the distinct catalog batches
func (h *Handler) ListBatches(c *gin.Context) {
	batches, err := h.Catalog.ListBatches(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessJSON(c, gin.H{"batches": batches})
}

// ListFiles lists catalog rows, optionally for one batch
func (h *Handler) ListFiles(c *gin.Context) {
	files, err := h.Catalog.ListFiles(c.Request.Context(), c.Query("batch"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessJSON(c, gin.H{"files": files})
}

// GetPricing resolves the price of a package for one batch
func (h *Handler) GetPricing(c *gin.Context) {
	pkg, err := services.ParsePackage(c.Query("package"))
	if err != nil {
		respondError(c, err)
		return
	}

	priced, err := h.Pricing.Resolve(c.Request.Context(), c.Query("batch"), pkg)
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessJSON(c, gin.H{
		"package":       priced.Package,
		"files":         priced.Files,
		"total_amount":  priced.TotalAmount,
		"charge_amount": priced.ChargeAmount(),
	})
}
