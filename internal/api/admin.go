package api

import (
	"errors"
	"net/http"

	"storefront-api/internal/errdefs"
	"storefront-api/internal/models"
	"storefront-api/internal/response"
	"storefront-api/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

const (
	defaultPaymentsLimit = 50
	maxPaymentsLimit     = 500
)

// AdminListFiles lists the whole catalog
func (h *Handler) AdminListFiles(c *gin.Context) {
	files, err := h.Catalog.ListFiles(c.Request.Context(), c.Query("batch"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessJSON(c, gin.H{"files": files})
}

// CreateFileRequest represents create catalog file request
type CreateFileRequest struct {
	Batch       string          `json:"batch" binding:"required"`
	Type        models.FileType `json:"type" binding:"required"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	FileURL     string          `json:"file_url" binding:"required"`
}

// AdminCreateFile adds a catalog row
func (h *Handler) AdminCreateFile(c *gin.Context) {
	var req CreateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	file, err := h.Catalog.CreateFile(c.Request.Context(), services.CatalogFileInput{
		Batch:       req.Batch,
		Type:        req.Type,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		FileURL:     req.FileURL,
	})
	if err != nil {
		respondAdminError(c, err)
		return
	}

	response.MessageJSON(c, http.StatusCreated, "File created successfully", file)
}

// UpdateFileRequest represents update catalog file request
type UpdateFileRequest struct {
	Batch       *string          `json:"batch"`
	Type        *models.FileType `json:"type"`
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	FileURL     *string          `json:"file_url"`
}

// AdminUpdateFile changes a catalog row
func (h *Handler) AdminUpdateFile(c *gin.Context) {
	id, ok := fileIDParam(c)
	if !ok {
		return
	}

	var req UpdateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	file, err := h.Catalog.UpdateFile(c.Request.Context(), id, services.CatalogFileUpdate{
		Batch:       req.Batch,
		Type:        req.Type,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		FileURL:     req.FileURL,
	})
	if err != nil {
		respondAdminError(c, err)
		return
	}

	response.MessageJSON(c, http.StatusOK, "File updated successfully", file)
}

// AdminDeleteFile removes a catalog row
func (h *Handler) AdminDeleteFile(c *gin.Context) {
	id, ok := fileIDParam(c)
	if !ok {
		return
	}

	if err := h.Catalog.DeleteFile(c.Request.Context(), id); err != nil {
		respondAdminError(c, err)
		return
	}

	response.MessageJSON(c, http.StatusOK, "File deleted successfully", nil)
}

// AdminListPayments lists the primary ledger, newest first
func (h *Handler) AdminListPayments(c *gin.Context) {
	var status models.PaymentStatus
	if s := c.Query("status"); s != "" {
		status = models.PaymentStatus(s)
		if !status.IsValid() {
			response.ErrorJSON(c, http.StatusBadRequest, "Unknown payment status")
			return
		}
	}

	limit := cast.ToInt(c.DefaultQuery("limit", cast.ToString(defaultPaymentsLimit)))
	if limit <= 0 {
		limit = defaultPaymentsLimit
	}
	if limit > maxPaymentsLimit {
		limit = maxPaymentsLimit
	}

	payments, err := h.Payments.List(c.Request.Context(), status, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessJSON(c, gin.H{"payments": payments, "count": len(payments)})
}

func fileIDParam(c *gin.Context) (uint, bool) {
	id, err := cast.ToUintE(c.Param("id"))
	if err != nil || id == 0 {
		response.ErrorJSON(c, http.StatusBadRequest, "File ID is required")
		return 0, false
	}
	return id, true
}

// respondAdminError shows validation detail to the authenticated admin
func respondAdminError(c *gin.Context, err error) {
	if errors.Is(err, errdefs.ErrInvalidArgument) {
		_ = c.Error(err)
		response.ErrorJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	respondError(c, err)
}
