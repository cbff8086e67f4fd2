package api

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"storefront-api/internal/errdefs"
	"storefront-api/internal/models"
	"storefront-api/internal/response"
	"storefront-api/internal/services"
	"storefront-api/pkg/logging"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
)

// InitiateCheckoutRequest is the raw checkout contract
type InitiateCheckoutRequest struct {
	Phone       string `json:"phone"`
	Amount      int64  `json:"amount"`
	FileID      uint   `json:"file_id"`
	DonorName   string `json:"donor_name"`
	PaymentType string `json:"payment_type"`
}

// InitiateCheckout starts an STK push for a caller supplied amount
func (h *Handler) InitiateCheckout(c *gin.Context) {
	var req InitiateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	h.initiate(c, services.CheckoutRequest{
		Phone:       req.Phone,
		Amount:      req.Amount,
		FileID:      req.FileID,
		DonorName:   req.DonorName,
		PaymentType: req.PaymentType,
	}, nil)
}

// PurchaseRequest buys a package; the price is resolved server side
type PurchaseRequest struct {
	Phone     string `json:"phone" binding:"required"`
	Batch     string `json:"batch" binding:"required"`
	Package   string `json:"package" binding:"required"`
	DonorName string `json:"donor_name"`
}

// Purchase prices the package and starts checkout for the first file of it
func (h *Handler) Purchase(c *gin.Context) {
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	pkg, err := services.ParsePackage(req.Package)
	if err != nil {
		respondError(c, err)
		return
	}
	priced, err := h.Pricing.Resolve(c.Request.Context(), req.Batch, pkg)
	if err != nil {
		respondError(c, err)
		return
	}
	if len(priced.Files) == 0 {
		response.ErrorJSON(c, http.StatusNotFound, "No files available for this package")
		return
	}

	h.initiate(c, services.CheckoutRequest{
		Phone:     req.Phone,
		Amount:    priced.ChargeAmount(),
		FileID:    priced.Files[0].ID,
		DonorName: req.DonorName,
	}, priced)
}

func (h *Handler) initiate(c *gin.Context, req services.CheckoutRequest, priced *services.PricedPackage) {
	ctx := c.Request.Context()
	phone := strings.TrimSpace(req.Phone)

	if phone != "" && !h.Throttle.Allow(ctx, phone) {
		retryAfter := h.Throttle.RetryAfter(ctx, phone)
		c.Header("Retry-After", fmt.Sprintf("%d", int64(math.Ceil(retryAfter.Seconds()))))
		response.ErrorJSON(c, http.StatusTooManyRequests, msgTooManyRequests)
		return
	}

	result, err := h.Checkout.Initiate(ctx, req)
	if err != nil {
		if errors.Is(err, errdefs.ErrInvalidArgument) && phone != "" {
			h.Throttle.Release(ctx, phone)
		}
		if result != nil && errors.Is(err, errdefs.ErrGateway) {
			_ = c.Error(err)
			response.ErrorWithDataJSON(c, http.StatusBadGateway, msgPaymentFailed, result)
			return
		}
		respondError(c, err)
		return
	}

	data := gin.H{
		"status":     result.Status,
		"reference":  result.Reference,
		"payment_id": result.PaymentID,
	}
	if result.Warning != "" {
		data["warning"] = result.Warning
	}
	if priced != nil {
		data["package"] = priced.Package
		data["amount"] = req.Amount
	}
	response.SuccessJSON(c, data)
}

// GetPaymentStatus reads one payment's status from the primary ledger
func (h *Handler) GetPaymentStatus(c *gin.Context) {
	id, err := cast.ToUintE(c.Query("payment_id"))
	if err != nil || id == 0 {
		response.ErrorJSON(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	record, err := h.Payments.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessJSON(c, gin.H{
		"payment_id":     record.ID,
		"payment_status": record.PaymentStatus,
	})
}

// Reconcile blocks until the payment carrying reference is completed, then
// returns the delivery plan of the package it paid for. The package must
// match the payment: its batch is taken from the paid file and its price
// must equal the charged amount. A client that goes away stops the wait;
// the payment itself is not touched.
func (h *Handler) Reconcile(c *gin.Context) {
	reference := strings.TrimSpace(c.Query("reference"))
	if reference == "" {
		response.ErrorJSON(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	pkg, err := services.ParsePackage(c.Query("package"))
	if err != nil {
		respondError(c, err)
		return
	}
	batch := strings.TrimSpace(c.Query("batch"))

	ctx := c.Request.Context()
	poller := services.NewReconciliationPoller(h.Payments, h.Delivery, h.Clock, h.Poller).
		WithFileResolver(func(ctx context.Context, record *models.PaymentRecord) ([]models.ProjectFile, error) {
			return h.paidFiles(ctx, record, batch, pkg)
		})

	delivery, err := poller.Watch(ctx, reference, nil)
	if err != nil {
		if errors.Is(err, errdefs.ErrFlowDismissed) {
			logging.Infof("Reconciliation dismissed by client - reference: %s, attempts: %d", reference, poller.Attempts())
			c.Abort()
			return
		}
		if errors.Is(err, errdefs.ErrPurchaseMismatch) {
			logging.Warnf("Reconciliation refused - reference: %s, error: %v", reference, err)
		}
		respondError(c, err)
		return
	}

	response.SuccessJSON(c, gin.H{
		"state":    poller.State(),
		"delivery": delivery,
	})
}

// paidFiles resolves pkg within the batch of the paid file and checks the
// payment covers it
func (h *Handler) paidFiles(ctx context.Context, record *models.PaymentRecord, batch string, pkg services.Package) ([]models.ProjectFile, error) {
	paid, err := h.Catalog.GetFile(ctx, record.ProjectID)
	if err != nil {
		return nil, err
	}
	if batch != "" && batch != paid.Batch {
		return nil, fmt.Errorf("%w: payment %d is for batch %s, not %s", errdefs.ErrPurchaseMismatch, record.ID, paid.Batch, batch)
	}

	priced, err := h.Pricing.Resolve(ctx, paid.Batch, pkg)
	if err != nil {
		return nil, err
	}
	if err := priced.Covers(record); err != nil {
		return nil, err
	}
	return priced.Files, nil
}
