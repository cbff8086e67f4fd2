package api

import (
	"context"
	"errors"
	"net/http"

	"storefront-api/internal/errdefs"
	"storefront-api/internal/models"
	"storefront-api/internal/response"
	"storefront-api/internal/services"
	"storefront-api/pkg/logging"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PaymentReader is the read side of the payment ledger
type PaymentReader interface {
	services.CompletionReader
	FindByID(ctx context.Context, id uint) (*models.PaymentRecord, error)
	List(ctx context.Context, status models.PaymentStatus, limit int) ([]models.PaymentRecord, error)
}

// Handler carries the services behind the HTTP routes
type Handler struct {
	Catalog       *services.CatalogService
	Pricing       *services.PricingService
	Checkout      *services.CheckoutService
	Confirmations *services.ConfirmationService
	Delivery      *services.DeliveryService
	Payments      PaymentReader
	Throttle      *services.CheckoutThrottle

	Clock          services.Clock
	Poller         services.PollerConfig
	CallbackSecret string
	AdminPassword  string
	ServiceName    string
}

// User facing messages never carry internal error detail
const (
	msgInvalidRequest   = "Invalid request"
	msgNotFound         = "Not found"
	msgInternal         = "Something went wrong. Please try again."
	msgPaymentFailed    = "Payment request failed. Please try again or contact support."
	msgNotConfirmed     = "Payment not confirmed yet. If you were charged, please contact support with your M-Pesa reference."
	msgTooManyRequests  = "Please wait before starting another payment."
	msgPurchaseMismatch = "This payment does not cover the requested files."
)

// respondError maps err onto a status code and a generic message
func respondError(c *gin.Context, err error) {
	status, message := http.StatusInternalServerError, msgInternal
	switch {
	case errors.Is(err, errdefs.ErrInvalidArgument):
		status, message = http.StatusBadRequest, msgInvalidRequest
	case errors.Is(err, errdefs.ErrNotFound):
		status, message = http.StatusNotFound, msgNotFound
	case errors.Is(err, errdefs.ErrPermissionDenied):
		status, message = http.StatusForbidden, "Forbidden"
	case errors.Is(err, errdefs.ErrGateway):
		status, message = http.StatusBadGateway, msgPaymentFailed
	case errors.Is(err, errdefs.ErrReconciliationTimeout):
		status, message = http.StatusRequestTimeout, msgNotConfirmed
	case errors.Is(err, errdefs.ErrPaymentNotCompleted):
		status, message = http.StatusConflict, msgNotConfirmed
	case errors.Is(err, errdefs.ErrPurchaseMismatch):
		status, message = http.StatusConflict, msgPurchaseMismatch
	}

	if status >= http.StatusInternalServerError {
		logging.L().Error("request failed",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	_ = c.Error(err)
	response.ErrorJSON(c, status, message)
}
