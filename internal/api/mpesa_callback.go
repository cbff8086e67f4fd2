package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"storefront-api/internal/errdefs"
	"storefront-api/internal/models"
	"storefront-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

var (
	callbackAccepted = models.STKCallbackAck{ResultCode: 0, ResultDesc: "Accepted"}
	callbackRetry    = models.STKCallbackAck{ResultCode: 1, ResultDesc: "Temporary failure, retry"}
)

// MpesaCallback receives the STK push outcome. A callback that could not be
// applied, including one for a payment not stored yet, gets a 5xx so the
// processor delivers it again.
func (h *Handler) MpesaCallback(c *gin.Context) {
	if h.CallbackSecret != "" {
		token := c.Query("token")
		if subtle.ConstantTimeCompare([]byte(token), []byte(h.CallbackSecret)) != 1 {
			logging.Warnf("Rejected M-Pesa callback with bad token - client_ip: %s", c.ClientIP())
			c.JSON(http.StatusUnauthorized, models.STKCallbackAck{ResultCode: 1, ResultDesc: "Unauthorized"})
			return
		}
	}

	body, err := c.GetRawData()
	if err != nil || len(body) == 0 {
		logging.Errorf("Failed to read M-Pesa callback body: %v", err)
		c.JSON(http.StatusBadRequest, models.STKCallbackAck{ResultCode: 1, ResultDesc: "Empty request body"})
		return
	}

	var wrapper models.STKCallbackWrapper
	if err := json.Unmarshal(body, &wrapper); err != nil {
		logging.Errorf("Failed to parse M-Pesa callback: %v, body length: %d", err, len(body))
		c.JSON(http.StatusBadRequest, models.STKCallbackAck{ResultCode: 1, ResultDesc: "Invalid callback format"})
		return
	}

	cb := wrapper.Body.StkCallback
	outcome, err := h.Confirmations.HandleCallback(c.Request.Context(), &cb)
	switch {
	case err != nil && errors.Is(err, errdefs.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, models.STKCallbackAck{ResultCode: 1, ResultDesc: "Missing CheckoutRequestID"})
		return
	case err != nil:
		logging.Errorf("M-Pesa callback not applied - checkout_request_id: %s, error: %v", cb.CheckoutRequestID, err)
		c.JSON(http.StatusServiceUnavailable, callbackRetry)
		return
	case outcome.Replayed:
		logging.Infof("Duplicate M-Pesa callback ignored - checkout_request_id: %s", cb.CheckoutRequestID)
	}

	c.JSON(http.StatusOK, callbackAccepted)
}
