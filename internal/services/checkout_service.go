package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"storefront-api/internal/errdefs"
	"storefront-api/internal/models"
	"storefront-api/pkg/logging"

	"go.uber.org/zap"
)

const (
	defaultPayerName   = "Customer"
	defaultPaymentType = "project_purchase"
)

// CheckoutRequest starts one payment attempt
type CheckoutRequest struct {
	Phone       string
	Amount      int64
	FileID      uint
	DonorName   string
	PaymentType string
}

// CheckoutResult is what the client needs to start reconciliation
type CheckoutResult struct {
	Status    string `json:"status"`
	Reference string `json:"reference,omitempty"`
	PaymentID uint   `json:"payment_id"`
	Warning   string `json:"warning,omitempty"`
}

// CheckoutLedger is the write side of the payment ledger used by checkout
type CheckoutLedger interface {
	OpenPending(ctx context.Context, fileID uint, phone string, amount int64) (*models.PaymentRecord, error)
	RecordGatewayOutcome(ctx context.Context, record *models.PaymentRecord, status models.PaymentStatus, transactionID string) error
}

// CheckoutService creates the pending ledger row and asks the gateway to push
// the charge to the payer's phone. The row always exists before the gateway
// is called.
type CheckoutService struct {
	ledger  CheckoutLedger
	gateway PaymentGateway
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(ledger CheckoutLedger, gateway PaymentGateway) *CheckoutService {
	return &CheckoutService{ledger: ledger, gateway: gateway}
}

// Initiate runs one checkout attempt. Errors wrap errdefs.ErrInvalidArgument,
// errdefs.ErrPersistence or errdefs.ErrGateway. On a gateway error the
// returned result still carries the payment id of the failed attempt.
// A failed attempt is never resumed; the caller starts a new one.
func (s *CheckoutService) Initiate(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	req.Phone = strings.TrimSpace(req.Phone)
	if err := validateCheckout(req); err != nil {
		return nil, err
	}

	record, err := s.ledger.OpenPending(ctx, req.FileID, req.Phone, req.Amount)
	if err != nil {
		logging.L().Error("checkout aborted, pending payment not stored",
			zap.String("phone_number", req.Phone), zap.Int64("amount", req.Amount), zap.Error(err))
		return nil, err
	}

	gatewayReq := GatewayRequest{
		Phone:       req.Phone,
		Amount:      req.Amount,
		DonorName:   orDefault(req.DonorName, defaultPayerName),
		PaymentType: orDefault(req.PaymentType, defaultPaymentType),
		PaymentID:   strconv.FormatUint(uint64(record.ID), 10),
	}

	resp, err := s.gateway.InitiateSTKPush(ctx, gatewayReq)
	if err != nil || resp == nil || !resp.Accepted() {
		return s.fail(ctx, record, resp, err)
	}

	if resp.PrimarySaved != nil || resp.SecondarySaved != nil {
		logging.L().Debug("gateway store flags",
			zap.Uint("payment_id", record.ID),
			zap.Boolp("supabase1_saved", resp.PrimarySaved),
			zap.Boolp("supabase2_saved", resp.SecondarySaved))
	}

	if err := s.ledger.RecordGatewayOutcome(ctx, record, models.PaymentStatusSuccess, resp.Reference); err != nil {
		logging.L().Error("gateway accepted payment but ledger update failed",
			zap.Uint("payment_id", record.ID), zap.String("reference", resp.Reference), zap.Error(err))
		return nil, err
	}

	logging.Infof("STK push accepted - payment_id: %d, reference: %s", record.ID, resp.Reference)
	return &CheckoutResult{
		Status:    GatewayStatusSuccess,
		Reference: resp.Reference,
		PaymentID: record.ID,
		Warning:   resp.Warning,
	}, nil
}

func (s *CheckoutService) fail(ctx context.Context, record *models.PaymentRecord, resp *GatewayResponse, callErr error) (*CheckoutResult, error) {
	msg := "gateway rejected the payment"
	var gwErr *GatewayError
	switch {
	case errors.As(callErr, &gwErr):
		msg = gwErr.Message
	case callErr != nil:
		msg = callErr.Error()
	case resp != nil && resp.Error != "":
		msg = resp.Error
	case resp != nil && resp.Status == GatewayStatusSuccess:
		msg = "gateway response is missing a reference"
	}

	if err := s.ledger.RecordGatewayOutcome(ctx, record, models.PaymentStatusFailed, ""); err != nil {
		logging.L().Error("failed to mark payment as failed",
			zap.Uint("payment_id", record.ID), zap.Error(err))
	}

	logging.Warnf("STK push failed - payment_id: %d, reason: %s", record.ID, msg)
	return &CheckoutResult{
		Status:    GatewayStatusError,
		PaymentID: record.ID,
	}, fmt.Errorf("%w: %s", errdefs.ErrGateway, msg)
}

func validateCheckout(req CheckoutRequest) error {
	var missing []string
	if req.Phone == "" {
		missing = append(missing, "phone")
	}
	if req.Amount <= 0 {
		missing = append(missing, "amount")
	}
	if req.FileID == 0 {
		missing = append(missing, "file_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", errdefs.ErrInvalidArgument, strings.Join(missing, ", "))
	}
	return nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
