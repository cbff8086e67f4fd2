package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"storefront-api/internal/errdefs"
	"storefront-api/internal/models"
	"storefront-api/pkg/logging"

	"go.uber.org/zap"
)

// ConfirmationLedger applies out-of-band payment confirmations
type ConfirmationLedger interface {
	Confirm(ctx context.Context, transactionID string, paid bool) (*models.PaymentRecord, bool, error)
}

// CompletionListener is told about every payment that just completed. It
// must give up once ctx is done.
type CompletionListener interface {
	PaymentCompleted(ctx context.Context, record *models.PaymentRecord)
}

// ConfirmationOutcome reports what a callback did
type ConfirmationOutcome struct {
	Record   *models.PaymentRecord
	Changed  bool
	Replayed bool
}

// ConfirmationService applies STK callbacks to the ledger. It is the only
// path that moves a payment to completed.
type ConfirmationService struct {
	ledger    ConfirmationLedger
	guard     ReplayGuard
	listeners []CompletionListener

	// listeners run on this context, not the request's; Close cancels it
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewConfirmationService creates a confirmation service; guard may be nil
func NewConfirmationService(ledger ConfirmationLedger, guard ReplayGuard, listeners ...CompletionListener) *ConfirmationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &ConfirmationService{
		ledger:    ledger,
		guard:     guard,
		listeners: listeners,
		baseCtx:   ctx,
		cancel:    cancel,
	}
}

// HandleCallback records the outcome carried by cb. A callback already
// applied is reported as replayed and not applied again. When applying fails
// the callback is not remembered, so the processor's redelivery is applied.
func (s *ConfirmationService) HandleCallback(ctx context.Context, cb *models.STKCallback) (*ConfirmationOutcome, error) {
	reference := strings.TrimSpace(cb.CheckoutRequestID)
	if reference == "" {
		return nil, fmt.Errorf("%w: callback without CheckoutRequestID", errdefs.ErrInvalidArgument)
	}

	key := fmt.Sprintf("%s:%d", reference, cb.ResultCode)
	claimed := false
	if s.guard != nil {
		first, err := s.guard.FirstSeen(ctx, key)
		switch {
		case err != nil:
			logging.Errorf("Replay guard unavailable, applying callback - reference: %s, error: %v", reference, err)
		case !first:
			return &ConfirmationOutcome{Replayed: true}, nil
		default:
			claimed = true
		}
	}

	record, changed, err := s.ledger.Confirm(ctx, reference, cb.Succeeded())
	if err != nil {
		if claimed {
			if forgetErr := s.guard.Forget(context.WithoutCancel(ctx), key); forgetErr != nil {
				logging.Errorf("Failed to release callback key - reference: %s, error: %v", reference, forgetErr)
			}
		}
		if errors.Is(err, errdefs.ErrNotFound) {
			logging.L().Warn("callback for unknown payment", zap.String("reference", reference), zap.Int("result_code", cb.ResultCode))
		}
		return nil, err
	}

	logging.L().Info("payment callback applied",
		zap.Uint("payment_id", record.ID),
		zap.String("reference", reference),
		zap.Int("result_code", cb.ResultCode),
		zap.String("result_desc", cb.ResultDesc),
		zap.String("receipt", cb.ReceiptNumber()),
		zap.String("payment_status", string(record.PaymentStatus)),
		zap.Bool("changed", changed))

	if paid := cb.PaidAmount(); cb.Succeeded() && paid != 0 && paid != record.Amount {
		logging.L().Warn("callback amount differs from ledger",
			zap.Uint("payment_id", record.ID), zap.Int64("ledger_amount", record.Amount), zap.Int64("paid_amount", paid))
	}

	if changed && record.PaymentStatus == models.PaymentStatusCompleted {
		s.notify(record)
	}
	return &ConfirmationOutcome{Record: record, Changed: changed}, nil
}

func (s *ConfirmationService) notify(record *models.PaymentRecord) {
	for _, l := range s.listeners {
		snapshot := *record
		s.wg.Add(1)
		go func(l CompletionListener) {
			defer s.wg.Done()
			l.PaymentCompleted(s.baseCtx, &snapshot)
		}(l)
	}
}

// Wait blocks until all completion listeners have returned
func (s *ConfirmationService) Wait() {
	s.wg.Wait()
}

// Close gives running listeners until ctx is done, then cancels them and
// waits for them to return.
func (s *ConfirmationService) Close(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logging.Warnf("Completion notifications still running at shutdown, cancelling")
	}
	s.cancel()
	<-done
}
