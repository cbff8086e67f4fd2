package database

import (
	"context"
	"errors"
	"fmt"

	"storefront-api/internal/errdefs"
	"storefront-api/internal/models"
	"storefront-api/pkg/logging"

	"go.uber.org/zap"
)

// RecordStore is the contract both payment stores satisfy.
type RecordStore interface {
	Name() string
	Create(ctx context.Context, record *models.PaymentRecord) error
	UpdateResult(ctx context.Context, id uint, status models.PaymentStatus, transactionID string) error
	FindByID(ctx context.Context, id uint) (*models.PaymentRecord, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*models.PaymentRecord, error)
	FindCompletedByTransactionID(ctx context.Context, transactionID string) (*models.PaymentRecord, error)
	LatestPendingMatch(ctx context.Context, phone string, amount int64) (*models.PaymentRecord, error)
	List(ctx context.Context, status models.PaymentStatus, limit int) ([]models.PaymentRecord, error)
}

// Ledger writes every payment to the authoritative primary store and mirrors
// it to the secondary store at most once, best effort. Mirror failures are
// logged and never returned. Reads always go to the primary store.
type Ledger struct {
	primary RecordStore
	mirror  RecordStore
}

// NewLedger creates a ledger; mirror may be nil.
func NewLedger(primary, mirror RecordStore) *Ledger {
	return &Ledger{primary: primary, mirror: mirror}
}

// OpenPending inserts the pending row for a new checkout attempt.
// The returned record is the primary row; its ID is the canonical payment id.
func (l *Ledger) OpenPending(ctx context.Context, fileID uint, phone string, amount int64) (*models.PaymentRecord, error) {
	record := &models.PaymentRecord{
		ProjectID:     fileID,
		PhoneNumber:   phone,
		Amount:        amount,
		PaymentStatus: models.PaymentStatusPending,
	}
	if err := l.primary.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("%w: %v", errdefs.ErrPersistence, err)
	}

	if l.mirror != nil {
		mirrored := &models.PaymentRecord{
			ProjectID:     fileID,
			PhoneNumber:   phone,
			Amount:        amount,
			PaymentStatus: models.PaymentStatusPending,
		}
		if err := l.mirror.Create(ctx, mirrored); err != nil {
			l.degraded("mirror insert failed", record, err)
		}
	}

	return record, nil
}

// RecordGatewayOutcome stores the gateway answer on the primary row and
// mirrors it onto the most recent pending secondary row with the same phone
// and amount.
func (l *Ledger) RecordGatewayOutcome(ctx context.Context, record *models.PaymentRecord, status models.PaymentStatus, transactionID string) error {
	if err := l.primary.UpdateResult(ctx, record.ID, status, transactionID); err != nil {
		return fmt.Errorf("%w: %v", errdefs.ErrPersistence, err)
	}
	record.PaymentStatus = status
	if transactionID != "" {
		ref := transactionID
		record.TransactionID = &ref
	}

	if l.mirror == nil {
		return nil
	}

	match, err := l.mirror.LatestPendingMatch(ctx, record.PhoneNumber, record.Amount)
	if err != nil {
		l.degraded("mirror match failed", record, err)
		return nil
	}
	if err := l.mirror.UpdateResult(ctx, match.ID, status, transactionID); err != nil {
		l.degraded("mirror update failed", record, err)
	}
	return nil
}

// Confirm applies an out-of-band confirmation for the payment carrying
// transactionID. A paid confirmation moves it to completed, an unpaid one to
// failed. It reports whether the primary row changed; completed rows never do.
func (l *Ledger) Confirm(ctx context.Context, transactionID string, paid bool) (*models.PaymentRecord, bool, error) {
	record, err := l.primary.FindByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, false, err
	}
	if record.PaymentStatus.IsTerminal() {
		return record, false, nil
	}

	status := models.PaymentStatusFailed
	if paid {
		status = models.PaymentStatusCompleted
	}
	if record.PaymentStatus == status {
		return record, false, nil
	}

	if err := l.primary.UpdateResult(ctx, record.ID, status, ""); err != nil {
		if errors.Is(err, errdefs.ErrNotFound) {
			// completed concurrently
			current, findErr := l.primary.FindByID(ctx, record.ID)
			if findErr != nil {
				return nil, false, findErr
			}
			return current, false, nil
		}
		return nil, false, fmt.Errorf("%w: %v", errdefs.ErrPersistence, err)
	}
	record.PaymentStatus = status

	if l.mirror != nil {
		mirrored, err := l.mirror.FindByTransactionID(ctx, transactionID)
		if err != nil {
			l.degraded("mirror lookup failed", record, err)
		} else if err := l.mirror.UpdateResult(ctx, mirrored.ID, status, ""); err != nil {
			l.degraded("mirror update failed", record, err)
		}
	}

	return record, true, nil
}

// FindByID reads a payment from the primary store
func (l *Ledger) FindByID(ctx context.Context, id uint) (*models.PaymentRecord, error) {
	return l.primary.FindByID(ctx, id)
}

// FindCompletedByReference reads the confirmed primary row for reference
func (l *Ledger) FindCompletedByReference(ctx context.Context, reference string) (*models.PaymentRecord, error) {
	return l.primary.FindCompletedByTransactionID(ctx, reference)
}

// List reads the primary ledger
func (l *Ledger) List(ctx context.Context, status models.PaymentStatus, limit int) ([]models.PaymentRecord, error) {
	return l.primary.List(ctx, status, limit)
}

func (l *Ledger) degraded(msg string, record *models.PaymentRecord, err error) {
	logging.L().Warn(msg,
		zap.String("store", l.mirror.Name()),
		zap.Uint("payment_id", record.ID),
		zap.String("phone_number", record.PhoneNumber),
		zap.Int64("amount", record.Amount),
		zap.Error(err),
	)
}
