package database

import (
	"context"
	"errors"
	"fmt"

	"storefront-api/internal/errdefs"
	"storefront-api/internal/models"

	"gorm.io/gorm"
)

// PaymentStore is one `payments` table in one store instance.
type PaymentStore struct {
	db   *gorm.DB
	name string
}

// NewPaymentStore wraps db; name is only used in logs.
func NewPaymentStore(db *gorm.DB, name string) *PaymentStore {
	return &PaymentStore{db: db, name: name}
}

func (s *PaymentStore) Name() string {
	return s.name
}

// Create inserts record and fills in its store-local ID
func (s *PaymentStore) Create(ctx context.Context, record *models.PaymentRecord) error {
	return s.db.WithContext(ctx).Create(record).Error
}

// UpdateResult sets status and, when non-empty, the transaction id of the row
// with the given id. Amount is never touched and a completed row is left as is.
func (s *PaymentStore) UpdateResult(ctx context.Context, id uint, status models.PaymentStatus, transactionID string) error {
	updates := map[string]interface{}{
		"payment_status": status,
	}
	if transactionID != "" {
		updates["transaction_id"] = transactionID
	}

	result := s.db.WithContext(ctx).Model(&models.PaymentRecord{}).
		Where("id = ? AND payment_status <> ?", id, models.PaymentStatusCompleted).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("payment %d in %s store: %w", id, s.name, errdefs.ErrNotFound)
	}
	return nil
}

// FindByID gets a payment by its store-local id
func (s *PaymentStore) FindByID(ctx context.Context, id uint) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		return nil, translate(err)
	}
	return &record, nil
}

// FindByTransactionID gets the payment carrying the gateway reference
func (s *PaymentStore) FindByTransactionID(ctx context.Context, transactionID string) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	err := s.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("created_at DESC").
		First(&record).Error
	if err != nil {
		return nil, translate(err)
	}
	return &record, nil
}

// FindCompletedByTransactionID returns errdefs.ErrNotFound until the payment
// carrying transactionID has been confirmed.
func (s *PaymentStore) FindCompletedByTransactionID(ctx context.Context, transactionID string) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	err := s.db.WithContext(ctx).
		Where("transaction_id = ? AND payment_status = ?", transactionID, models.PaymentStatusCompleted).
		First(&record).Error
	if err != nil {
		return nil, translate(err)
	}
	return &record, nil
}

// LatestPendingMatch finds the most recent pending row for phone and amount.
// This is a best-effort correlation: two concurrent pending attempts with the
// same phone and amount cannot be told apart.
func (s *PaymentStore) LatestPendingMatch(ctx context.Context, phone string, amount int64) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	err := s.db.WithContext(ctx).
		Where("phone_number = ? AND amount = ? AND payment_status = ?", phone, amount, models.PaymentStatusPending).
		Order("created_at DESC").
		Order("id DESC").
		Limit(1).
		Find(&record).Error
	if err != nil {
		return nil, err
	}
	if record.ID == 0 {
		return nil, errdefs.ErrNotFound
	}
	return &record, nil
}

// List returns the newest payments first, optionally filtered by status
func (s *PaymentStore) List(ctx context.Context, status models.PaymentStatus, limit int) ([]models.PaymentRecord, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if status != "" {
		query = query.Where("payment_status = ?", status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []models.PaymentRecord
	err := query.Find(&records).Error
	return records, err
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errdefs.ErrNotFound
	}
	return err
}
