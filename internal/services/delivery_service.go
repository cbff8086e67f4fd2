package services

import (
	"time"

	"storefront-api/internal/errdefs"
	"storefront-api/internal/models"
)

// DeliveredFile is one download exposed to the payer. Offset is how long after
// the first file this one should be opened.
type DeliveredFile struct {
	FileID   uint            `json:"file_id"`
	Name     string          `json:"name"`
	Type     models.FileType `json:"type"`
	URL      string          `json:"file_url"`
	Offset   time.Duration   `json:"-"`
	OffsetMS int64           `json:"offset_ms"`
}

// Delivery is the unlocked file set of a confirmed payment
type Delivery struct {
	PaymentID     uint            `json:"payment_id"`
	TransactionID string          `json:"transaction_id"`
	Files         []DeliveredFile `json:"files"`
}

// DeliveryService exposes purchased file URLs. The only gate is the payment
// status: a completed record unlocks, anything else does not.
type DeliveryService struct {
	stagger time.Duration
}

// NewDeliveryService creates a delivery service opening files stagger apart
func NewDeliveryService(stagger time.Duration) *DeliveryService {
	return &DeliveryService{stagger: stagger}
}

// Stagger returns the delay between two consecutive files
func (s *DeliveryService) Stagger() time.Duration {
	return s.stagger
}

// Unlock builds the delivery for record. It has no side effects and may be
// called any number of times.
func (s *DeliveryService) Unlock(record *models.PaymentRecord, files []models.ProjectFile) (*Delivery, error) {
	if record == nil || record.PaymentStatus != models.PaymentStatusCompleted {
		return nil, errdefs.ErrPaymentNotCompleted
	}

	delivery := &Delivery{
		PaymentID:     record.ID,
		TransactionID: record.Reference(),
		Files:         make([]DeliveredFile, 0, len(files)),
	}
	for i, f := range files {
		offset := time.Duration(i) * s.stagger
		delivery.Files = append(delivery.Files, DeliveredFile{
			FileID:   f.ID,
			Name:     f.Name,
			Type:     f.Type,
			URL:      f.FileURL,
			Offset:   offset,
			OffsetMS: offset.Milliseconds(),
		})
	}
	return delivery, nil
}
