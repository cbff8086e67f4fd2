package services

import (
	"testing"
	"time"

	"storefront-api/internal/errdefs"
	"storefront-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliveryService_Unlock(t *testing.T) {
	svc := NewDeliveryService(500 * time.Millisecond)
	record := completedRecord("TXN123")
	files := purchaseFiles()

	first, err := svc.Unlock(record, files)
	require.NoError(t, err)
	assert.Equal(t, "TXN123", first.TransactionID)
	require.Len(t, first.Files, 2)
	assert.Equal(t, files[0].FileURL, first.Files[0].URL)
	assert.Equal(t, int64(0), first.Files[0].OffsetMS)
	assert.Equal(t, int64(500), first.Files[1].OffsetMS)

	second, err := svc.Unlock(record, files)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, models.PaymentStatusCompleted, record.PaymentStatus)
}

func TestDeliveryService_RequiresCompleted(t *testing.T) {
	svc := NewDeliveryService(0)

	for _, status := range []models.PaymentStatus{
		models.PaymentStatusPending,
		models.PaymentStatusSuccess,
		models.PaymentStatusFailed,
	} {
		t.Run(string(status), func(t *testing.T) {
			record := completedRecord("TXN1")
			record.PaymentStatus = status
			_, err := svc.Unlock(record, purchaseFiles())
			assert.ErrorIs(t, err, errdefs.ErrPaymentNotCompleted)
		})
	}

	_, err := svc.Unlock(nil, nil)
	assert.ErrorIs(t, err, errdefs.ErrPaymentNotCompleted)
}
