package services

import (
	"context"
	"testing"
	"time"

	"storefront-api/internal/database"
	"storefront-api/internal/errdefs"
	"storefront-api/internal/models"
	"storefront-api/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type confirmationFixture struct {
	svc      *ConfirmationService
	ledger   *database.Ledger
	listener *recordingListener
	record   *models.PaymentRecord
}

func setupConfirmation(t *testing.T) confirmationFixture {
	t.Helper()
	ctx := context.Background()

	ledger := database.NewLedger(
		database.NewPaymentStore(testutil.OpenPaymentsDB(t), "primary"),
		database.NewPaymentStore(testutil.OpenPaymentsDB(t), "secondary"),
	)
	record, err := ledger.OpenPending(ctx, 10, "254700000001", 1700)
	require.NoError(t, err)
	require.NoError(t, ledger.RecordGatewayOutcome(ctx, record, models.PaymentStatusSuccess, "ws_CO_123"))

	guard := NewMemoryReplayGuard(time.Hour, time.Hour)
	t.Cleanup(guard.Stop)

	listener := &recordingListener{}
	return confirmationFixture{
		svc:      NewConfirmationService(ledger, guard, listener),
		ledger:   ledger,
		listener: listener,
		record:   record,
	}
}

func paidCallback(reference string) *models.STKCallback {
	return &models.STKCallback{
		MerchantRequestID: "29115-34620561-1",
		CheckoutRequestID: reference,
		ResultCode:        0,
		ResultDesc:        "The service request is processed successfully.",
		CallbackMetadata: &models.STKCallbackMetadata{Item: []models.STKCallbackItem{
			{Name: "Amount", Value: 1700.0},
			{Name: "MpesaReceiptNumber", Value: "NLJ7RT61SV"},
		}},
	}
}

func TestConfirmation_PaidCompletesPayment(t *testing.T) {
	ctx := context.Background()
	f := setupConfirmation(t)

	outcome, err := f.svc.HandleCallback(ctx, paidCallback("ws_CO_123"))
	require.NoError(t, err)
	assert.True(t, outcome.Changed)
	assert.Equal(t, models.PaymentStatusCompleted, outcome.Record.PaymentStatus)

	f.svc.Wait()
	assert.Equal(t, 1, f.listener.Count())

	completed, err := f.ledger.FindCompletedByReference(ctx, "ws_CO_123")
	require.NoError(t, err)
	assert.Equal(t, f.record.ID, completed.ID)
}

func TestConfirmation_ReplayIgnored(t *testing.T) {
	ctx := context.Background()
	f := setupConfirmation(t)

	_, err := f.svc.HandleCallback(ctx, paidCallback("ws_CO_123"))
	require.NoError(t, err)

	outcome, err := f.svc.HandleCallback(ctx, paidCallback("ws_CO_123"))
	require.NoError(t, err)
	assert.True(t, outcome.Replayed)

	f.svc.Wait()
	assert.Equal(t, 1, f.listener.Count())
}

func TestConfirmation_LateFailureNeverDowngrades(t *testing.T) {
	ctx := context.Background()
	f := setupConfirmation(t)

	_, err := f.svc.HandleCallback(ctx, paidCallback("ws_CO_123"))
	require.NoError(t, err)

	failed := paidCallback("ws_CO_123")
	failed.ResultCode = 1032
	failed.CallbackMetadata = nil
	outcome, err := f.svc.HandleCallback(ctx, failed)
	require.NoError(t, err)
	assert.False(t, outcome.Changed)
	assert.Equal(t, models.PaymentStatusCompleted, outcome.Record.PaymentStatus)
}

func TestConfirmation_CancelledMarksFailed(t *testing.T) {
	ctx := context.Background()
	f := setupConfirmation(t)

	cancelled := &models.STKCallback{CheckoutRequestID: "ws_CO_123", ResultCode: 1032, ResultDesc: "Request cancelled by user"}
	outcome, err := f.svc.HandleCallback(ctx, cancelled)
	require.NoError(t, err)
	assert.True(t, outcome.Changed)
	assert.Equal(t, models.PaymentStatusFailed, outcome.Record.PaymentStatus)

	f.svc.Wait()
	assert.Zero(t, f.listener.Count())
}

func TestConfirmation_Errors(t *testing.T) {
	ctx := context.Background()
	f := setupConfirmation(t)

	_, err := f.svc.HandleCallback(ctx, &models.STKCallback{CheckoutRequestID: "  "})
	assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)

	_, err = f.svc.HandleCallback(ctx, paidCallback("ws_CO_unknown"))
	assert.ErrorIs(t, err, errdefs.ErrNotFound)
}

func TestConfirmation_CallbackBeforeReferenceIsRetried(t *testing.T) {
	ctx := context.Background()
	f := setupConfirmation(t)

	record, err := f.ledger.OpenPending(ctx, 10, "254700000002", 1700)
	require.NoError(t, err)

	_, err = f.svc.HandleCallback(ctx, paidCallback("ws_CO_456"))
	require.ErrorIs(t, err, errdefs.ErrNotFound)

	require.NoError(t, f.ledger.RecordGatewayOutcome(ctx, record, models.PaymentStatusSuccess, "ws_CO_456"))

	outcome, err := f.svc.HandleCallback(ctx, paidCallback("ws_CO_456"))
	require.NoError(t, err)
	assert.False(t, outcome.Replayed)
	assert.True(t, outcome.Changed)
	assert.Equal(t, models.PaymentStatusCompleted, outcome.Record.PaymentStatus)

	f.svc.Wait()
	assert.Equal(t, 1, f.listener.Count())
}

func TestConfirmation_CloseCancelsSlowListeners(t *testing.T) {
	ctx := context.Background()
	f := setupConfirmation(t)

	slow := &blockingListener{started: make(chan struct{})}
	svc := NewConfirmationService(f.ledger, nil, slow)

	_, err := svc.HandleCallback(ctx, paidCallback("ws_CO_123"))
	require.NoError(t, err)
	<-slow.started

	drainCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	svc.Close(drainCtx)

	assert.ErrorIs(t, slow.Err(), context.Canceled)
}
