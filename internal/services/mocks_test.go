package services

import (
	"context"
	"net/http"
	"sync"

	"storefront-api/internal/models"

	brevo "github.com/getbrevo/brevo-go/lib"
	"github.com/stretchr/testify/mock"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) InitiateSTKPush(ctx context.Context, req GatewayRequest) (*GatewayResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*GatewayResponse)
	return resp, args.Error(1)
}

type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendTransacEmail(ctx context.Context, email brevo.SendSmtpEmail) (brevo.CreateSmtpEmail, *http.Response, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(brevo.CreateSmtpEmail), nil, args.Error(1)
}

// recordingListener collects completed payments
type recordingListener struct {
	mu      sync.Mutex
	records []models.PaymentRecord
}

func (l *recordingListener) PaymentCompleted(ctx context.Context, record *models.PaymentRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, *record)
}

func (l *recordingListener) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// blockingListener holds until its context is cancelled
type blockingListener struct {
	started chan struct{}
	mu      sync.Mutex
	err     error
}

func (l *blockingListener) PaymentCompleted(ctx context.Context, record *models.PaymentRecord) {
	close(l.started)
	<-ctx.Done()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = ctx.Err()
}

func (l *blockingListener) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}
