package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront-api/internal/errdefs"
	"storefront-api/internal/models"
	"storefront-api/pkg/logging"

	"go.uber.org/zap"
)

// PollState is the state of one checkout flow as the payer sees it
type PollState string

const (
	PollStateIdle       PollState = "idle"
	PollStateProcessing PollState = "processing" // approve the prompt on your phone
	PollStateChecking   PollState = "checking"   // waiting for confirmation
	PollStateSuccess    PollState = "success"    // files delivered
	PollStateError      PollState = "error"
)

// CompletionReader finds a confirmed payment by gateway reference. It returns
// errdefs.ErrNotFound while the payment is not completed.
type CompletionReader interface {
	FindCompletedByReference(ctx context.Context, reference string) (*models.PaymentRecord, error)
}

// FileLauncher hands one unlocked file to the payer
type FileLauncher interface {
	Launch(ctx context.Context, file DeliveredFile) error
}

// FileResolver derives the files a confirmed payment paid for
type FileResolver func(ctx context.Context, record *models.PaymentRecord) ([]models.ProjectFile, error)

// PollerConfig bounds the wait for confirmation
type PollerConfig struct {
	Interval     time.Duration
	MaxAttempts  int
	DismissDelay time.Duration
}

// ReconciliationPoller drives one checkout flow:
// idle -> processing -> checking -> success | error.
// Reads are strictly serial: the next read starts one interval after the
// previous one returned. Use one poller per flow.
type ReconciliationPoller struct {
	reader   CompletionReader
	delivery *DeliveryService
	launcher FileLauncher
	resolve  FileResolver
	clock    Clock
	cfg      PollerConfig

	mu       sync.Mutex
	state    PollState
	attempts int
	onChange func(PollState)
}

// NewReconciliationPoller creates an idle poller
func NewReconciliationPoller(reader CompletionReader, delivery *DeliveryService, clock Clock, cfg PollerConfig) *ReconciliationPoller {
	if clock == nil {
		clock = RealClock
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 30
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	return &ReconciliationPoller{
		reader:   reader,
		delivery: delivery,
		clock:    clock,
		cfg:      cfg,
		state:    PollStateIdle,
	}
}

// WithLauncher makes the poller open every delivered file itself, stagger
// apart, and hold the success state for DismissDelay afterwards.
func (p *ReconciliationPoller) WithLauncher(l FileLauncher) *ReconciliationPoller {
	p.launcher = l
	return p
}

// WithFileResolver makes the poller derive the delivered files from the
// completed record instead of the files passed to Watch. A resolver error
// ends the flow in the error state.
func (p *ReconciliationPoller) WithFileResolver(r FileResolver) *ReconciliationPoller {
	p.resolve = r
	return p
}

// OnStateChange registers fn to be called on every transition
func (p *ReconciliationPoller) OnStateChange(fn func(PollState)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = fn
}

func (p *ReconciliationPoller) State() PollState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Attempts returns how many reads the last Watch issued
func (p *ReconciliationPoller) Attempts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts
}

// Run initiates checkout and, once a reference exists, watches for it.
// A checkout error ends the flow in the error state without polling.
func (p *ReconciliationPoller) Run(ctx context.Context, initiate func(ctx context.Context) (*CheckoutResult, error), files []models.ProjectFile) (*Delivery, error) {
	p.setState(PollStateProcessing)

	result, err := initiate(ctx)
	if err != nil {
		p.setState(PollStateError)
		return nil, err
	}
	if result == nil || result.Reference == "" {
		p.setState(PollStateError)
		return nil, fmt.Errorf("%w: checkout returned no reference", errdefs.ErrGateway)
	}

	return p.Watch(ctx, result.Reference, files)
}

// Watch polls for the completed payment carrying reference. It gives up with
// errdefs.ErrReconciliationTimeout after MaxAttempts reads, i.e. after
// MaxAttempts x Interval. Cancelling ctx dismisses the flow: polling stops,
// the payment record is left untouched and may still complete later.
func (p *ReconciliationPoller) Watch(ctx context.Context, reference string, files []models.ProjectFile) (*Delivery, error) {
	p.setState(PollStateChecking)
	p.mu.Lock()
	p.attempts = 0
	p.mu.Unlock()

	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		if err := p.wait(ctx, p.cfg.Interval); err != nil {
			p.setState(PollStateIdle)
			return nil, fmt.Errorf("%w: %v", errdefs.ErrFlowDismissed, err)
		}

		p.mu.Lock()
		p.attempts = attempt
		p.mu.Unlock()

		record, err := p.reader.FindCompletedByReference(ctx, reference)
		if err == nil {
			return p.deliver(ctx, record, files)
		}
		if !errors.Is(err, errdefs.ErrNotFound) {
			logging.L().Warn("reconciliation read failed",
				zap.String("reference", reference), zap.Int("attempt", attempt), zap.Error(err))
		}
	}

	p.setState(PollStateError)
	logging.Infof("Payment not confirmed after %d attempts - reference: %s", p.cfg.MaxAttempts, reference)
	return nil, errdefs.ErrReconciliationTimeout
}

func (p *ReconciliationPoller) deliver(ctx context.Context, record *models.PaymentRecord, files []models.ProjectFile) (*Delivery, error) {
	if p.resolve != nil {
		resolved, err := p.resolve(ctx, record)
		if err != nil {
			p.setState(PollStateError)
			return nil, err
		}
		files = resolved
	}

	delivery, err := p.delivery.Unlock(record, files)
	if err != nil {
		p.setState(PollStateError)
		return nil, err
	}
	p.setState(PollStateSuccess)

	if p.launcher == nil {
		return delivery, nil
	}

	for i, f := range delivery.Files {
		if i > 0 {
			if err := p.wait(ctx, p.delivery.Stagger()); err != nil {
				return delivery, nil
			}
		}
		if err := p.launcher.Launch(ctx, f); err != nil {
			logging.Errorf("Failed to deliver file - payment_id: %d, file_id: %d, error: %v", delivery.PaymentID, f.FileID, err)
		}
	}

	_ = p.wait(ctx, p.cfg.DismissDelay)
	return delivery, nil
}

// wait blocks for d on the poller clock, or until ctx is done
func (p *ReconciliationPoller) wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.clock.After(d):
		return nil
	}
}

func (p *ReconciliationPoller) setState(s PollState) {
	p.mu.Lock()
	p.state = s
	fn := p.onChange
	p.mu.Unlock()

	if fn != nil {
		fn(s)
	}
}
