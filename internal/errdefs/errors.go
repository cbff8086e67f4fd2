package errdefs

import "errors"

var (
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrNotFound              = errors.New("not found")
	ErrPermissionDenied      = errors.New("permission was denied")
	ErrPersistence           = errors.New("payment record could not be persisted")
	ErrGateway               = errors.New("payment gateway failure")
	ErrReconciliationTimeout = errors.New("payment not confirmed in time")
	ErrPaymentNotCompleted   = errors.New("payment is not completed")
	ErrFlowDismissed         = errors.New("checkout flow dismissed")
	ErrPurchaseMismatch      = errors.New("requested files do not match the payment")
)
