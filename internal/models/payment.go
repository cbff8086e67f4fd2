package models

import (
	"time"
)

// PaymentStatus is the lifecycle state of a payment attempt
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // created by checkout
	PaymentStatusSuccess   PaymentStatus = "success"   // gateway accepted the STK push
	PaymentStatusFailed    PaymentStatus = "failed"    // gateway or payer rejected
	PaymentStatusCompleted PaymentStatus = "completed" // confirmed by the processor, unlocks delivery
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusSuccess, PaymentStatusFailed, PaymentStatusCompleted:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition may happen
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted
}

// PaymentRecord is one ledger row per checkout attempt. The same shape is
// written to both the primary and the secondary store; only the primary ID is
// referenced outside its own store.
type PaymentRecord struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	ProjectID     uint          `json:"project_id" gorm:"column:project_id;not null;index"`
	PhoneNumber   string        `json:"phone_number" gorm:"not null;size:20;index:idx_payments_match,priority:1"`
	Amount        int64         `json:"amount" gorm:"not null;index:idx_payments_match,priority:2"`
	PaymentStatus PaymentStatus `json:"payment_status" gorm:"not null;size:20;default:'pending';index:idx_payments_match,priority:3"`
	TransactionID *string       `json:"transaction_id" gorm:"size:100;index"`
	CreatedAt     time.Time     `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt     time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (PaymentRecord) TableName() string {
	return "payments"
}

// Reference returns the gateway transaction id, or "" before the gateway answered.
func (p *PaymentRecord) Reference() string {
	if p.TransactionID == nil {
		return ""
	}
	return *p.TransactionID
}
