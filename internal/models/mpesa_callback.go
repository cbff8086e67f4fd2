package models

import "github.com/spf13/cast"

// STKCallbackWrapper is the outer envelope the processor POSTs once the payer
// approved or rejected the STK prompt.
type STKCallbackWrapper struct {
	Body struct {
		StkCallback STKCallback `json:"stkCallback"`
	} `json:"Body"`
}

// STKCallback carries the outcome of one STK push
type STKCallback struct {
	MerchantRequestID string               `json:"MerchantRequestID"`
	CheckoutRequestID string               `json:"CheckoutRequestID"` // equals the reference returned at checkout
	ResultCode        int                  `json:"ResultCode"`        // 0 means the payer paid
	ResultDesc        string               `json:"ResultDesc"`
	CallbackMetadata  *STKCallbackMetadata `json:"CallbackMetadata,omitempty"`
}

// STKCallbackMetadata holds the name/value items reported on success
type STKCallbackMetadata struct {
	Item []STKCallbackItem `json:"Item"`
}

type STKCallbackItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value,omitempty"`
}

// Succeeded reports whether the payer completed the charge
func (c *STKCallback) Succeeded() bool {
	return c.ResultCode == 0
}

// ReceiptNumber returns the M-Pesa receipt number, if reported
func (c *STKCallback) ReceiptNumber() string {
	return cast.ToString(c.metadata("MpesaReceiptNumber"))
}

// PaidAmount returns the amount reported by the processor, or 0
func (c *STKCallback) PaidAmount() int64 {
	return cast.ToInt64(c.metadata("Amount"))
}

func (c *STKCallback) metadata(name string) interface{} {
	if c.CallbackMetadata == nil {
		return nil
	}
	for _, item := range c.CallbackMetadata.Item {
		if item.Name == name {
			return item.Value
		}
	}
	return nil
}

// STKCallbackAck is the body the processor expects back
type STKCallbackAck struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}
