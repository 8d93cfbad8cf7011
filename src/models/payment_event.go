package models

import "tixmart/src/types"

// PaymentEvent is the durable record of an applied provider transaction.
// The unique (provider, txn_id) index is what makes webhook application
// exactly-once: the insert either wins or hits the conflict and the
// notification is treated as already applied.
type PaymentEvent struct {
	ID       uint   `gorm:"primarykey" json:"id"`
	Provider string `gorm:"uniqueIndex:idx_provider_txn" json:"provider,omitempty"`
	TxnID    string `gorm:"uniqueIndex:idx_provider_txn" json:"txn_id,omitempty"`
	OrderID  uint   `json:"order_id,omitempty"`
	Status   string `json:"status,omitempty"`

	types.Timestamps
}
