package domain

import "time"

// Movement is a card transaction enriched with the display number of
// the account it hit. The account number is resolved per movement from
// the account service, it is not stored on the transaction.
type Movement struct {
	TransactionID   string    `json:"transaction_id"`
	TransactionType string    `json:"transaction_type"`
	TransactionDate time.Time `json:"transaction_date"`
	Description     string    `json:"description"`
	Amount          float64   `json:"amount"`
	AccountNumber   string    `json:"account_number"`
}

// MovementReport is the aggregated recent-activity view of a card.
// Movements keep the order the transaction service returned them in.
type MovementReport struct {
	CardID     string     `json:"card_id"`
	CardNumber string     `json:"card_number"`
	CardType   string     `json:"card_type"`
	Movements  []Movement `json:"movements"`
}

// PaymentMetrics is the snapshot returned by GET /v1/metrics/payments.
type PaymentMetrics struct {
	TotalPayments       int64   `json:"total_payments"`
	Approved            int64   `json:"approved"`
	InsufficientFunds   int64   `json:"insufficient_funds"`
	Unavailable         int64   `json:"unavailable"`
	ApprovalRate        float64 `json:"approval_rate"`
	AccountCacheHitRate float64 `json:"account_cache_hit_rate"`
	Period              string  `json:"period"`
}
