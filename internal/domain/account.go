package domain

import "time"

// Balance is the account-service view of an account's funds.
type Balance struct {
	AccountID     string  `json:"account_id"`
	AccountNumber string  `json:"account_number"`
	Balance       float64 `json:"balance"`
	Currency      string  `json:"currency"`
}

// Transaction is a ledger entry created by the transaction service for
// a debit card charge.
type Transaction struct {
	ID              string    `json:"id"`
	AccountID       string    `json:"account_id"`
	DebitCardID     string    `json:"debit_card_id"`
	CustomerID      string    `json:"customer_id"`
	Amount          float64   `json:"amount"`
	Description     string    `json:"description"`
	TransactionDate time.Time `json:"transaction_date"`
	Type            string    `json:"type"`
}

// CardTransactionRequest is the payload sent to the transaction service
// after a payment lands on a specific account.
type CardTransactionRequest struct {
	DebitCardID string  `json:"debit_card_id"`
	AccountID   string  `json:"account_id"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	CustomerID  string  `json:"customer_id"`
}
