package domain

import "time"

// DebitCard is the persisted card entity. The primary account is always
// present in AssociatedAccountIDs at index 0; payments draw from the
// associated accounts in list order.
type DebitCard struct {
	ID                   string    `json:"id"`
	CardNumber           string    `json:"card_number"`
	CustomerID           string    `json:"customer_id"`
	PrimaryAccountID     string    `json:"primary_account_id"`
	AssociatedAccountIDs []string  `json:"associated_account_ids"`
	ExpirationDate       string    `json:"expiration_date"` // date only, "2006-01-02"
	CVV                  string    `json:"cvv"`
	Active               bool      `json:"active"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// CreateCardRequest is the payload to issue a new debit card.
// Card number, CVV and expiration are generated server-side.
type CreateCardRequest struct {
	CustomerID           string   `json:"customer_id"`
	PrimaryAccountID     string   `json:"primary_account_id"`
	AssociatedAccountIDs []string `json:"associated_account_ids,omitempty"`
}

// UpdateCardRequest carries the mutable card fields. Only the active
// flag can change; a customer_id differing from the stored card is
// rejected. Absent fields mean "no change".
type UpdateCardRequest struct {
	CustomerID string `json:"customer_id,omitempty"`
	Active     *bool  `json:"active,omitempty"`
}

// AccountAssociationRequest rewrites the set of accounts a card can
// draw from. The primary account always ends up at index 0.
type AccountAssociationRequest struct {
	DebitCardID          string   `json:"debit_card_id"`
	PrimaryAccountID     string   `json:"primary_account_id"`
	AssociatedAccountIDs []string `json:"associated_account_ids"`
	CustomerID           string   `json:"customer_id"`
}

// CardPaymentRequest is the payload to charge a debit card.
type CardPaymentRequest struct {
	DebitCardID string  `json:"debit_card_id"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
	CustomerID  string  `json:"customer_id"`
}
