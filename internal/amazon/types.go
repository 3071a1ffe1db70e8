// Package amazon turns rendered Amazon account pages into records: charges
// from the payments transactions page and item names from the order history.
package amazon

import "time"

// Transaction is one charge line on the transactions page.
type Transaction struct {
	OrderNumber string `json:"order_number"`
	// OrderDate is the date heading the line sits under, at midnight UTC.
	OrderDate time.Time `json:"order_date"`
	// PriceInCents is signed; charges are negative.
	PriceInCents int64  `json:"price_in_cents"`
	Payee        string `json:"payee"`
}

// Order is one card on the order-history page.
type Order struct {
	// OrderNumber is empty when the card has no recognisable order id.
	OrderNumber string   `json:"order_number"`
	ItemNames   []string `json:"item_names"`
}
