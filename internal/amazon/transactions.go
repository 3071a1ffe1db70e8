package amazon

import (
	"context"
	"fmt"

	"github.com/dvloznov/amazon-ynab-sync/internal/logger"
	"github.com/dvloznov/amazon-ynab-sync/internal/markup"
)

// TransactionsURL is the payments page listing recent charges.
const TransactionsURL = "https://www.amazon.com/cpe/yourpayments/transactions"

// ParseTransactions extracts every charge line from the transactions page, in
// document order. Lines missing an order link, amount or payee are skipped
// with a warning. An unparseable date heading is an error, since silently
// dating charges wrong would corrupt the ledger.
func ParseTransactions(ctx context.Context, page string) ([]Transaction, error) {
	log := logger.FromContext(ctx)

	doc, err := markup.ParseString(page)
	if err != nil {
		return nil, fmt.Errorf("ParseTransactions: %w", err)
	}

	var txs []Transaction
	for i, heading := range doc.SelectAll(dateHeadingSel) {
		dateText, ok := headingDateRule(heading)
		if !ok {
			return nil, fmt.Errorf("ParseTransactions: date heading %d has no date text", i)
		}
		orderDate, err := ParseOrderDate(dateText)
		if err != nil {
			return nil, fmt.Errorf("ParseTransactions: date heading %d: %w", i, err)
		}

		items, ok := lineItemsRule(heading)
		if !ok {
			log.Warn().
				Str("order_date", dateText).
				Msg("Date heading has no following line-item group, skipping")
			continue
		}

		for _, item := range items {
			orderNumber, ok := orderNumberRule(item)
			if !ok {
				log.Warn().
					Str("order_date", dateText).
					Msg("Ignoring transaction with no order link")
				continue
			}

			amountText, ok := amountRule(item)
			if !ok {
				log.Warn().
					Str("order_number", orderNumber).
					Msg("Ignoring transaction with no amount")
				continue
			}
			cents, err := ParsePriceInCents(amountText)
			if err != nil {
				log.Warn().
					Err(err).
					Str("order_number", orderNumber).
					Msg("Ignoring transaction with unreadable amount")
				continue
			}

			payee, ok := payeeRule(item)
			if !ok {
				log.Warn().
					Str("order_number", orderNumber).
					Msg("Ignoring transaction with no payee information")
				continue
			}

			txs = append(txs, Transaction{
				OrderNumber:  orderNumber,
				OrderDate:    orderDate,
				PriceInCents: cents,
				Payee:        payee,
			})
		}
	}

	return txs, nil
}
