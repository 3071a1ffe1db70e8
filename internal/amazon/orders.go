package amazon

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/dvloznov/amazon-ynab-sync/internal/logger"
	"github.com/dvloznov/amazon-ynab-sync/internal/markup"
)

const (
	// OrderHistoryURL is the first page of the order history.
	OrderHistoryURL = "https://www.amazon.com/gp/css/order-history"
	// OrderPageSize is how many order cards one order-history page shows.
	OrderPageSize = 10
)

// OrderHistoryPageURL addresses the order-history page starting at the given
// zero-based order offset.
func OrderHistoryPageURL(startIndex int) string {
	q := url.Values{}
	q.Set("ie", "UTF8")
	q.Set("startIndex", strconv.Itoa(startIndex))
	return OrderHistoryURL + "?" + q.Encode()
}

// OrderPageOffsets lists the start offsets needed to cover orderCount orders.
// At least one page is always visited.
func OrderPageOffsets(orderCount int) []int {
	pages := (orderCount + OrderPageSize - 1) / OrderPageSize
	if pages < 1 {
		pages = 1
	}
	offsets := make([]int, pages)
	for i := range offsets {
		offsets[i] = i * OrderPageSize
	}
	return offsets
}

// ParseOrders extracts every order card on an order-history page, in document
// order. A card without an order id is kept with an empty order number.
func ParseOrders(ctx context.Context, page string) ([]Order, error) {
	log := logger.FromContext(ctx)

	doc, err := markup.ParseString(page)
	if err != nil {
		return nil, fmt.Errorf("ParseOrders: %w", err)
	}

	cards := doc.SelectAll(orderCardSel)
	orders := make([]Order, 0, len(cards))
	for i, card := range cards {
		orderNumber, ok := cardOrderNumberRule(card)
		if !ok {
			log.Warn().Int("card_index", i).Msg("Order card has no order number")
		}
		orders = append(orders, Order{
			OrderNumber: orderNumber,
			ItemNames:   itemNamesRule(card),
		})
	}

	return orders, nil
}
