package amazon

import (
	"strings"

	"github.com/dvloznov/amazon-ynab-sync/internal/markup"
)

// Every positional assumption about Amazon's markup lives in this file, one
// rule per field, so a layout change is a one-place fix.

var (
	dateHeadingSel  = markup.MustCompile(".apx-transaction-date-container")
	headingDateSel  = markup.MustCompile("span")
	lineItemSel     = markup.MustCompile(".apx-transactions-line-item-component-container")
	orderLinkSel    = markup.MustCompile("a")
	amountSel       = markup.MustCompile(".a-text-right span")
	lineItemSpanSel = markup.MustCompile("span")

	orderCardSel    = markup.MustCompile(".order-card")
	cardOrderIDSel  = markup.MustCompile(".yohtmlc-order-id span:nth-child(2)")
	productTitleSel = markup.MustCompile(".yohtmlc-product-title")
)

const (
	orderNumberPrefix = "Order #"

	// Line item spans are laid out as: payment method, amount, payee (or a
	// "Pending" status), then anything else.
	payeeSpanIndex = 2
)

// headingDateRule reads the date text of a date heading.
// Assumes the first span under the heading holds the whole date.
func headingDateRule(heading markup.Node) (string, bool) {
	span, ok := heading.First(headingDateSel)
	if !ok {
		return "", false
	}
	return span.Text(), true
}

// lineItemsRule finds the charge lines belonging to a date heading.
// Assumes they sit inside the heading's next element sibling.
func lineItemsRule(heading markup.Node) ([]markup.Node, bool) {
	group, ok := heading.NextSibling()
	if !ok {
		return nil, false
	}
	return group.SelectAll(lineItemSel), true
}

// orderNumberRule reads the order number of a charge line.
// Assumes the first link's text is "Order #<number>".
func orderNumberRule(item markup.Node) (string, bool) {
	link, ok := item.First(orderLinkSel)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(strings.Replace(link.Text(), orderNumberPrefix, "", 1)), true
}

// amountRule reads the raw amount text of a charge line, e.g. "-$10.11".
// Assumes the first span inside the right-aligned column is the amount.
func amountRule(item markup.Node) (string, bool) {
	span, ok := item.First(amountSel)
	if !ok {
		return "", false
	}
	return span.Text(), true
}

// payeeRule reads the payee of a charge line.
// Assumes the third span of the line holds it; lines without one (gift card
// use outside Amazon, for instance) report false.
func payeeRule(item markup.Node) (string, bool) {
	span, ok := item.Nth(lineItemSpanSel, payeeSpanIndex)
	if !ok {
		return "", false
	}
	return span.Text(), true
}

// cardOrderNumberRule reads the order number of an order card.
// Assumes the order-id block is "<span>Order #</span><span>NUMBER</span>".
func cardOrderNumberRule(card markup.Node) (string, bool) {
	span, ok := card.First(cardOrderIDSel)
	if !ok {
		return "", false
	}
	return span.Text(), true
}

// itemNamesRule reads every product title on an order card in page order.
func itemNamesRule(card markup.Node) []string {
	titles := card.SelectAll(productTitleSel)
	names := make([]string, 0, len(titles))
	for _, t := range titles {
		names = append(names, t.Text())
	}
	return names
}
