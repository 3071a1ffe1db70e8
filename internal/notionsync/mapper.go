package notionsync

import (
	"strings"

	"github.com/dvloznov/amazon-ynab-sync/internal/reconcile"
	"github.com/jomei/notionapi"
)

// Property names of the orders database.
const (
	propOrderNumber = "Order Number"
	propOrderDate   = "Order Date"
	propAmount      = "Amount"
	propPayee       = "Payee"
	propItems       = "Items"
	propItemCount   = "Item Count"
)

// Notion rejects rich text content longer than this.
const maxRichTextLength = 2000

func richText(content string) []notionapi.RichText {
	if r := []rune(content); len(r) > maxRichTextLength {
		content = string(r[:maxRichTextLength])
	}
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{
				Content: content,
			},
		},
	}
}

// EnrichedToNotionProperties maps one enriched charge to a page in the
// orders database. Items holds every item name, one per line, without the
// memo length cut.
func EnrichedToNotionProperties(tx reconcile.EnrichedTransaction) notionapi.Properties {
	orderDate := notionapi.Date(tx.OrderDate)

	props := notionapi.Properties{
		propOrderNumber: notionapi.TitleProperty{
			Title: richText(tx.OrderNumber),
		},
		propOrderDate: notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: &orderDate,
			},
		},
		propAmount: notionapi.NumberProperty{
			Number: float64(tx.PriceInCents) / 100,
		},
		propItemCount: notionapi.NumberProperty{
			Number: float64(len(tx.ItemNames)),
		},
	}

	if tx.Payee != "" {
		props[propPayee] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: tx.Payee,
			},
		}
	}

	if len(tx.ItemNames) > 0 {
		props[propItems] = notionapi.RichTextProperty{
			RichText: richText(strings.Join(tx.ItemNames, "\n")),
		}
	}

	return props
}

// extractOrderNumber extracts the order number from a page's title.
// Returns empty string if not found.
func extractOrderNumber(page notionapi.Page) string {
	if prop, ok := page.Properties[propOrderNumber]; ok {
		if title, ok := prop.(*notionapi.TitleProperty); ok {
			if len(title.Title) > 0 {
				return title.Title[0].PlainText
			}
		}
	}
	return ""
}
