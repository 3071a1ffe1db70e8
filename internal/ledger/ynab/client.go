// Package ynab implements ledger.Service over the YNAB REST API.
package ynab

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dvloznov/amazon-ynab-sync/internal/ledger"
	"github.com/dvloznov/amazon-ynab-sync/internal/logger"
	"github.com/go-resty/resty/v2"
)

const DefaultBaseURL = "https://api.ynab.com/v1"

// Config holds connection settings for the YNAB API.
type Config struct {
	BaseURL       string
	AccessToken   string
	Timeout       time.Duration
	RetryCount    int
	RetryWaitTime time.Duration
}

// Client talks to YNAB. It is safe for concurrent use.
type Client struct {
	http *resty.Client
}

// New creates a YNAB client. Requests are retried on transport errors,
// rate limiting and 5xx responses.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryWaitTime == 0 {
		cfg.RetryWaitTime = 500 * time.Millisecond
	}

	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.AccessToken).
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWaitTime).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			if r == nil {
				return false
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})

	return &Client{http: rc}
}

// APIError is an error body returned by YNAB.
type APIError struct {
	StatusCode int
	ID         string `json:"id"`
	Name       string `json:"name"`
	Detail     string `json:"detail"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("ynab: %d %s: %s", e.StatusCode, e.Name, e.Detail)
	}
	return fmt.Sprintf("ynab: %d %s", e.StatusCode, e.Name)
}

type errorEnvelope struct {
	Error APIError `json:"error"`
}

type budgetSummary struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	LastModifiedOn *time.Time `json:"last_modified_on"`
}

type budgetsResponse struct {
	Data struct {
		Budgets []budgetSummary `json:"budgets"`
	} `json:"data"`
}

type transactionDetail struct {
	ID        string  `json:"id"`
	Date      string  `json:"date"`
	Amount    int64   `json:"amount"`
	Memo      *string `json:"memo"`
	PayeeName *string `json:"payee_name"`
	Deleted   bool    `json:"deleted"`
}

type transactionsResponse struct {
	Data struct {
		Transactions    []transactionDetail `json:"transactions"`
		ServerKnowledge int64               `json:"server_knowledge"`
	} `json:"data"`
}

type memoUpdate struct {
	ID   string `json:"id"`
	Memo string `json:"memo"`
}

type updateRequest struct {
	Transactions []memoUpdate `json:"transactions"`
}

type updateResponse struct {
	Data struct {
		TransactionIDs []string `json:"transaction_ids"`
	} `json:"data"`
}

// ListBudgets implements ledger.Service.
func (c *Client) ListBudgets(ctx context.Context) ([]ledger.Budget, error) {
	var out budgetsResponse
	var apiErr errorEnvelope

	res, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&apiErr).
		Get("/budgets")
	if err := check("ListBudgets", res, err, &apiErr); err != nil {
		return nil, err
	}

	budgets := make([]ledger.Budget, 0, len(out.Data.Budgets))
	for _, b := range out.Data.Budgets {
		budgets = append(budgets, ledger.Budget{ID: b.ID, Name: b.Name, LastModifiedOn: b.LastModifiedOn})
	}
	return budgets, nil
}

// ListUncategorizedEntries implements ledger.Service. Deleted entries are dropped.
func (c *Client) ListUncategorizedEntries(ctx context.Context, budgetID string) ([]ledger.Entry, error) {
	var out transactionsResponse
	var apiErr errorEnvelope

	res, err := c.http.R().
		SetContext(ctx).
		SetPathParam("budget_id", budgetID).
		SetQueryParam("type", "uncategorized").
		SetResult(&out).
		SetError(&apiErr).
		Get("/budgets/{budget_id}/transactions")
	if err := check("ListUncategorizedEntries", res, err, &apiErr); err != nil {
		return nil, err
	}

	entries := make([]ledger.Entry, 0, len(out.Data.Transactions))
	for _, t := range out.Data.Transactions {
		if t.Deleted {
			continue
		}
		entries = append(entries, ledger.Entry{
			ID:               t.ID,
			Date:             t.Date,
			AmountMilliunits: t.Amount,
			PayeeName:        deref(t.PayeeName),
			Memo:             deref(t.Memo),
		})
	}
	return entries, nil
}

// UpdateEntries implements ledger.Service. Only the memo of each entry is sent.
func (c *Client) UpdateEntries(ctx context.Context, budgetID string, entries []ledger.Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	body := updateRequest{Transactions: make([]memoUpdate, 0, len(entries))}
	for _, e := range entries {
		body.Transactions = append(body.Transactions, memoUpdate{ID: e.ID, Memo: e.Memo})
	}

	var out updateResponse
	var apiErr errorEnvelope

	res, err := c.http.R().
		SetContext(ctx).
		SetPathParam("budget_id", budgetID).
		SetBody(body).
		SetResult(&out).
		SetError(&apiErr).
		Patch("/budgets/{budget_id}/transactions")
	if err := check("UpdateEntries", res, err, &apiErr); err != nil {
		return 0, err
	}

	log := logger.FromContext(ctx)
	log.Debug().
		Str("budget_id", budgetID).
		Int("requested", len(entries)).
		Int("saved", len(out.Data.TransactionIDs)).
		Msg("YNAB memo update acknowledged")

	return len(out.Data.TransactionIDs), nil
}

func check(op string, res *resty.Response, err error, apiErr *errorEnvelope) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.IsError() {
		e := apiErr.Error
		e.StatusCode = res.StatusCode()
		if e.Name == "" {
			e.Name = http.StatusText(res.StatusCode())
		}
		return fmt.Errorf("%s: %w", op, &e)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ ledger.Service = (*Client)(nil)
