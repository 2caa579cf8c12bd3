package cryptopay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrDisabled is returned when no API token is configured.
	ErrDisabled = errors.New("crypto pay disabled")
	// ErrInvoiceNotFound is returned when the gateway knows nothing about
	// the requested invoice.
	ErrInvoiceNotFound = errors.New("invoice not found")
)

// Client is a Crypto Pay API client.
type Client struct {
	baseURL        string
	token          string
	fiat           string
	acceptedAssets string
	httpClient     *http.Client
}

// NewClient creates a Crypto Pay client. An empty token leaves the client in
// disabled state, which routes all purchases to the wallet-only flow.
func NewClient(baseURL, token, fiat, acceptedAssets string) *Client {
	return &Client{
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		token:          strings.TrimSpace(token),
		fiat:           fiat,
		acceptedAssets: strings.TrimSpace(acceptedAssets),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Enabled reports whether an API token is configured.
func (c *Client) Enabled() bool {
	return c.token != ""
}

func (c *Client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}

	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Crypto-Pay-API-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}

	if resp.StatusCode >= 400 || !envelope.OK || envelope.Result == nil {
		if envelope.Error != nil {
			return nil, fmt.Errorf("%s: API error %d %s", method, envelope.Error.Code, envelope.Error.Name)
		}
		return nil, fmt.Errorf("%s: API error %d", method, resp.StatusCode)
	}

	return envelope.Result, nil
}

func parseInvoice(raw rawInvoice) (*Invoice, error) {
	id := raw.InvoiceID
	if id == 0 {
		id = raw.ID
	}
	if id <= 0 {
		return nil, fmt.Errorf("invalid invoice id")
	}

	status := raw.Status
	if status == "" {
		status = "unknown"
	}

	payURL := ""
	for _, candidate := range []string{raw.PayURL, raw.BotInvoiceURL, raw.MiniAppURL, raw.WebAppInvoiceURL} {
		if strings.HasPrefix(candidate, "http://") || strings.HasPrefix(candidate, "https://") {
			payURL = candidate
			break
		}
	}
	if payURL == "" {
		return nil, fmt.Errorf("invoice has no pay url")
	}

	return &Invoice{InvoiceID: id, Status: status, PayURL: payURL}, nil
}

// CreateInvoice creates a fiat-denominated invoice for a whole-USD amount.
func (c *Client) CreateInvoice(ctx context.Context, amountUSD int, description, payload string, expiresIn time.Duration) (*Invoice, error) {
	if amountUSD <= 0 {
		return nil, fmt.Errorf("invalid invoice amount: %d", amountUSD)
	}

	params := map[string]any{
		"currency_type": "fiat",
		"fiat":          c.fiat,
		"amount":        fmt.Sprintf("%d.00", amountUSD),
		"description":   description,
		"payload":       payload,
	}
	if c.acceptedAssets != "" {
		params["accepted_assets"] = c.acceptedAssets
	}
	if expiresIn > 0 {
		params["expires_in"] = int(expiresIn.Seconds())
	}

	result, err := c.call(ctx, "createInvoice", params)
	if err != nil {
		return nil, err
	}

	var raw rawInvoice
	if err := json.Unmarshal(result, &raw); err != nil {
		return nil, fmt.Errorf("decode invoice: %w", err)
	}
	return parseInvoice(raw)
}

// GetInvoice polls the gateway for a single invoice by id.
func (c *Client) GetInvoice(ctx context.Context, invoiceID int64) (*Invoice, error) {
	if invoiceID <= 0 {
		return nil, ErrInvoiceNotFound
	}

	result, err := c.call(ctx, "getInvoices", map[string]any{
		"invoice_ids": strconv.FormatInt(invoiceID, 10),
	})
	if err != nil {
		return nil, err
	}

	var list invoiceList
	if err := json.Unmarshal(result, &list); err != nil {
		return nil, fmt.Errorf("decode invoices: %w", err)
	}
	if len(list.Items) == 0 {
		return nil, ErrInvoiceNotFound
	}

	for _, item := range list.Items {
		invoice, err := parseInvoice(item)
		if err == nil && invoice.InvoiceID == invoiceID {
			return invoice, nil
		}
	}
	return parseInvoice(list.Items[0])
}
