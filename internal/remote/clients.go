// Package remote implements the outbound service contracts: the wallet API
// (ledger pulls), the users API (customer lookup) and the pay API (payment
// requests). Transport or non-2xx failures surface as domain.ErrNetwork so
// callers can apply the write-abort / read-degrade policies uniformly.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"warungpay/backend/internal/domain"
)

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 5 * time.Second}
}

// WalletClient pulls raw ledger transactions for a wallet address.
type WalletClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewWalletClient(baseURL string) *WalletClient {
	return &WalletClient{baseURL: baseURL, httpClient: newHTTPClient()}
}

func (c *WalletClient) FetchTransactions(ctx context.Context, token, address string, limit int) ([]domain.RawTransaction, error) {
	endpoint := fmt.Sprintf("%s/v1/addresses/%s/transactions?limit=%s",
		c.baseURL, url.PathEscape(address), strconv.Itoa(limit))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build transactions request: %v", domain.ErrNetwork, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch transactions: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: wallet api status %d: %s", domain.ErrNetwork, resp.StatusCode, readErrorBody(resp))
	}

	var payload struct {
		Transactions []domain.RawTransaction `json:"transactions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode transactions: %v", domain.ErrNetwork, err)
	}
	return payload.Transactions, nil
}

// UsersClient resolves a customer's full identity by phone number or
// username.
type UsersClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewUsersClient(baseURL string) *UsersClient {
	return &UsersClient{baseURL: baseURL, httpClient: newHTTPClient()}
}

func (c *UsersClient) LookupCustomer(ctx context.Context, token, phoneOrUsername string) (domain.Customer, error) {
	endpoint := c.baseURL + "/v1/users/lookup?q=" + url.QueryEscape(phoneOrUsername)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Customer{}, fmt.Errorf("%w: build lookup request: %v", domain.ErrNetwork, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Customer{}, fmt.Errorf("%w: lookup customer: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return domain.Customer{}, fmt.Errorf("%w: %s", domain.ErrCustomerNotFound, phoneOrUsername)
	default:
		return domain.Customer{}, fmt.Errorf("%w: users api status %d: %s", domain.ErrNetwork, resp.StatusCode, readErrorBody(resp))
	}

	var customer domain.Customer
	if err := json.NewDecoder(resp.Body).Decode(&customer); err != nil {
		return domain.Customer{}, fmt.Errorf("%w: decode customer: %v", domain.ErrNetwork, err)
	}
	return customer, nil
}

// PayClient sends asynchronous payment requests; the eventual outcome
// arrives later on the push channel, correlated by purchase id.
type PayClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewPayClient(baseURL string) *PayClient {
	return &PayClient{baseURL: baseURL, httpClient: newHTTPClient()}
}

type paymentRequestPayload struct {
	CustomerPublicKey string `json:"customer_public_key"`
	CustomerPhone     string `json:"customer_phone"`
	MerchantPublicKey string `json:"merchant_public_key"`
	MerchantUsername  string `json:"merchant_username"`
	AmountCents       int64  `json:"amount_cents"`
	PurchaseID        string `json:"purchase_id"`
}

func (c *PayClient) SendPaymentRequest(ctx context.Context, token string, customer domain.Customer, merchant domain.Merchant, amountCents int64, purchaseID string) error {
	body, err := json.Marshal(paymentRequestPayload{
		CustomerPublicKey: customer.PublicKey,
		CustomerPhone:     customer.PhoneNumber,
		MerchantPublicKey: merchant.PublicKey,
		MerchantUsername:  merchant.Username,
		AmountCents:       amountCents,
		PurchaseID:        purchaseID,
	})
	if err != nil {
		return fmt.Errorf("%w: encode payment request: %v", domain.ErrNetwork, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payment-requests", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build payment request: %v", domain.ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: send payment request: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("%w: pay api status %d: %s", domain.ErrNetwork, resp.StatusCode, readErrorBody(resp))
	}
	return nil
}

func readErrorBody(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return string(body)
}
