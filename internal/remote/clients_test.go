package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"warungpay/backend/internal/domain"
)

func TestWalletClientFetchTransactions(t *testing.T) {
	var gotAuth, gotPath, gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotLimit = r.URL.Query().Get("limit")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"transactions":[
			{"type":"SENT","amount_sats":10000,"counterparty":"bob","block_height":800000},
			{"type":"RECEIVED","amount_sats":5000,"block_height":800001}
		]}`))
	}))
	defer srv.Close()

	client := NewWalletClient(srv.URL)
	txs, err := client.FetchTransactions(context.Background(), "tok", "bc1qmerchant", 25)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotPath != "/v1/addresses/bc1qmerchant/transactions" || gotLimit != "25" {
		t.Fatalf("unexpected request: path=%s limit=%s", gotPath, gotLimit)
	}
	if len(txs) != 2 || txs[0].Direction != domain.TxSent || txs[1].BlockHeight != 800001 {
		t.Fatalf("unexpected transactions: %+v", txs)
	}
}

func TestWalletClientNon200IsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "ledger unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewWalletClient(srv.URL)
	_, err := client.FetchTransactions(context.Background(), "tok", "bc1q", 50)
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	if !strings.Contains(err.Error(), "ledger unavailable") {
		t.Fatalf("error should carry the response body, got %v", err)
	}
}

func TestWalletClientUnreachableHost(t *testing.T) {
	client := NewWalletClient("http://127.0.0.1:1")
	if _, err := client.FetchTransactions(context.Background(), "tok", "bc1q", 50); !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestUsersClientLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "+62 811" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"phone_number":"+62 811","username":"budi","public_key":"pk-budi"}`))
	}))
	defer srv.Close()

	client := NewUsersClient(srv.URL)
	customer, err := client.LookupCustomer(context.Background(), "tok", "+62 811")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if customer.Username != "budi" || customer.PublicKey != "pk-budi" {
		t.Fatalf("unexpected customer: %+v", customer)
	}
}

func TestUsersClient404IsCustomerNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := NewUsersClient(srv.URL)
	_, err := client.LookupCustomer(context.Background(), "tok", "ghost")
	if !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("expected customer not found, got %v", err)
	}
}

func TestUsersClient500IsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewUsersClient(srv.URL)
	if _, err := client.LookupCustomer(context.Background(), "tok", "budi"); !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestPayClientSendPaymentRequest(t *testing.T) {
	var got paymentRequestPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/payment-requests" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := NewPayClient(srv.URL)
	customer := domain.Customer{PhoneNumber: "+62 811", PublicKey: "pk-budi"}
	merchant := domain.Merchant{Username: "warung", PublicKey: "pk-merch"}
	if err := client.SendPaymentRequest(context.Background(), "tok", customer, merchant, 200, "ext-1"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got.AmountCents != 200 || got.PurchaseID != "ext-1" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if got.CustomerPublicKey != "pk-budi" || got.MerchantPublicKey != "pk-merch" {
		t.Fatalf("payload missing identities: %+v", got)
	}
}

func TestPayClientRejectionIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "insufficient funds", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := NewPayClient(srv.URL)
	err := client.SendPaymentRequest(context.Background(), "tok",
		domain.Customer{}, domain.Merchant{}, 100, "ext-2")
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	if !strings.Contains(err.Error(), "insufficient funds") {
		t.Fatalf("error should carry the response body, got %v", err)
	}
}
