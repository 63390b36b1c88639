// Package httpapi is the HTTP boundary of the dashboard core. Every error a
// handler surfaces is a user-facing notification; none of them terminate the
// process.
package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"warungpay/backend/internal/domain"
	"warungpay/backend/internal/service"
	"warungpay/backend/internal/wallet"
)

type API struct {
	sessions      *service.Sessions
	wallet        *wallet.Service
	verifier      *Verifier
	allowedOrigin string
}

func New(sessions *service.Sessions, walletSvc *wallet.Service, verifier *Verifier, allowedOrigin string) *API {
	return &API{
		sessions:      sessions,
		wallet:        walletSvc,
		verifier:      verifier,
		allowedOrigin: allowedOrigin,
	}
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)

	mux.HandleFunc("/api/v1/inventory", a.requireAuth(a.handleInventory))
	mux.HandleFunc("/api/v1/inventory/low-stock", a.requireAuth(a.handleLowStock))
	mux.HandleFunc("/api/v1/inventory/", a.requireAuth(a.handleInventoryActions))

	mux.HandleFunc("/api/v1/cart", a.requireAuth(a.handleCart))
	mux.HandleFunc("/api/v1/cart/items", a.requireAuth(a.handleCartAdd))
	mux.HandleFunc("/api/v1/cart/items/", a.requireAuth(a.handleCartAdjust))
	mux.HandleFunc("/api/v1/cart/clear", a.requireAuth(a.handleCartClear))

	mux.HandleFunc("/api/v1/checkout", a.requireAuth(a.handleCheckout))
	mux.HandleFunc("/api/v1/purchases", a.requireAuth(a.handlePurchases))
	mux.HandleFunc("/api/v1/purchases/", a.requireAuth(a.handlePurchaseActions))

	mux.HandleFunc("/api/v1/wallet/transactions", a.requireAuth(a.handleWalletTransactions))

	return a.withMiddleware(mux)
}

func (a *API) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}

		token := strings.TrimSpace(authorization[len("Bearer "):])
		merchant, err := a.verifier.Parse(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}

		ctx := service.WithMerchant(r.Context(), merchant)
		ctx = service.WithAuthToken(ctx, token)
		next(w, r.WithContext(ctx))
	}
}

func (a *API) session(r *http.Request) *service.Session {
	merchant, _ := service.MerchantFromContext(r.Context())
	return a.sessions.Get(merchant)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleInventory(w http.ResponseWriter, r *http.Request) {
	session := a.session(r)

	switch r.Method {
	case http.MethodGet:
		items, err := session.Inventory.List(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	case http.MethodPost:
		var draft domain.ItemDraft
		if err := decodeJSON(r, &draft); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		item, err := session.Inventory.AddItem(r.Context(), draft)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"item": item})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleLowStock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	items, err := a.session(r).Inventory.LowStock(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) handleInventoryActions(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/inventory/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusNotFound, errors.New("missing item id"))
		return
	}
	itemID := parts[0]
	session := a.session(r)

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		item, err := session.Inventory.Get(r.Context(), itemID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"item": item})
	case len(parts) == 2 && parts[1] == "restock" && r.Method == http.MethodPost:
		var req struct {
			Amount int `json:"amount"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		item, err := session.Inventory.Restock(r.Context(), itemID, req.Amount)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"item": item})
	default:
		writeError(w, http.StatusNotFound, errors.New("unknown inventory action"))
	}
}

func (a *API) handleCart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	session := a.session(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"items":       session.Cart.Items(),
		"total_cents": session.Cart.Total(),
	})
}

func (a *API) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req struct {
		ItemID string `json:"item_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	session := a.session(r)
	item, err := session.Inventory.Get(r.Context(), req.ItemID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := session.Cart.Add(r.Context(), item); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":       session.Cart.Items(),
		"total_cents": session.Cart.Total(),
	})
}

func (a *API) handleCartAdjust(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		writeMethodNotAllowed(w)
		return
	}

	itemID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/cart/items/"), "/")
	if itemID == "" {
		writeError(w, http.StatusNotFound, errors.New("missing item id"))
		return
	}

	var req struct {
		Delta int `json:"delta"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	session := a.session(r)
	if err := session.Cart.Adjust(r.Context(), itemID, req.Delta); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":       session.Cart.Items(),
		"total_cents": session.Cart.Total(),
	})
}

func (a *API) handleCartClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	a.session(r).Cart.Clear()
	writeJSON(w, http.StatusOK, map[string]any{"items": []domain.CartItem{}, "total_cents": 0})
}

func (a *API) handleCheckout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req struct {
		CustomerRef string `json:"customer_ref"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.CustomerRef) == "" {
		writeError(w, http.StatusBadRequest, errors.New("customer_ref is required"))
		return
	}

	session := a.session(r)
	record, err := session.Coordinator.CreateRequest(r.Context(), service.AuthTokenFromContext(r.Context()), req.CustomerRef)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"purchase": record})
}

func (a *API) handlePurchases(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	records, err := a.session(r).History.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"purchases": records})
}

func (a *API) handlePurchaseActions(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/purchases/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "undo" || r.Method != http.MethodPost {
		writeError(w, http.StatusNotFound, errors.New("unknown purchase action"))
		return
	}

	session := a.session(r)
	if err := session.Coordinator.Undo(r.Context(), parts[0]); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"undone": true})
}

func (a *API) handleWalletTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	merchant, _ := service.MerchantFromContext(r.Context())
	if merchant.WalletAddress == "" {
		writeError(w, http.StatusBadRequest, errors.New("merchant has no wallet address"))
		return
	}

	view, err := a.wallet.Transactions(r.Context(), service.AuthTokenFromContext(r.Context()), merchant.WalletAddress)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if (r.Method == http.MethodPost || r.Method == http.MethodPatch) && strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		startedAt := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[httpapi] %s %s (%s)", r.Method, r.URL.Path, time.Since(startedAt))
	})
}

// writeServiceError maps the core error taxonomy onto HTTP statuses in one
// place, so handlers stay free of status bookkeeping.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrOutOfStock), errors.Is(err, domain.ErrInsufficientStock):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, domain.ErrCustomerNotFound), errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrNetwork):
		writeError(w, http.StatusBadGateway, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx messages stay generic so internals never leak to clients.
	msg := err.Error()
	if status >= 500 {
		log.Printf("[httpapi] internal error (status %d): %v", status, err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
