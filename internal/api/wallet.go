package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/godlykids/journey/internal/content"
	"github.com/godlykids/journey/internal/domain"
	"github.com/godlykids/journey/internal/identity"
	"github.com/godlykids/journey/internal/ledger"
)

const (
	ownedPrefPrefix   = "shop.owned."
	donatedPrefPrefix = "giving.donated."
	historyLimit      = 50
)

// shopCatalog is the built-in avatar item catalog. Items are cosmetic;
// ownership lives in the preference store under ownedPrefPrefix keys.
var shopCatalog = []domain.ShopItem{
	{ID: "hat-shepherd", Name: "Shepherd's Hat", Slot: "hat", Price: 40},
	{ID: "hat-crown", Name: "Little Crown", Slot: "hat", Price: 120},
	{ID: "outfit-robe", Name: "Travel Robe", Slot: "outfit", Price: 80},
	{ID: "outfit-armor", Name: "Armor of David", Slot: "outfit", Price: 200},
	{ID: "pet-lamb", Name: "Lamb Friend", Slot: "pet", Price: 150},
	{ID: "pet-dove", Name: "Dove Friend", Slot: "pet", Price: 100},
}

// WalletHandler handles coin wallet, shop and giving endpoints.
type WalletHandler struct {
	*Handler
	wallet  *ledger.Service
	fetcher *content.Client
}

// NewWalletHandler creates a wallet handler.
func NewWalletHandler(base *Handler, wallet *ledger.Service, fetcher *content.Client) *WalletHandler {
	return &WalletHandler{Handler: base, wallet: wallet, fetcher: fetcher}
}

// RegisterRoutes registers wallet, shop and giving routes.
func (h *WalletHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/wallet", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Post("/earn", h.Earn)
		r.Post("/spend", h.Spend)
	})
	r.Route("/api/shop", func(r chi.Router) {
		r.Get("/items", h.ShopItems)
		r.Post("/purchase", h.Purchase)
	})
	r.Route("/api/giving", func(r chi.Router) {
		r.Get("/campaigns", h.Campaigns)
		r.Post("/donate", h.Donate)
	})
}

// Get returns the balance and recent ledger history.
func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	balance, err := h.wallet.Balance(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to read balance", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to read wallet")
		return
	}
	history, err := h.wallet.History(r.Context(), userID, historyLimit)
	if err != nil {
		slog.Error("Failed to read ledger history", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to read wallet")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"balance": balance,
		"history": history,
	})
}

type amountRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

// Earn credits coins to the wallet.
func (h *WalletHandler) Earn(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	var req amountRequest
	if err := decodeBody(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Reason == "" {
		req.Reason = domain.ReasonStepReward
	}

	entry, err := h.wallet.AddCoins(r.Context(), userID, req.Amount, req.Reason)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidAmount) {
			Error(w, http.StatusBadRequest, "amount must be positive")
			return
		}
		slog.Error("Failed to credit coins", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to credit coins")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"entry":   entry,
		"balance": entry.Balance,
	})
}

// Spend debits coins. An overdraft is a declined result, not an error.
func (h *WalletHandler) Spend(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	var req amountRequest
	if err := decodeBody(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Reason == "" {
		Error(w, http.StatusBadRequest, "reason is required")
		return
	}

	result, err := h.wallet.SpendCoins(r.Context(), userID, req.Amount, req.Reason)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidAmount) {
			Error(w, http.StatusBadRequest, "amount must be positive")
			return
		}
		slog.Error("Failed to spend coins", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to spend coins")
		return
	}
	JSON(w, http.StatusOK, result)
}

// ShopItems lists the catalog with ownership flags for the device.
func (h *WalletHandler) ShopItems(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	prefs, err := h.repo.AllPrefs(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to read prefs", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to read shop state")
		return
	}

	type shopItem struct {
		domain.ShopItem
		Owned bool `json:"owned"`
	}
	items := make([]shopItem, 0, len(shopCatalog))
	for _, item := range shopCatalog {
		items = append(items, shopItem{
			ShopItem: item,
			Owned:    prefs[ownedPrefPrefix+item.ID] == "true",
		})
	}
	JSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

type purchaseRequest struct {
	ItemID string `json:"item_id"`
}

// Purchase spends the item price and marks it owned. Buying an already
// owned item is rejected before the wallet is touched.
func (h *WalletHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	var req purchaseRequest
	if err := decodeBody(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, ok := findShopItem(req.ItemID)
	if !ok {
		Error(w, http.StatusNotFound, "unknown item")
		return
	}

	if _, owned, err := h.repo.GetPref(r.Context(), userID, ownedPrefPrefix+item.ID); err != nil {
		slog.Error("Failed to read ownership", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "purchase failed")
		return
	} else if owned {
		Error(w, http.StatusConflict, "item already owned")
		return
	}

	result, err := h.wallet.SpendCoins(r.Context(), userID, int64(item.Price), domain.ReasonShopPurchase)
	if err != nil {
		slog.Error("Purchase spend failed", "user_id", userID, "item", item.ID, "error", err)
		Error(w, http.StatusInternalServerError, "purchase failed")
		return
	}
	if !result.Accepted {
		JSON(w, http.StatusOK, map[string]interface{}{
			"accepted": false,
			"balance":  result.Balance,
		})
		return
	}

	if err := h.repo.SetPref(r.Context(), userID, ownedPrefPrefix+item.ID, "true"); err != nil {
		slog.Error("Failed to record ownership", "user_id", userID, "item", item.ID, "error", err)
		Error(w, http.StatusInternalServerError, "purchase failed")
		return
	}

	slog.Info("Shop purchase", "user_id", userID, "item", item.ID, "price", item.Price)
	JSON(w, http.StatusOK, map[string]interface{}{
		"accepted": true,
		"balance":  result.Balance,
		"item":     item,
	})
}

// Campaigns lists giving campaigns, with each device's donated total.
func (h *WalletHandler) Campaigns(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	campaigns := h.fetcher.Campaigns(r.Context())

	prefs, err := h.repo.AllPrefs(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to read prefs", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to read campaigns")
		return
	}

	type campaign struct {
		domain.Campaign
		Donated int64 `json:"donated"`
	}
	out := make([]campaign, 0, len(campaigns))
	for _, c := range campaigns {
		donated, _ := strconv.ParseInt(prefs[donatedPrefPrefix+c.ID], 10, 64)
		out = append(out, campaign{Campaign: c, Donated: donated})
	}
	JSON(w, http.StatusOK, map[string]interface{}{"campaigns": out})
}

type donateRequest struct {
	CampaignID string `json:"campaign_id"`
	Amount     int64  `json:"amount"`
}

// Donate spends coins toward a campaign and accumulates the device's
// donated total.
func (h *WalletHandler) Donate(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	var req donateRequest
	if err := decodeBody(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.CampaignID) == "" {
		Error(w, http.StatusBadRequest, "campaign_id is required")
		return
	}

	result, err := h.wallet.SpendCoins(r.Context(), userID, req.Amount, domain.ReasonGiving)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidAmount) {
			Error(w, http.StatusBadRequest, "amount must be positive")
			return
		}
		slog.Error("Donation spend failed", "user_id", userID, "campaign", req.CampaignID, "error", err)
		Error(w, http.StatusInternalServerError, "donation failed")
		return
	}
	if !result.Accepted {
		JSON(w, http.StatusOK, map[string]interface{}{
			"accepted": false,
			"balance":  result.Balance,
		})
		return
	}

	key := donatedPrefPrefix + req.CampaignID
	prev, _, err := h.repo.GetPref(r.Context(), userID, key)
	if err != nil {
		slog.Error("Failed to read donation total", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "donation failed")
		return
	}
	total, _ := strconv.ParseInt(prev, 10, 64)
	total += req.Amount
	if err := h.repo.SetPref(r.Context(), userID, key, strconv.FormatInt(total, 10)); err != nil {
		slog.Error("Failed to record donation total", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "donation failed")
		return
	}

	slog.Info("Donation", "user_id", userID, "campaign", req.CampaignID, "amount", req.Amount)
	JSON(w, http.StatusOK, map[string]interface{}{
		"accepted": true,
		"balance":  result.Balance,
		"donated":  total,
	})
}

func findShopItem(id string) (domain.ShopItem, bool) {
	for _, item := range shopCatalog {
		if item.ID == id {
			return item, true
		}
	}
	return domain.ShopItem{}, false
}
