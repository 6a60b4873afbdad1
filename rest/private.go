package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"coinbasepro/auth"
	"coinbasepro/config"
	"coinbasepro/logger"
	"coinbasepro/models"
)

// PrivateClient manages accounts and orders over the authenticated
// REST surface. Every request is signed with a fresh timestamp, so
// the client is stateless and safe for concurrent reuse.
type PrivateClient struct {
	t   *transport
	log *logger.Log
}

// NewPrivateClient builds an authenticated client for the environment
// selected in cfg.
func NewPrivateClient(cfg *config.Config, creds config.Credentials) *PrivateClient {
	authn := auth.NewAuthenticator(creds)
	rl := cfg.API.RateLimit
	return &PrivateClient{
		t:   newTransport(cfg, &authn, rl.PrivateRequestsPerSecond, rl.PrivateBurst),
		log: logger.GetLogger(),
	}
}

// GetAccount fetches a single trading account by id.
func (c *PrivateClient) GetAccount(ctx context.Context, accountID string) (models.Account, error) {
	var account models.Account
	data, err := c.t.do(ctx, "GET", "/accounts/"+accountID, nil, "")
	if err != nil {
		return account, err
	}
	if err := json.Unmarshal(data, &account); err != nil {
		return account, fmt.Errorf("unexpected account response %s: %w", string(data), err)
	}
	return account, nil
}

// GetAllAccounts lists the profile's trading accounts, optionally
// narrowed by a client-side filter. The filter is validated before
// any request is sent.
func (c *PrivateClient) GetAllAccounts(ctx context.Context, filter models.AccountFilter) ([]models.Account, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	data, err := c.t.do(ctx, "GET", "/accounts/", nil, "")
	if err != nil {
		return nil, err
	}
	var accounts []models.Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("unexpected accounts response %s: %w", string(data), err)
	}
	return models.FilterAccounts(accounts, filter), nil
}

// GetWallets lists the coinbase wallets linked to the profile,
// optionally narrowed by currency and wallet type.
func (c *PrivateClient) GetWallets(ctx context.Context, filter models.WalletFilter) ([]models.Wallet, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	data, err := c.t.do(ctx, "GET", "/coinbase-accounts/", nil, "")
	if err != nil {
		return nil, err
	}
	var wallets []models.Wallet
	if err := json.Unmarshal(data, &wallets); err != nil {
		return nil, fmt.Errorf("unexpected wallets response %s: %w", string(data), err)
	}
	return models.FilterWallets(wallets, filter), nil
}

// GetOrder fetches a single order by id.
func (c *PrivateClient) GetOrder(ctx context.Context, orderID string) (json.RawMessage, error) {
	return c.t.do(ctx, "GET", "/orders/"+orderID, nil, "")
}

// GetOrderStatus fetches an order and returns its status field.
func (c *PrivateClient) GetOrderStatus(ctx context.Context, orderID string) (string, error) {
	data, err := c.GetOrder(ctx, orderID)
	if err != nil {
		return "", err
	}
	var order struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &order); err != nil {
		return "", fmt.Errorf("unexpected order response %s: %w", string(data), err)
	}
	return order.Status, nil
}

// ListOrdersParams bounds an order listing. Limit defaults to 100 and
// the zero Status filter selects open, pending and active orders.
type ListOrdersParams struct {
	ProductID string
	Limit     int
	Status    models.StatusFilter
}

// GetAllOrders lists orders matching the status filter, newest first.
func (c *PrivateClient) GetAllOrders(ctx context.Context, params ListOrdersParams) (json.RawMessage, error) {
	if err := params.Status.Validate(); err != nil {
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 100
	}
	query := url.Values{"limit": []string{strconv.Itoa(limit)}}
	if params.Status.IsAll() {
		query.Set("status", "all")
	} else {
		for _, s := range params.Status.Values() {
			query.Add("status", s)
		}
	}
	if params.ProductID != "" {
		query.Set("product_id", params.ProductID)
	}

	return c.t.do(ctx, "GET", "/orders/", query, "")
}

// CancelOrder cancels one order; the exchange echoes the order id
// back on success.
func (c *PrivateClient) CancelOrder(ctx context.Context, orderID string) (json.RawMessage, error) {
	return c.t.do(ctx, "DELETE", "/orders/"+orderID, nil, "")
}

// CancelAllOrders cancels all open orders, optionally only those on
// one product. The exchange returns the list of cancelled ids.
func (c *PrivateClient) CancelAllOrders(ctx context.Context, productID string) (json.RawMessage, error) {
	var query url.Values
	if productID != "" {
		query = url.Values{"product_id": []string{productID}}
	}
	return c.t.do(ctx, "DELETE", "/orders", query, "")
}

// CreateOrder validates the order, assembles the canonical payload
// and submits it. Validation failures surface before any network I/O.
func (c *PrivateClient) CreateOrder(ctx context.Context, order models.Order) (json.RawMessage, error) {
	if err := validateOrder(order); err != nil {
		return nil, err
	}
	payload, err := buildPayload(order)
	if err != nil {
		return nil, err
	}

	c.log.WithComponent("private_client").WithFields(logger.Fields{
		"product_id": order.ProductID,
		"side":       order.Side,
		"type":       order.Type,
	}).Debug("submitting order")

	return c.t.do(ctx, "POST", "/orders", nil, payload)
}

// ensureClientOID fills in a generated client order id so repeated
// submissions through the convenience methods stay idempotent
// server-side. A caller-supplied id is never overwritten.
func ensureClientOID(mods models.OrderModifiers) models.OrderModifiers {
	if mods.ClientOID == "" {
		mods.ClientOID = models.NewClientOID()
	}
	return mods
}

// LimitBuy submits a limit buy for size units at the given price.
func (c *PrivateClient) LimitBuy(ctx context.Context, productID string, price, size decimal.Decimal, mods models.OrderModifiers) (json.RawMessage, error) {
	order := models.LimitOrder(productID, models.SideBuy, price, size)
	order.Modifiers = ensureClientOID(mods)
	return c.CreateOrder(ctx, order)
}

// LimitSell submits a limit sell for size units at the given price.
func (c *PrivateClient) LimitSell(ctx context.Context, productID string, price, size decimal.Decimal, mods models.OrderModifiers) (json.RawMessage, error) {
	order := models.LimitOrder(productID, models.SideSell, price, size)
	order.Modifiers = ensureClientOID(mods)
	return c.CreateOrder(ctx, order)
}

// MarketBuy submits a market buy for size units of the base currency.
func (c *PrivateClient) MarketBuy(ctx context.Context, productID string, size decimal.Decimal, mods models.OrderModifiers) (json.RawMessage, error) {
	order := models.MarketOrder(productID, models.SideBuy, &size, nil)
	order.Modifiers = ensureClientOID(mods)
	return c.CreateOrder(ctx, order)
}

// MarketSell submits a market sell for size units of the base currency.
func (c *PrivateClient) MarketSell(ctx context.Context, productID string, size decimal.Decimal, mods models.OrderModifiers) (json.RawMessage, error) {
	order := models.MarketOrder(productID, models.SideSell, &size, nil)
	order.Modifiers = ensureClientOID(mods)
	return c.CreateOrder(ctx, order)
}

// StopLoss submits a sell that triggers once the price falls to the
// stop price, then rests as a limit at the given price.
func (c *PrivateClient) StopLoss(ctx context.Context, productID string, stopPrice, price, size decimal.Decimal, mods models.OrderModifiers) (json.RawMessage, error) {
	order := models.StopOrder(productID, models.SideSell, models.StopLoss, stopPrice, price, size)
	order.Modifiers = ensureClientOID(mods)
	return c.CreateOrder(ctx, order)
}

// StopEntry submits a buy that triggers once the price rises to the
// stop price, then rests as a limit at the given price.
func (c *PrivateClient) StopEntry(ctx context.Context, productID string, stopPrice, price, size decimal.Decimal, mods models.OrderModifiers) (json.RawMessage, error) {
	order := models.StopOrder(productID, models.SideBuy, models.StopEntry, stopPrice, price, size)
	order.Modifiers = ensureClientOID(mods)
	return c.CreateOrder(ctx, order)
}
