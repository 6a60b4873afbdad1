package rest

import (
	"encoding/json"
	"strconv"

	"coinbasepro/errs"
	"coinbasepro/models"
)

// validateOrder applies the cross-field order preconditions, in
// order, before any payload is assembled. Each violation names the
// rule that failed.
func validateOrder(o models.Order) error {
	m := o.Modifiers

	if m.TimeInForce == models.TimeInForceGTT && m.CancelAfter == "" {
		return &errs.InvalidOrderError{
			Rule:    "gtt_requires_cancel_after",
			Message: "cancel_after is required for GTT orders",
		}
	}
	if (m.TimeInForce == models.TimeInForceIOC || m.TimeInForce == models.TimeInForceFOK) && m.PostOnly != nil {
		return &errs.InvalidOrderError{
			Rule:    "post_only_forbidden_for_ioc_fok",
			Message: "post_only is invalid when time_in_force is IOC or FOK",
		}
	}

	switch m.TimeInForce {
	case "", models.TimeInForceGTC, models.TimeInForceGTT, models.TimeInForceIOC, models.TimeInForceFOK:
	default:
		return &errs.InvalidOrderError{
			Rule:    "unknown_time_in_force",
			Message: "time_in_force must be GTC, GTT, IOC or FOK",
		}
	}

	switch o.Side {
	case models.SideBuy, models.SideSell:
	default:
		return &errs.InvalidOrderError{
			Rule:    "unknown_side",
			Message: "side must be buy or sell",
		}
	}

	switch o.Type {
	case models.OrderTypeMarket:
		if (o.Size != nil) == (o.Funds != nil) {
			return &errs.InvalidOrderError{
				Rule:    "market_size_funds_xor",
				Message: "market orders take either size or funds, but not both",
			}
		}
	case models.OrderTypeLimit:
		if o.Size == nil || o.Price == nil {
			return &errs.InvalidOrderError{
				Rule:    "limit_requires_price_and_size",
				Message: "limit orders require both price and size",
			}
		}
	case models.OrderTypeStop:
		if o.Stop == "" || o.StopPrice == nil {
			return &errs.InvalidOrderError{
				Rule:    "stop_requires_stop_and_stop_price",
				Message: "stop orders require both stop and stop_price",
			}
		}
		if o.Stop != models.StopLoss && o.Stop != models.StopEntry {
			return &errs.InvalidOrderError{
				Rule:    "unknown_stop_direction",
				Message: "stop must be loss or entry",
			}
		}
		if o.Size == nil || o.Price == nil {
			return &errs.InvalidOrderError{
				Rule:    "stop_requires_price_and_size",
				Message: "stop orders require both price and size",
			}
		}
	default:
		return &errs.InvalidOrderError{
			Rule:    "unknown_order_type",
			Message: "order type must be market, limit or stop",
		}
	}

	return nil
}

// buildPayload serialises a validated order into the POST body. The
// base record carries decrement-and-cancel self-trade prevention and
// a GTC default; stop orders omit the type discriminator per exchange
// convention. All values are strings on the wire. Booleans serialise
// as "true"/"false".
func buildPayload(o models.Order) (string, error) {
	payload := map[string]string{
		"type":          string(o.Type),
		"side":          string(o.Side),
		"product_id":    o.ProductID,
		"stp":           "dc",
		"time_in_force": string(models.TimeInForceGTC),
	}
	if o.Type == models.OrderTypeStop {
		delete(payload, "type")
	}

	if o.Price != nil {
		payload["price"] = o.Price.String()
	}
	if o.Size != nil {
		payload["size"] = o.Size.String()
	}
	if o.Funds != nil {
		payload["funds"] = o.Funds.String()
	}
	if o.Stop != "" {
		payload["stop"] = string(o.Stop)
	}
	if o.StopPrice != nil {
		payload["stop_price"] = o.StopPrice.String()
	}

	m := o.Modifiers
	if m.TimeInForce != "" {
		payload["time_in_force"] = string(m.TimeInForce)
	}
	if m.CancelAfter != "" {
		payload["cancel_after"] = string(m.CancelAfter)
	}
	if m.PostOnly != nil {
		payload["post_only"] = strconv.FormatBool(*m.PostOnly)
	}
	if m.ClientOID != "" {
		payload["client_oid"] = m.ClientOID
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
