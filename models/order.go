package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Side is the side of the trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderType selects how an order executes.
type OrderType string

const (
	// OrderTypeMarket executes immediately and never rests on the book.
	OrderTypeMarket OrderType = "market"
	// OrderTypeLimit rests on the book and fills at the given price or better.
	OrderTypeLimit OrderType = "limit"
	// OrderTypeStop places a limit order once the stop price is hit.
	OrderTypeStop OrderType = "stop"
)

// TimeInForce is the order's time-in-force policy.
type TimeInForce string

const (
	TimeInForceGTC TimeInForce = "GTC"
	TimeInForceGTT TimeInForce = "GTT"
	TimeInForceIOC TimeInForce = "IOC"
	TimeInForceFOK TimeInForce = "FOK"
)

// CancelAfter bounds the lifetime of a GTT order.
type CancelAfter string

const (
	CancelAfterMin  CancelAfter = "min"
	CancelAfterHour CancelAfter = "hour"
	CancelAfterDay  CancelAfter = "day"
)

// StopDirection selects when a stop order triggers relative to the
// last trade price.
type StopDirection string

const (
	// StopLoss triggers when the price falls to or below the stop price.
	StopLoss StopDirection = "loss"
	// StopEntry triggers when the price rises to or above the stop price.
	StopEntry StopDirection = "entry"
)

// OrderModifiers carries the optional cross-type order fields. The
// zero value means "no modifiers": time-in-force defaults to GTC on
// the wire.
type OrderModifiers struct {
	TimeInForce TimeInForce
	CancelAfter CancelAfter
	PostOnly    *bool
	ClientOID   string
}

// Order describes an order to submit. Optional numeric fields are
// pointers so absence is distinguishable from zero; which fields are
// required depends on Type and is enforced before submission.
type Order struct {
	ProductID string
	Side      Side
	Type      OrderType

	Price     *decimal.Decimal
	Size      *decimal.Decimal
	Funds     *decimal.Decimal
	Stop      StopDirection
	StopPrice *decimal.Decimal

	Modifiers OrderModifiers
}

// NewClientOID returns a fresh client order id suitable for the
// order's client_oid field.
func NewClientOID() string {
	return uuid.NewString()
}

// Amount is a convenience for building optional decimal fields from a
// literal, e.g. models.Amount("0.01").
func Amount(s string) *decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

// Bool is a convenience for the optional PostOnly flag.
func Bool(v bool) *bool {
	return &v
}

// MarketOrder builds a market order funded by either a base-currency
// size or a quote-currency amount. Exactly one of size and funds must
// be set; validation happens at submission.
func MarketOrder(productID string, side Side, size, funds *decimal.Decimal) Order {
	return Order{
		ProductID: productID,
		Side:      side,
		Type:      OrderTypeMarket,
		Size:      size,
		Funds:     funds,
	}
}

// LimitOrder builds a limit order for size units at the given price.
func LimitOrder(productID string, side Side, price, size decimal.Decimal) Order {
	return Order{
		ProductID: productID,
		Side:      side,
		Type:      OrderTypeLimit,
		Price:     &price,
		Size:      &size,
	}
}

// StopOrder builds a stop order that places a limit order for size
// units at price once stopPrice is crossed in the given direction.
func StopOrder(productID string, side Side, direction StopDirection, stopPrice, price, size decimal.Decimal) Order {
	return Order{
		ProductID: productID,
		Side:      side,
		Type:      OrderTypeStop,
		Stop:      direction,
		StopPrice: &stopPrice,
		Price:     &price,
		Size:      &size,
	}
}
