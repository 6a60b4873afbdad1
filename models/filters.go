package models

import (
	"fmt"

	"coinbasepro/errs"
)

// OrderStatus is a lifecycle state an order can be filtered by.
type OrderStatus string

const (
	StatusOpen    OrderStatus = "open"
	StatusPending OrderStatus = "pending"
	StatusActive  OrderStatus = "active"
	StatusDone    OrderStatus = "done"
	StatusSettled OrderStatus = "settled"
)

var allowedStatuses = map[OrderStatus]bool{
	StatusOpen:    true,
	StatusPending: true,
	StatusActive:  true,
	StatusDone:    true,
	StatusSettled: true,
}

// StatusFilter selects which order statuses a listing returns. It is
// either the explicit "all" variant or a subset of known statuses.
// The zero value means the default subset {open, pending, active}.
type StatusFilter struct {
	all      bool
	statuses []OrderStatus
}

// StatusAll returns the filter that requests orders of every status.
func StatusAll() StatusFilter {
	return StatusFilter{all: true}
}

// Statuses returns a filter restricted to the given statuses.
func Statuses(statuses ...OrderStatus) StatusFilter {
	return StatusFilter{statuses: statuses}
}

// IsAll reports whether the filter requests all statuses.
func (f StatusFilter) IsAll() bool {
	return f.all
}

// Values returns the status strings to send, applying the default
// subset when the filter is the zero value.
func (f StatusFilter) Values() []string {
	statuses := f.statuses
	if !f.all && len(statuses) == 0 {
		statuses = []OrderStatus{StatusOpen, StatusPending, StatusActive}
	}
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// Validate rejects unknown status members before any request is sent.
func (f StatusFilter) Validate() error {
	if f.all {
		return nil
	}
	for _, s := range f.statuses {
		if !allowedStatuses[s] {
			return &errs.InvalidArgumentError{
				Argument: "status",
				Message:  fmt.Sprintf("unknown status %q; allowed: open, pending, active, done, settled", s),
			}
		}
	}
	return nil
}

// AccountFilter narrows an account listing client-side, either by
// currency membership or by balance presence. The two filters are
// mutually exclusive per call.
type AccountFilter struct {
	// Currencies keeps accounts whose currency is in the list.
	Currencies []string
	// HasBalance keeps accounts with balance > 0 when true, or
	// accounts with balance == 0 when false.
	HasBalance *bool
}

// Validate rejects a filter that sets both criteria.
func (f AccountFilter) Validate() error {
	if len(f.Currencies) > 0 && f.HasBalance != nil {
		return &errs.InvalidArgumentError{
			Argument: "filter",
			Message:  "currency and balance filters are mutually exclusive",
		}
	}
	return nil
}

// WalletType distinguishes fiat wallets from crypto wallets.
type WalletType string

const (
	WalletTypeFiat   WalletType = "fiat"
	WalletTypeWallet WalletType = "wallet"
)

// WalletFilter narrows a coinbase-accounts listing by currency and/or
// wallet type. Unlike AccountFilter the two criteria may be combined.
type WalletFilter struct {
	Currencies []string
	Type       WalletType
}

// Validate rejects unknown wallet types.
func (f WalletFilter) Validate() error {
	switch f.Type {
	case "", WalletTypeFiat, WalletTypeWallet:
		return nil
	default:
		return &errs.InvalidArgumentError{
			Argument: "type",
			Message:  fmt.Sprintf("wallet type must be fiat or wallet, got %q", f.Type),
		}
	}
}
