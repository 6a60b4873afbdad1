package models

import "github.com/shopspring/decimal"

// Account is a trading account for one currency, as returned by the
// accounts endpoints. Monetary fields arrive as decimal strings.
type Account struct {
	ID             string          `json:"id"`
	Currency       string          `json:"currency"`
	Balance        decimal.Decimal `json:"balance"`
	Hold           decimal.Decimal `json:"hold"`
	Available      decimal.Decimal `json:"available"`
	ProfileID      string          `json:"profile_id"`
	TradingEnabled bool            `json:"trading_enabled"`
}

// Wallet is a coinbase-accounts entry: a fiat or crypto wallet linked
// to the trading profile.
type Wallet struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Currency string          `json:"currency"`
	Balance  decimal.Decimal `json:"balance"`
	Type     string          `json:"type"`
	Primary  bool            `json:"primary"`
	Active   bool            `json:"active"`
}

// FilterAccounts applies an already validated AccountFilter.
func FilterAccounts(accounts []Account, filter AccountFilter) []Account {
	if len(filter.Currencies) > 0 {
		keep := make(map[string]bool, len(filter.Currencies))
		for _, c := range filter.Currencies {
			keep[c] = true
		}
		out := accounts[:0:0]
		for _, a := range accounts {
			if keep[a.Currency] {
				out = append(out, a)
			}
		}
		return out
	}
	if filter.HasBalance != nil {
		out := accounts[:0:0]
		for _, a := range accounts {
			positive := a.Balance.IsPositive()
			if positive == *filter.HasBalance {
				out = append(out, a)
			}
		}
		return out
	}
	return accounts
}

// FilterWallets applies an already validated WalletFilter.
func FilterWallets(wallets []Wallet, filter WalletFilter) []Wallet {
	out := wallets
	if len(filter.Currencies) > 0 {
		keep := make(map[string]bool, len(filter.Currencies))
		for _, c := range filter.Currencies {
			keep[c] = true
		}
		filtered := out[:0:0]
		for _, w := range out {
			if keep[w.Currency] {
				filtered = append(filtered, w)
			}
		}
		out = filtered
	}
	if filter.Type != "" {
		filtered := out[:0:0]
		for _, w := range out {
			if w.Type == string(filter.Type) {
				filtered = append(filtered, w)
			}
		}
		out = filtered
	}
	return out
}
