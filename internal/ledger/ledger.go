package ledger

import (
	"errors"
	"fmt"
	"strings"

	"wallst/internal/market"
)

var (
	ErrInvalidQuantity      = errors.New("quantity must be > 0")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
)

// DefaultMateriality is the smallest daily payout listed in Accrual.Details.
const DefaultMateriality = 0.01

// Lot is the position held in one symbol. Lots are never shared between
// ledger versions: every function returns a fresh slice.
type Lot struct {
	Symbol   string  `json:"symbol"`
	Quantity int64   `json:"quantity"`
	AvgPrice float64 `json:"average_buy_price"`
}

type Sale struct {
	Proceeds       float64
	RealizedProfit float64
}

type Payout struct {
	Symbol string
	Amount float64
}

type Accrual struct {
	Total   float64
	Details []Payout
}

func Find(lots []Lot, symbol string) (Lot, bool) {
	symbol = strings.ToUpper(symbol)
	for _, l := range lots {
		if l.Symbol == symbol {
			return l, true
		}
	}
	return Lot{}, false
}

// Buy adds qty at price to the lot for symbol and returns the cost. The cash
// check is the caller's.
func Buy(lots []Lot, symbol string, price float64, qty int64) ([]Lot, float64, error) {
	if qty <= 0 {
		return lots, 0, ErrInvalidQuantity
	}
	symbol = strings.ToUpper(symbol)
	cost := price * float64(qty)

	out := make([]Lot, 0, len(lots)+1)
	found := false
	for _, l := range lots {
		if l.Symbol == symbol {
			total := l.Quantity + qty
			l.AvgPrice = (l.AvgPrice*float64(l.Quantity) + cost) / float64(total)
			l.Quantity = total
			found = true
		}
		out = append(out, l)
	}
	if !found {
		out = append(out, Lot{Symbol: symbol, Quantity: qty, AvgPrice: price})
	}
	return out, cost, nil
}

// Sell removes qty of symbol at price. The lot is dropped when it reaches zero.
func Sell(lots []Lot, symbol string, price float64, qty int64) ([]Lot, Sale, error) {
	if qty <= 0 {
		return lots, Sale{}, ErrInvalidQuantity
	}
	symbol = strings.ToUpper(symbol)
	held, ok := Find(lots, symbol)
	if !ok || held.Quantity < qty {
		return lots, Sale{}, fmt.Errorf("%w: %s held=%d requested=%d", ErrInsufficientHoldings, symbol, held.Quantity, qty)
	}

	proceeds := price * float64(qty)
	sale := Sale{
		Proceeds:       proceeds,
		RealizedProfit: proceeds - held.AvgPrice*float64(qty),
	}
	out := make([]Lot, 0, len(lots))
	for _, l := range lots {
		if l.Symbol == symbol {
			l.Quantity -= qty
			if l.Quantity == 0 {
				continue
			}
		}
		out = append(out, l)
	}
	return out, sale, nil
}

// AccrueDividends computes one day of dividends: price*qty*yield/365 per
// yielding holding. Payouts below materiality count toward Total but are
// left out of Details.
func AccrueDividends(lots []Lot, instruments []market.Instrument, materiality float64) Accrual {
	var acc Accrual
	for _, l := range lots {
		in, ok := market.Find(instruments, l.Symbol)
		if !ok || in.DividendYield == 0 {
			continue
		}
		daily := in.Price * float64(l.Quantity) * in.DividendYield / 365
		acc.Total += daily
		if daily >= materiality {
			acc.Details = append(acc.Details, Payout{Symbol: l.Symbol, Amount: daily})
		}
	}
	return acc
}

func MarketValue(lots []Lot, instruments []market.Instrument) float64 {
	total := 0.0
	for _, l := range lots {
		if in, ok := market.Find(instruments, l.Symbol); ok {
			total += in.Price * float64(l.Quantity)
		}
	}
	return total
}

func NetWorth(cash float64, lots []Lot, instruments []market.Instrument) float64 {
	return cash + MarketValue(lots, instruments)
}
