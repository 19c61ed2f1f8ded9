package ledger

import (
	"errors"
	"math"
	"testing"

	"wallst/internal/market"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestBuyWeightedAverage(t *testing.T) {
	lots, cost, err := Buy(nil, "msft", 10, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cost != 30 {
		t.Fatalf("cost got=%v want=30", cost)
	}
	lots, _, err = Buy(lots, "MSFT", 20, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lots) != 1 {
		t.Fatalf("expected one lot per symbol, got %+v", lots)
	}
	want := (3*10.0 + 7*20.0) / 10
	if lots[0].Quantity != 10 || !near(lots[0].AvgPrice, want) {
		t.Fatalf("got %+v want qty=10 avg=%v", lots[0], want)
	}
}

func TestBuyRejectsNonPositiveQuantity(t *testing.T) {
	for _, q := range []int64{0, -5} {
		if _, _, err := Buy(nil, "KO", 1, q); !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("qty=%d expected ErrInvalidQuantity, got %v", q, err)
		}
	}
}

func TestBuyDoesNotMutateInput(t *testing.T) {
	in := []Lot{{Symbol: "KO", Quantity: 1, AvgPrice: 5}}
	if _, _, err := Buy(in, "KO", 15, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in[0].Quantity != 1 || in[0].AvgPrice != 5 {
		t.Fatalf("input mutated: %+v", in[0])
	}
}

func TestBuySellRoundTrip(t *testing.T) {
	lots, cost, _ := Buy(nil, "IBM", 42.5, 8)
	lots, sale, err := Sell(lots, "IBM", 42.5, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lots) != 0 {
		t.Fatalf("expected lot removed, got %+v", lots)
	}
	if !near(sale.Proceeds, cost) || !near(sale.RealizedProfit, 0) {
		t.Fatalf("unexpected sale %+v for cost %v", sale, cost)
	}
}

func TestSellPartialProfit(t *testing.T) {
	lots := []Lot{{Symbol: "JPM", Quantity: 10, AvgPrice: 20}}
	lots, sale, err := Sell(lots, "JPM", 25, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lots[0].Quantity != 6 || lots[0].AvgPrice != 20 {
		t.Fatalf("unexpected lot %+v", lots[0])
	}
	if !near(sale.Proceeds, 100) || !near(sale.RealizedProfit, 20) {
		t.Fatalf("unexpected sale %+v", sale)
	}
}

func TestSellRejections(t *testing.T) {
	lots := []Lot{{Symbol: "KO", Quantity: 2, AvgPrice: 10}}
	tests := []struct {
		symbol string
		qty    int64
	}{
		{symbol: "KO", qty: 3},
		{symbol: "AAPL", qty: 1},
	}
	for _, tc := range tests {
		out, sale, err := Sell(lots, tc.symbol, 10, tc.qty)
		if !errors.Is(err, ErrInsufficientHoldings) {
			t.Fatalf("%s x%d expected ErrInsufficientHoldings, got %v", tc.symbol, tc.qty, err)
		}
		if len(out) != 1 || out[0].Quantity != 2 || sale.Proceeds != 0 {
			t.Fatalf("rejected sell changed holdings: %+v %+v", out, sale)
		}
	}
}

func TestAccrueDividends(t *testing.T) {
	instruments := []market.Instrument{
		{Symbol: "IBM", Price: 100, DividendYield: 0.04},
		{Symbol: "KO", Price: 1, DividendYield: 0.03},
		{Symbol: "TSLA", Price: 300},
	}
	lots := []Lot{
		{Symbol: "IBM", Quantity: 5, AvgPrice: 90},
		{Symbol: "KO", Quantity: 1, AvgPrice: 1},
		{Symbol: "TSLA", Quantity: 10, AvgPrice: 100},
		{Symbol: "GONE", Quantity: 10, AvgPrice: 100},
	}
	acc := AccrueDividends(lots, instruments, DefaultMateriality)
	ibm := 100 * 5 * 0.04 / 365
	ko := 1 * 1 * 0.03 / 365
	if !near(acc.Total, ibm+ko) {
		t.Fatalf("total got=%v want=%v", acc.Total, ibm+ko)
	}
	if len(acc.Details) != 1 || acc.Details[0].Symbol != "IBM" || !near(acc.Details[0].Amount, ibm) {
		t.Fatalf("unexpected details %+v", acc.Details)
	}
	if math.Abs(ibm-0.0548) > 0.0001 {
		t.Fatalf("expected ~0.0548 daily, got %v", ibm)
	}
}

func TestNetWorthConservedAcrossBuy(t *testing.T) {
	instruments := []market.Instrument{{Symbol: "AAPL", Price: 12.34}}
	cash := 1000.0
	before := NetWorth(cash, nil, instruments)
	lots, cost, _ := Buy(nil, "AAPL", 12.34, 17)
	after := NetWorth(cash-cost, lots, instruments)
	if !near(before, after) {
		t.Fatalf("net worth before=%v after=%v", before, after)
	}
}
