package main

import "testing"

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{in: 0, want: "$0.00"},
		{in: 12.345, want: "$12.35"},
		{in: 1234567.8, want: "$1,234,567.80"},
		{in: -2500, want: "-$2,500.00"},
	}
	for _, tc := range tests {
		if got := formatMoney(tc.in); got != tc.want {
			t.Fatalf("formatMoney(%v) got=%q want=%q", tc.in, got, tc.want)
		}
	}
}

func TestParseBuys(t *testing.T) {
	lots, err := parseBuys([]string{"aapl:10", " MSFT : 3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lots) != 2 || lots[0].Symbol != "AAPL" || lots[0].Quantity != 10 || lots[1].Symbol != "MSFT" || lots[1].Quantity != 3 {
		t.Fatalf("unexpected lots %+v", lots)
	}
	for _, bad := range []string{"AAPL", "AAPL:0", "AAPL:x", "AAPL:-2"} {
		if _, err := parseBuys([]string{bad}); err == nil {
			t.Fatalf("expected %q to fail", bad)
		}
	}
}
