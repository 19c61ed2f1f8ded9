package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"wallst/internal/game"
	"wallst/internal/ledger"
	"wallst/internal/market"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func promptRequired(label string) (string, error) {
	for {
		fmt.Printf("%s: ", label)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text != "" {
			return text, nil
		}
		printWarn(label + " is required.")
	}
}

func promptChoice(label string, options []string, defaultValue string) (string, error) {
	normalized := make(map[string]struct{}, len(options))
	for _, opt := range options {
		normalized[strings.ToLower(strings.TrimSpace(opt))] = struct{}{}
	}
	for {
		fmt.Printf("%s (%s) [%s]: ", label, strings.Join(options, "/"), defaultValue)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.ToLower(strings.TrimSpace(text))
		if text == "" {
			text = strings.ToLower(strings.TrimSpace(defaultValue))
		}
		if _, ok := normalized[text]; ok {
			return text, nil
		}
		printWarn("Invalid option. Please pick one of the listed values.")
	}
}

func promptIntRange(label string, min, max, defaultValue int) (int, error) {
	for {
		fmt.Printf("%s (%d-%d) [%d]: ", label, min, max, defaultValue)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return 0, err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return defaultValue, nil
		}
		v, err := strconv.Atoi(text)
		if err != nil {
			printWarn("Enter a whole number.")
			continue
		}
		if v < min || v > max {
			printWarn(fmt.Sprintf("Value must be between %d and %d", min, max))
			continue
		}
		return v, nil
	}
}

func promptInt64(label string, min int64) (int64, error) {
	for {
		text, err := promptRequired(label)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			printWarn("Enter a whole number.")
			continue
		}
		if v < min {
			printWarn(fmt.Sprintf("Value must be >= %d", min))
			continue
		}
		return v, nil
	}
}

func renderState(st game.GameState) {
	accent.Printf("\n== %s ==\n", st.Date.Format("Mon Jan 2, 2006"))
	nw := st.NetWorth()
	fmt.Printf("Cash: %s   Net worth: %s (%s)\n", formatMoney(st.Cash), formatMoney(nw), colorizeMoney(nw-st.InitialCash))
	if len(st.Holdings) > 0 {
		fmt.Println()
		accent.Println("Portfolio")
		fmt.Printf("%-8s %10s %12s %12s %14s\n", "SYMBOL", "QTY", "AVG", "PRICE", "P/L")
		for _, lot := range st.Holdings {
			price := lot.AvgPrice
			if in, ok := market.Find(st.Instruments, lot.Symbol); ok {
				price = in.Price
			}
			pl := (price - lot.AvgPrice) * float64(lot.Quantity)
			fmt.Printf("%-8s %10d %12s %12s %14s\n", lot.Symbol, lot.Quantity, formatMoney(lot.AvgPrice), formatMoney(price), colorizeMoney(pl))
		}
	}
	renderMessages(st.Messages, 5)
}

func renderMarket(st game.GameState) {
	accent.Println("\n== MARKET ==")
	fmt.Printf("%-6s %-24s %-7s %12s %9s %9s\n", "SYMBOL", "NAME", "EXCH", "PRICE", "30D", "1Y")
	for _, in := range st.Instruments {
		line := fmt.Sprintf("%-6s %-24s %-7s %12s ", in.Symbol, truncate(in.Name, 24), in.Group, formatMoney(in.Price))
		if !st.IsUnlocked(in.Group) {
			line = color.HiBlackString(line)
		}
		fmt.Printf("%s%9s %9s\n", line, colorizePercent(in.Change(30)), colorizePercent(in.Change(365)))
	}
	fmt.Println()
}

func renderMessages(msgs []string, limit int) {
	if len(msgs) == 0 {
		return
	}
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	fmt.Println()
	accent.Println("Latest")
	for _, m := range msgs {
		switch {
		case strings.HasPrefix(m, "ERROR:"):
			printError(m)
		case strings.HasPrefix(m, "NEWS:"), strings.HasPrefix(m, "INSIDER:"):
			printWarn(m)
		case strings.HasPrefix(m, "SOLD:"), strings.HasPrefix(m, "BOUGHT:"), strings.HasPrefix(m, "UNLOCKED:"), strings.HasPrefix(m, "DIVIDENDS:"):
			printSuccess(m)
		default:
			printInfo(m)
		}
	}
}

func renderSummary(s game.Summary) {
	accent.Println("\n== GAME OVER ==")
	fmt.Printf("Period:     %s to %s (%.1f years)\n", s.StartDate.Format("2006-01-02"), s.EndDate.Format("2006-01-02"), s.YearsPlayed)
	fmt.Printf("Net worth:  %s\n", formatMoney(s.NetWorth))
	fmt.Printf("Profit:     %s\n", colorizeMoney(s.Profit))
	fmt.Printf("Return:     %s\n", colorizePercent(s.ReturnPct))
	fmt.Printf("CAGR:       %s\n", colorizePercent(s.CAGR))
	fmt.Printf("Dividends:  %s\n\n", formatMoney(s.TotalDividends))
}

func renderScores(scores []game.HighScore) {
	accent.Println("\n== HIGH SCORES ==")
	if len(scores) == 0 {
		printInfo("No games finished yet.")
		return
	}
	fmt.Printf("%-4s %-12s %-11s %6s %8s %16s %10s\n", "#", "DATE", "MODE", "START", "YEARS", "NET WORTH", "RETURN")
	for i, s := range scores {
		fmt.Printf("%-4d %-12s %-11s %6d %8.1f %16s %10s\n",
			i+1,
			s.RecordedAt.Local().Format("2006-01-02"),
			s.Mode,
			s.StartYear,
			s.YearsPlayed,
			formatMoney(s.NetWorth),
			colorizePercent(s.ReturnPct),
		)
	}
	fmt.Println()
}

func renderLicenses(st game.GameState, costs map[market.Group]float64) {
	accent.Println("\n== EXCHANGE LICENSES ==")
	for _, g := range market.Groups() {
		cost, ok := costs[g]
		if !ok {
			continue
		}
		status := danger.Sprint("locked")
		if st.IsUnlocked(g) {
			status = success.Sprint("unlocked")
		}
		fmt.Printf("%-8s %14s  %s\n", g, formatMoney(cost), status)
	}
	fmt.Println()
}

func colorizeMoney(v float64) string {
	text := signedMoney(v)
	switch {
	case v > 0:
		return success.Sprint(text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func colorizePercent(v float64) string {
	text := fmt.Sprintf("%+.2f%%", v)
	switch {
	case v > 0:
		return success.Sprint(text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func formatMoney(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	cents := int64(v*100 + 0.5)
	return fmt.Sprintf("%s$%s.%02d", sign, comma(cents/100), cents%100)
}

func signedMoney(v float64) string {
	if v > 0 {
		return "+" + formatMoney(v)
	}
	return formatMoney(v)
}

func comma(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
		if len(s) > pre {
			b.WriteByte(',')
		}
	}
	for i := pre; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

// parseBuys reads SYMBOL:QTY pairs.
func parseBuys(specs []string) ([]ledger.Lot, error) {
	out := make([]ledger.Lot, 0, len(specs))
	for _, spec := range specs {
		sym, qtyText, ok := strings.Cut(spec, ":")
		if !ok {
			return nil, fmt.Errorf("buy %q must look like SYMBOL:QTY", spec)
		}
		qty, err := strconv.ParseInt(strings.TrimSpace(qtyText), 10, 64)
		if err != nil || qty <= 0 {
			return nil, fmt.Errorf("buy %q needs a positive whole quantity", spec)
		}
		out = append(out, ledger.Lot{Symbol: strings.ToUpper(strings.TrimSpace(sym)), Quantity: qty})
	}
	return out, nil
}
