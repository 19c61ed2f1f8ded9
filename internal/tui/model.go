package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"wallst/internal/game"
	"wallst/internal/ledger"
	"wallst/internal/market"
)

// Game is the slice of *game.Engine the screen drives.
type Game interface {
	Config() game.Config
	Snapshot() game.GameState
	Summary() game.Summary
	TogglePlay() (game.GameState, error)
	SetSpeed(every time.Duration) (game.GameState, error)
	Buy(symbol string, qty int64) (game.GameState, error)
	Sell(symbol string, qty int64) (game.GameState, error)
	UnlockGroup(group market.Group) (game.GameState, error)
	BuyInsiderTip() (game.GameState, error)
	End(ctx context.Context) (game.HighScore, error)
	Subscribe(buffer int) (<-chan game.GameState, func())
}

type mode int

const (
	modeBrowse mode = iota
	modeQuantity
	modeEnded
)

const visibleMessages = 8

type stateMsg game.GameState

type streamClosedMsg struct{}

type endedMsg struct {
	score   game.HighScore
	summary game.Summary
	err     error
}

// Model is the single-screen game view.
type Model struct {
	game    Game
	updates <-chan game.GameState
	cancel  func()

	state  game.GameState
	cursor int
	mode   mode
	side   string
	qty    textinput.Model

	status  string
	score   game.HighScore
	summary game.Summary

	width  int
	height int
}

func NewModel(g Game) *Model {
	updates, cancel := g.Subscribe(64)
	qty := textinput.New()
	qty.Placeholder = "Quantity"
	qty.CharLimit = 9
	qty.Width = 10
	return &Model{
		game:    g,
		updates: updates,
		cancel:  cancel,
		state:   g.Snapshot(),
		qty:     qty,
	}
}

func (m *Model) Init() tea.Cmd {
	return m.listen()
}

func (m *Model) listen() tea.Cmd {
	ch := m.updates
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return streamClosedMsg{}
		}
		return stateMsg(st)
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case stateMsg:
		m.state = game.GameState(msg)
		return m, m.listen()

	case streamClosedMsg:
		return m, nil

	case endedMsg:
		m.mode = modeEnded
		m.score = msg.score
		m.summary = msg.summary
		m.status = ""
		if msg.err != nil {
			m.status = "Score not saved: " + msg.err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
			return m, tea.Quit
		}
		switch m.mode {
		case modeQuantity:
			return m.updateQuantity(msg)
		case modeEnded:
			m.cancel()
			return m, tea.Quit
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.state.Instruments)-1 {
			m.cursor++
		}
	case " ", "space", "p":
		m.apply(m.game.TogglePlay())
	case "1", "2", "3":
		every, _ := game.SpeedTier(msg.String())
		m.apply(m.game.SetSpeed(every))
	case "b", "s":
		if _, ok := m.selected(); !ok {
			return m, nil
		}
		m.side = "buy"
		if msg.String() == "s" {
			m.side = "sell"
		}
		m.mode = modeQuantity
		m.qty.Reset()
		return m, m.qty.Focus()
	case "u":
		in, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.apply(m.game.UnlockGroup(in.Group))
	case "t":
		m.apply(m.game.BuyInsiderTip())
	case "q", "e":
		g := m.game
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			score, err := g.End(ctx)
			return endedMsg{score: score, summary: g.Summary(), err: err}
		}
	}
	return m, nil
}

func (m *Model) updateQuantity(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeBrowse
		m.qty.Blur()
		return m, nil
	case "enter":
		m.mode = modeBrowse
		m.qty.Blur()
		qty, err := strconv.ParseInt(strings.TrimSpace(m.qty.Value()), 10, 64)
		if err != nil {
			m.status = "Enter a whole number of shares."
			return m, nil
		}
		in, ok := m.selected()
		if !ok {
			return m, nil
		}
		if m.side == "sell" {
			m.apply(m.game.Sell(in.Symbol, qty))
		} else {
			m.apply(m.game.Buy(in.Symbol, qty))
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.qty, cmd = m.qty.Update(msg)
	return m, cmd
}

// apply takes the engine's answer as the new state. Rejections are already in
// the message log, so only the status line changes on error.
func (m *Model) apply(st game.GameState, err error) {
	if len(st.Instruments) > 0 {
		m.state = st
	}
	m.status = ""
	if err != nil {
		m.status = err.Error()
	}
}

func (m *Model) selected() (market.Instrument, bool) {
	if m.cursor < 0 || m.cursor >= len(m.state.Instruments) {
		return market.Instrument{}, false
	}
	return m.state.Instruments[m.cursor], true
}

func (m *Model) View() string {
	if m.mode == modeEnded {
		return m.viewSummary()
	}
	sections := []string{
		m.viewHeader(),
		lipgloss.JoinHorizontal(lipgloss.Top, m.viewMarket(), m.viewMessages()),
	}
	if m.mode == modeQuantity {
		in, _ := m.selected()
		label := titleStyle.Render(fmt.Sprintf("%s %s: ", strings.ToUpper(m.side), in.Symbol))
		sections = append(sections, label+m.qty.View())
	}
	if m.status != "" {
		sections = append(sections, errorStyle.Render(m.status))
	}
	sections = append(sections, m.viewHelp())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) viewHeader() string {
	st := m.state
	play := upStyle.Render("PLAYING")
	if !st.Playing {
		play = downStyle.Render("PAUSED")
	}
	nw := st.NetWorth()
	change := nw - st.InitialCash
	return titleStyle.Render("WALL ST. SIM") + "  " +
		rowStyle.Render(st.Date.Format("Mon Jan 2, 2006")) + "  " +
		play + "  " +
		descStyle.Render(speedLabel(st.Speed)) + "  " +
		headerStyle.Render("Cash ") + rowStyle.Render(money(st.Cash)) + "  " +
		headerStyle.Render("Net ") + signedStyle(change).Render(money(nw))
}

func (m *Model) viewMarket() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-6s %-22s %-7s %12s %8s %8s", "SYM", "NAME", "EXCH", "PRICE", "30D", "HELD")))
	b.WriteByte('\n')
	for i, in := range m.state.Instruments {
		held := int64(0)
		if lot, ok := ledger.Find(m.state.Holdings, in.Symbol); ok {
			held = lot.Quantity
		}
		change := in.Change(30)
		row := fmt.Sprintf("%-6s %-22s %-7s %12s ", in.Symbol, truncate(in.Name, 22), in.Group, money(in.Price))
		pct := signedStyle(change).Render(fmt.Sprintf("%+7.1f%%", change))
		tail := fmt.Sprintf(" %8d", held)

		style := rowStyle
		switch {
		case i == m.cursor:
			style = selectedRowStyle
		case !m.state.IsUnlocked(in.Group):
			style = lockedStyle
		}
		b.WriteString(style.Render(row) + pct + style.Render(tail))
		b.WriteByte('\n')
	}
	return panelStyle.Render(titleStyle.Render("Market") + "\n" + strings.TrimRight(b.String(), "\n"))
}

func (m *Model) viewMessages() string {
	msgs := m.state.Messages
	if len(msgs) > visibleMessages {
		msgs = msgs[:visibleMessages]
	}
	lines := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		style := rowStyle
		switch {
		case strings.HasPrefix(msg, "NEWS:"), strings.HasPrefix(msg, "INSIDER:"):
			style = newsStyle
		case strings.HasPrefix(msg, "ERROR:"):
			style = errorStyle
		case strings.HasPrefix(msg, "DIVIDENDS:"), strings.HasPrefix(msg, "UNLOCKED:"):
			style = upStyle
		}
		lines = append(lines, style.Render(truncate(msg, 60)))
	}
	return panelStyle.Render(titleStyle.Render("News & Log") + "\n" + strings.Join(lines, "\n"))
}

func (m *Model) viewHelp() string {
	keys := [][2]string{
		{"space", "play/pause"},
		{"1-3", "speed"},
		{"b/s", "buy/sell"},
		{"u", "unlock exchange"},
		{"t", fmt.Sprintf("tip (%s)", money(m.game.Config().TipCost))},
		{"q", "end game"},
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, keyStyle.Render(k[0])+descStyle.Render(" "+k[1]))
	}
	return strings.Join(parts, descStyle.Render(" | "))
}

func (m *Model) viewSummary() string {
	s := m.summary
	lines := []string{
		titleStyle.Render("GAME OVER"),
		fmt.Sprintf("%s to %s (%.1f years)", s.StartDate.Format("2006-01-02"), s.EndDate.Format("2006-01-02"), s.YearsPlayed),
		headerStyle.Render("Net worth  ") + rowStyle.Render(money(s.NetWorth)),
		headerStyle.Render("Profit     ") + signedStyle(s.Profit).Render(money(s.Profit)),
		headerStyle.Render("Return     ") + signedStyle(s.ReturnPct).Render(fmt.Sprintf("%+.2f%%", s.ReturnPct)),
		headerStyle.Render("CAGR       ") + signedStyle(s.CAGR).Render(fmt.Sprintf("%+.2f%%", s.CAGR)),
		headerStyle.Render("Dividends  ") + rowStyle.Render(money(s.TotalDividends)),
	}
	if m.status != "" {
		lines = append(lines, errorStyle.Render(m.status))
	}
	lines = append(lines, descStyle.Render("press any key to exit"))
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func speedLabel(d time.Duration) string {
	switch d {
	case game.SpeedSlow:
		return "1x"
	case game.SpeedNormal:
		return "5x"
	case game.SpeedFast:
		return "20x"
	default:
		return d.String() + "/day"
	}
}

func money(v float64) string {
	if v < 0 {
		return "-$" + strconv.FormatFloat(-v, 'f', 2, 64)
	}
	return "$" + strconv.FormatFloat(v, 'f', 2, 64)
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
