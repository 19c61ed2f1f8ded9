package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"wallst/internal/game"
	"wallst/internal/market"
)

type midRand struct{}

func (midRand) Float64() float64 { return 0.5 }
func (midRand) Intn(int) int     { return 0 }

func newTestModel(t *testing.T) (*Model, *game.Engine) {
	t.Helper()
	cfg := game.DefaultConfig()
	cfg.TickInterval = time.Hour
	cfg.DividendLogRate = 0
	e := game.NewEngine(cfg, game.Options{Rand: midRand{}})
	if _, err := e.Start(market.ModeRandom, 2000, 10_000); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = e.Close(context.Background()) })
	return NewModel(e), e
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m *Model, msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = m.Update(msg)
	}
	return cmd
}

func TestTogglePlayAndSpeed(t *testing.T) {
	m, e := newTestModel(t)
	press(m, tea.KeyMsg{Type: tea.KeySpace})
	if e.Snapshot().Playing || m.state.Playing {
		t.Fatalf("expected game paused")
	}
	press(m, runes("3"))
	if m.state.Speed != game.SpeedFast {
		t.Fatalf("expected fast speed, got %v", m.state.Speed)
	}
	if !strings.Contains(m.View(), "PAUSED") {
		t.Fatalf("expected paused header")
	}
}

func TestBuyAndSellThroughQuantityPrompt(t *testing.T) {
	m, e := newTestModel(t)
	// cursor starts on the first instrument
	sym := m.state.Instruments[0].Symbol

	press(m, runes("b"))
	if m.mode != modeQuantity {
		t.Fatalf("expected quantity prompt")
	}
	press(m, runes("4"), tea.KeyMsg{Type: tea.KeyEnter})
	if m.mode != modeBrowse {
		t.Fatalf("expected prompt closed")
	}
	st := e.Snapshot()
	if len(st.Holdings) != 1 || st.Holdings[0].Symbol != sym || st.Holdings[0].Quantity != 4 {
		t.Fatalf("unexpected holdings %+v", st.Holdings)
	}

	press(m, runes("s"), runes("9"), tea.KeyMsg{Type: tea.KeyEnter})
	if m.status == "" {
		t.Fatalf("expected oversell status")
	}
	if !strings.HasPrefix(m.state.Messages[0], "ERROR: Not enough") {
		t.Fatalf("expected rejection logged, got %q", m.state.Messages[0])
	}

	press(m, runes("s"), runes("x"), tea.KeyMsg{Type: tea.KeyEnter})
	if !strings.Contains(m.status, "whole number") {
		t.Fatalf("expected parse status, got %q", m.status)
	}

	press(m, runes("s"), tea.KeyMsg{Type: tea.KeyEsc})
	if m.mode != modeBrowse {
		t.Fatalf("esc should cancel prompt")
	}
}

func TestUnlockSelectedGroup(t *testing.T) {
	m, e := newTestModel(t)
	target := -1
	for i, in := range m.state.Instruments {
		if in.Group == market.GroupNYSE {
			target = i
			break
		}
	}
	if target < 0 {
		t.Fatalf("catalog has no NYSE instrument")
	}
	for i := 0; i < target; i++ {
		press(m, tea.KeyMsg{Type: tea.KeyDown})
	}
	press(m, runes("u"))
	if !e.Snapshot().IsUnlocked(market.GroupNYSE) {
		t.Fatalf("expected NYSE unlocked")
	}
	press(m, runes("u"))
	if m.status == "" {
		t.Fatalf("expected already-unlocked status")
	}
}

func TestEndShowsSummary(t *testing.T) {
	m, e := newTestModel(t)
	cmd := press(m, runes("q"))
	if cmd == nil {
		t.Fatalf("expected end command")
	}
	press(m, cmd())
	if m.mode != modeEnded || e.Phase() != game.PhaseEnded {
		t.Fatalf("expected ended, mode=%v phase=%v", m.mode, e.Phase())
	}
	if !strings.Contains(m.View(), "GAME OVER") {
		t.Fatalf("expected summary view")
	}
	if cmd := press(m, runes("x")); cmd == nil {
		t.Fatalf("expected quit after summary")
	}
}

func TestStateMsgRelistens(t *testing.T) {
	m, e := newTestModel(t)
	st := e.Tick()
	_, cmd := m.Update(stateMsg(st))
	if cmd == nil {
		t.Fatalf("expected listen command")
	}
	if !m.state.Date.Equal(st.Date) {
		t.Fatalf("state not applied")
	}
}

func TestMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{in: 0, want: "$0.00"},
		{in: 1234.5, want: "$1234.50"},
		{in: -3.1, want: "-$3.10"},
	}
	for _, tc := range tests {
		if got := money(tc.in); got != tc.want {
			t.Fatalf("money(%v) got=%q want=%q", tc.in, got, tc.want)
		}
	}
}
