package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	mathrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"wallst/internal/market"
	"wallst/internal/news"
)

type Rand interface {
	Float64() float64
	Intn(n int) int
}

// ScoreRecorder persists finished games.
type ScoreRecorder interface {
	Record(ctx context.Context, score HighScore) error
}

// SessionStore keeps the in-progress game across restarts.
type SessionStore interface {
	Save(ctx context.Context, state GameState) error
	Clear(ctx context.Context) error
}

type Options struct {
	Source   market.PriceSource
	Feed     *news.Feed
	Rand     Rand
	Scores   ScoreRecorder
	Sessions SessionStore
	Logger   *slog.Logger
	Now      func() time.Time
}

// schedule is one running tick loop. It is never reused: pausing or changing
// speed closes it and a new one is made.
type schedule struct {
	every time.Duration
	stop  chan struct{}
}

// Engine owns the single game session.
type Engine struct {
	cfg      Config
	source   market.PriceSource
	step     stepper
	scores   ScoreRecorder
	sessions SessionStore
	log      *slog.Logger
	now      func() time.Time

	mu    sync.Mutex
	phase Phase
	state GameState
	sched *schedule
	subs  map[int]chan GameState
	subID int

	wg sync.WaitGroup
}

func NewEngine(cfg Config, opts Options) *Engine {
	cfg = cfg.withDefaults()
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Rand == nil {
		opts.Rand = &lockedRand{r: mathrand.New(mathrand.NewSource(time.Now().UnixNano()))}
	}
	if opts.Feed == nil {
		opts.Feed = news.DefaultFeed()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	model := market.NewModel(opts.Source, opts.Rand)
	model.HistoryCap = cfg.HistoryCap
	return &Engine{
		cfg:      cfg,
		source:   opts.Source,
		step:     stepper{cfg: cfg, model: model, feed: opts.Feed, rnd: opts.Rand},
		scores:   opts.Scores,
		sessions: opts.Sessions,
		log:      opts.Logger,
		now:      opts.Now,
		phase:    PhaseSetup,
		subs:     make(map[int]chan GameState),
	}
}

func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

func (e *Engine) Summary() Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Summarize(e.state)
}

// Start begins a new game. A running game must be ended first.
func (e *Engine) Start(mode market.Mode, startYear int, initialCash float64) (GameState, error) {
	if err := e.cfg.ValidateStart(mode, startYear, initialCash); err != nil {
		return GameState{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase == PhaseRunning {
		return e.state.Clone(), fmt.Errorf("%w: game already running", ErrInvalidPhase)
	}
	e.stopLocked()
	e.state = NewGameState(e.cfg, e.source, mode, startYear, initialCash)
	e.phase = PhaseRunning
	e.startLocked(e.state.Speed)
	e.log.Info("game started", "mode", mode, "start_year", startYear, "initial_cash", initialCash)
	e.publishLocked()
	return e.state.Clone(), nil
}

// Resume restores a saved session, paused.
func (e *Engine) Resume(saved GameState) (GameState, error) {
	if saved.Date.IsZero() || saved.StartDate.IsZero() || saved.InitialCash <= 0 || len(saved.Instruments) == 0 {
		return GameState{}, fmt.Errorf("%w: saved session is incomplete", ErrInvalidSetup)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase == PhaseRunning {
		return e.state.Clone(), fmt.Errorf("%w: game already running", ErrInvalidPhase)
	}
	e.stopLocked()
	st := saved.Clone()
	st.Playing = false
	if st.Speed <= 0 {
		st.Speed = e.cfg.TickInterval
	}
	if len(st.Unlocked) == 0 {
		st.Unlocked = []market.Group{e.cfg.BaseGroup}
	}
	e.state = st
	e.phase = PhaseRunning
	e.log.Info("game resumed", "date", st.Date.Format("2006-01-02"), "mode", st.Mode)
	e.publishLocked()
	return e.state.Clone(), nil
}

// Tick advances one simulated day. It does nothing unless the game is
// running and playing.
func (e *Engine) Tick() GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickLocked()
	return e.state.Clone()
}

func (e *Engine) tickLocked() {
	if e.phase != PhaseRunning || !e.state.Playing {
		return
	}
	e.state = e.step.advance(e.state)
	e.publishLocked()
}

func (e *Engine) TogglePlay() (GameState, error) {
	e.mu.Lock()
	if e.phase != PhaseRunning {
		defer e.mu.Unlock()
		return e.state.Clone(), ErrInvalidPhase
	}
	next := e.state
	next.Playing = !e.state.Playing
	e.state = next
	if next.Playing {
		e.startLocked(next.Speed)
	} else {
		e.stopLocked()
	}
	e.publishLocked()
	snap := e.state.Clone()
	e.mu.Unlock()

	if !snap.Playing {
		e.saveSession(snap)
	}
	return snap, nil
}

// SetSpeed changes the tick period. A playing game gets a fresh schedule.
func (e *Engine) SetSpeed(every time.Duration) (GameState, error) {
	if every <= 0 {
		return e.Snapshot(), ErrInvalidSpeed
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhaseRunning {
		return e.state.Clone(), ErrInvalidPhase
	}
	next := e.state
	next.Speed = every
	e.state = next
	if next.Playing {
		e.stopLocked()
		e.startLocked(every)
	}
	e.log.Debug("speed changed", "every", every)
	e.publishLocked()
	return e.state.Clone(), nil
}

func (e *Engine) Buy(symbol string, qty int64) (GameState, error) {
	return e.apply(func(s GameState) (GameState, error) { return e.step.buy(s, symbol, qty) })
}

func (e *Engine) Sell(symbol string, qty int64) (GameState, error) {
	return e.apply(func(s GameState) (GameState, error) { return e.step.sell(s, symbol, qty) })
}

// PlaceOrder routes an order to Buy or Sell by side.
func (e *Engine) PlaceOrder(in OrderInput) (GameState, error) {
	switch strings.ToLower(strings.TrimSpace(in.Side)) {
	case "buy":
		return e.Buy(in.Symbol, in.Quantity)
	case "sell":
		return e.Sell(in.Symbol, in.Quantity)
	default:
		return e.Snapshot(), fmt.Errorf("side must be buy or sell")
	}
}

func (e *Engine) BuyInsiderTip() (GameState, error) {
	return e.apply(e.step.tip)
}

// BuyExchangeLicense unlocks group for cost.
func (e *Engine) BuyExchangeLicense(group market.Group, cost float64) (GameState, error) {
	return e.apply(func(s GameState) (GameState, error) { return e.step.license(s, group, cost) })
}

// UnlockGroup buys the license for group at its configured price.
func (e *Engine) UnlockGroup(group market.Group) (GameState, error) {
	group = market.Group(strings.ToUpper(strings.TrimSpace(string(group))))
	cost, ok := e.cfg.LicenseCost(group)
	if !ok {
		return e.Snapshot(), fmt.Errorf("%w: unknown market group %q", ErrInstrumentNotFound, group)
	}
	return e.BuyExchangeLicense(group, cost)
}

// apply commits the state returned by fn even when fn reports an error, so
// rejected actions keep their log message.
func (e *Engine) apply(fn func(GameState) (GameState, error)) (GameState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhaseRunning {
		return e.state.Clone(), ErrInvalidPhase
	}
	next, err := fn(e.state)
	e.state = next
	e.publishLocked()
	return e.state.Clone(), err
}

// End finishes the running game and records its score. Calling End on a
// game that is not running returns ErrInvalidPhase and records nothing.
func (e *Engine) End(ctx context.Context) (HighScore, error) {
	e.mu.Lock()
	if e.phase != PhaseRunning {
		e.mu.Unlock()
		return HighScore{}, ErrInvalidPhase
	}
	e.stopLocked()
	next := e.state
	next.Playing = false
	e.state = next
	e.phase = PhaseEnded
	score := NewHighScore(next, uuid.NewString(), e.now())
	e.publishLocked()
	e.mu.Unlock()

	e.log.Info("game ended",
		"net_worth", score.NetWorth,
		"return_pct", score.ReturnPct,
		"years_played", score.YearsPlayed,
	)

	var errs []error
	if e.scores != nil {
		if err := e.scores.Record(ctx, score); err != nil {
			e.log.Error("record high score failed", "err", err)
			errs = append(errs, fmt.Errorf("record score: %w", err))
		}
	}
	if e.sessions != nil {
		if err := e.sessions.Clear(ctx); err != nil {
			e.log.Warn("clear session failed", "err", err)
		}
	}
	return score, errors.Join(errs...)
}

// Subscribe returns a channel that receives a snapshot after every state
// change. Slow receivers miss snapshots instead of blocking the engine.
func (e *Engine) Subscribe(buffer int) (<-chan GameState, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan GameState, buffer)
	e.mu.Lock()
	id := e.subID
	e.subID++
	e.subs[id] = ch
	e.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			if c, ok := e.subs[id]; ok {
				delete(e.subs, id)
				close(c)
			}
		})
	}
	return ch, cancel
}

// Close stops the schedule, saves a running game and closes subscriptions.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	e.stopLocked()
	running := e.phase == PhaseRunning
	if running {
		next := e.state
		next.Playing = false
		e.state = next
	}
	snap := e.state.Clone()
	for id, c := range e.subs {
		delete(e.subs, id)
		close(c)
	}
	e.mu.Unlock()
	e.wg.Wait()

	if running && e.sessions != nil {
		if err := e.sessions.Save(ctx, snap); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
	}
	return nil
}

func (e *Engine) publishLocked() {
	if len(e.subs) == 0 {
		return
	}
	snap := e.state.Clone()
	for _, c := range e.subs {
		select {
		case c <- snap:
		default:
		}
	}
}

func (e *Engine) startLocked(every time.Duration) {
	if every <= 0 {
		every = e.cfg.TickInterval
	}
	s := &schedule{every: every, stop: make(chan struct{})}
	e.sched = s
	e.wg.Add(1)
	go e.run(s)
}

func (e *Engine) stopLocked() {
	if e.sched == nil {
		return
	}
	close(e.sched.stop)
	e.sched = nil
}

func (e *Engine) run(s *schedule) {
	defer e.wg.Done()
	ticker := time.NewTicker(s.every)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			e.mu.Lock()
			// a tick that raced a stop belongs to a dead schedule
			if e.sched == s {
				e.tickLocked()
			}
			e.mu.Unlock()
		}
	}
}

func (e *Engine) saveSession(s GameState) {
	if e.sessions == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.sessions.Save(ctx, s); err != nil {
		e.log.Warn("save session failed", "err", err)
	}
}

// lockedRand guards a math/rand source shared by the tick loop and actions.
type lockedRand struct {
	mu sync.Mutex
	r  *mathrand.Rand
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}
