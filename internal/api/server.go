package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"wallst/internal/config"
	"wallst/internal/game"
	"wallst/internal/ledger"
	"wallst/internal/market"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type ScoreLister interface {
	List(ctx context.Context) ([]game.HighScore, error)
}

type SessionLoader interface {
	Load(ctx context.Context) (game.GameState, bool, error)
}

type Server struct {
	cfg      config.APIConfig
	log      *slog.Logger
	game     *game.Engine
	scores   ScoreLister
	sessions SessionLoader
	mux      *chi.Mux
}

func New(cfg config.APIConfig, logger *slog.Logger, engine *game.Engine, scores ScoreLister, sessions SessionLoader) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		log:      logger,
		game:     engine,
		scores:   scores,
		sessions: sessions,
		mux:      chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		// long-lived, so outside the request timeout
		r.Get("/stream", s.handleStream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))
			r.Get("/state", s.handleState)
			r.Get("/summary", s.handleSummary)
			r.Get("/instruments/{symbol}", s.handleInstrument)
			r.Get("/licenses", s.handleLicenseList)
			r.Get("/scores", s.handleScores)

			r.Post("/game/start", s.handleStart)
			r.Post("/game/resume", s.handleResume)
			r.Post("/game/end", s.handleEnd)
			r.Post("/game/toggle", s.handleToggle)
			r.Post("/game/speed", s.handleSpeed)
			r.Post("/game/tick", s.handleTick)

			r.Post("/orders", s.handleOrder)
			r.Post("/licenses", s.handleLicense)
			r.Post("/tips", s.handleTip)
		})
	})
}

type stateView struct {
	Phase    game.Phase     `json:"phase"`
	NetWorth float64        `json:"net_worth"`
	State    game.GameState `json:"state"`
}

func (s *Server) view(st game.GameState) stateView {
	return stateView{Phase: s.game.Phase(), NetWorth: st.NetWorth(), State: st}
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.view(s.game.Snapshot()))
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	if s.game.Phase() == game.PhaseSetup {
		writeDomainError(w, game.ErrInvalidPhase)
		return
	}
	writeJSON(w, http.StatusOK, s.game.Summary())
}

func (s *Server) handleInstrument(w http.ResponseWriter, r *http.Request) {
	st := s.game.Snapshot()
	in, ok := market.Find(st.Instruments, chi.URLParam(r, "symbol"))
	if !ok {
		writeDomainError(w, game.ErrInstrumentNotFound)
		return
	}
	lot, _ := ledger.Find(st.Holdings, in.Symbol)
	writeJSON(w, http.StatusOK, map[string]any{
		"instrument": in,
		"change_30d": in.Change(30),
		"change_1y":  in.Change(365),
		"unlocked":   st.IsUnlocked(in.Group),
		"holding":    lot,
	})
}

func (s *Server) handleLicenseList(w http.ResponseWriter, _ *http.Request) {
	st := s.game.Snapshot()
	cfg := s.game.Config()
	out := make([]map[string]any, 0, len(cfg.LicenseCosts))
	for _, g := range market.Groups() {
		cost, ok := cfg.LicenseCost(g)
		if !ok {
			continue
		}
		out = append(out, map[string]any{"group": g, "cost": cost, "unlocked": st.IsUnlocked(g)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"licenses": out})
}

func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	scores, err := s.scores.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scores": scores})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Mode        string  `json:"mode"`
		StartYear   int     `json:"start_year"`
		InitialCash float64 `json:"initial_cash"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	mode, ok := market.ParseMode(in.Mode)
	if !ok {
		writeError(w, http.StatusBadRequest, "mode must be HISTORICAL or RANDOM")
		return
	}
	if in.InitialCash == 0 {
		in.InitialCash = s.game.Config().InitialCash
	}
	st, err := s.game.Start(mode, in.StartYear, in.InitialCash)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.view(st))
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	saved, ok, err := s.sessions.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no saved session")
		return
	}
	st, err := s.game.Resume(saved)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(st))
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	score, err := s.game.End(r.Context())
	if errors.Is(err, game.ErrInvalidPhase) {
		writeDomainError(w, err)
		return
	}
	if err != nil {
		s.log.Error("end game persistence failed", "err", err)
	}
	writeJSON(w, http.StatusOK, map[string]any{"score": score, "summary": s.game.Summary()})
}

func (s *Server) handleToggle(w http.ResponseWriter, _ *http.Request) {
	st, err := s.game.TogglePlay()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(st))
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Tier    string `json:"tier"`
		EveryMS int64  `json:"every_ms"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	every := time.Duration(in.EveryMS) * time.Millisecond
	if in.Tier != "" {
		d, ok := game.SpeedTier(in.Tier)
		if !ok {
			writeError(w, http.StatusBadRequest, "tier must be slow, normal or fast")
			return
		}
		every = d
	}
	st, err := s.game.SetSpeed(every)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(st))
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Days int `json:"days"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if in.Days <= 0 {
		in.Days = 1
	}
	if in.Days > 3660 {
		writeError(w, http.StatusBadRequest, "days must be <= 3660")
		return
	}
	var st game.GameState
	for i := 0; i < in.Days; i++ {
		st = s.game.Tick()
	}
	writeJSON(w, http.StatusOK, s.view(st))
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	var in game.OrderInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	st, err := s.game.PlaceOrder(in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(st))
}

func (s *Server) handleLicense(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Group string `json:"group"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	st, err := s.game.UnlockGroup(market.Group(in.Group))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(st))
}

func (s *Server) handleTip(w http.ResponseWriter, _ *http.Request) {
	st, err := s.game.BuyInsiderTip()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tip": firstMessage(st), "state": s.view(st)})
}

func firstMessage(st game.GameState) string {
	if len(st.Messages) == 0 {
		return ""
	}
	return st.Messages[0]
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrInsufficientFunds), errors.Is(err, game.ErrInsufficientHoldings):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, game.ErrGroupLocked):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, game.ErrInstrumentNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrAlreadyUnlocked), errors.Is(err, game.ErrInvalidPhase):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrInvalidSetup), errors.Is(err, game.ErrInvalidSpeed), errors.Is(err, ledger.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
