// internal/httpserver/server.go
//
// HTTP server wiring for the game zone backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, i18n).
//   - Public endpoints: "/", "/health", "/games".
//   - Session creation: POST /games/{game}/sessions returns a session ID and token.
//   - Session intents (token required): difficulty, select, answer, hint, back,
//     reset, retry, plus GET/DELETE of the session and a WebSocket stream.
//
// Notes:
//   - Snapshots never include expected answers.
//   - A token grants access to one session only.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/codemytelab/gamezone/internal/convert"
	"github.com/codemytelab/gamezone/internal/game"
	"github.com/codemytelab/gamezone/internal/hacker"
	"github.com/codemytelab/gamezone/internal/i18n"
	"github.com/codemytelab/gamezone/internal/session"
	"github.com/codemytelab/gamezone/internal/store"
)

// Options configures a Server.
type Options struct {
	JWTSecret     string
	TokenTTL      time.Duration
	ClientOrigin  string
	Lang          string
	SecureCookies bool
}

// Server bundles router, session manager and token issuer.
type Server struct {
	r        *chi.Mux
	m        *session.Manager
	tokens   tokens
	opts     Options
	upgrader websocket.Upgrader
	http     *http.Server
}

// New constructs a Server, installs middleware, and registers routes.
func New(m *session.Manager, opts Options) *Server {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 12 * time.Hour
	}
	if opts.Lang == "" {
		opts.Lang = "en"
	}
	s := &Server{
		r:      chi.NewRouter(),
		m:      m,
		tokens: tokens{secret: []byte(opts.JWTSecret), ttl: opts.TokenTTL},
		opts:   opts,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)              // add X-Request-ID
	s.r.Use(chimw.RealIP)                 // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(requestLogger)                // zerolog access log
	s.r.Use(chimw.Recoverer)              // recover from panics
	s.r.Use(corsFor(opts.ClientOrigin))   // credentials-friendly CORS
	s.r.Use(i18n.Middleware(opts.Lang))   // localizer per request

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
		r.Use(jsonContentType)                 // default JSON responses

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"service":"gamezone","endpoints":["/health","/games","POST /games/{game}/sessions","/sessions/{id}/*"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ok":true}`))
		})

		// Landing page data.
		r.Get("/games", s.handleGames)
		r.Post("/games/{game}/sessions", s.handleCreate)

		// Session intents (token required).
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Use(s.requireSession)
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Post("/difficulty", s.handleDifficulty)
			r.Post("/select", s.handleSelect)
			r.Post("/answer", s.handleAnswer)
			r.Post("/hint", s.intent(game.IntentToggleHint))
			r.Post("/back", s.intent(game.IntentGoBack))
			r.Post("/reset", s.intent(game.IntentReset))
			r.Post("/retry", s.intent(game.IntentRetry))
		})

		// JSON 404 for easier debugging
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, errorRes{Error: "not_found", Message: r.URL.Path})
		})
	})

	// WebSocket stream; long-lived, so outside the timeout group.
	s.r.With(s.requireSession).Get("/sessions/{id}/ws", s.handleWS)

	return s
}

// Start begins serving HTTP on addr and blocks until the server stops.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops a server started with Start.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ------------------------------ responses ----------------------------------

type errorRes struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// stateRes is a snapshot plus the localized text a client needs to render it.
type stateRes struct {
	game.Snapshot
	Instruction string        `json:"instruction,omitempty"`
	Headline    string        `json:"headline,omitempty"`
	Verdict     *game.Verdict `json:"verdict,omitempty"`
}

func (s *Server) render(ctx context.Context, snap game.Snapshot) stateRes {
	res := stateRes{Snapshot: snap}
	if snap.Question != nil {
		res.Instruction = i18n.Instruction(ctx, snap.Question.Kind)
	}
	if snap.Summary != nil {
		res.Headline = i18n.Headline(ctx, snap.Game, snap.Summary.AllCorrect)
	}
	return res
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorStatus maps domain errors to an HTTP status and a stable error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, game.ErrUnknownGame):
		return http.StatusNotFound, "unknown_game"
	case errors.Is(err, game.ErrIllegalTransition):
		return http.StatusConflict, "illegal_transition"
	case errors.Is(err, game.ErrNoActiveQuestion):
		return http.StatusBadRequest, "no_active_question"
	case errors.Is(err, game.ErrInvalidOption):
		return http.StatusBadRequest, "invalid_option"
	case errors.Is(err, game.ErrUnknownDifficulty):
		return http.StatusBadRequest, "unknown_difficulty"
	case errors.Is(err, game.ErrUnknownIntent):
		return http.StatusBadRequest, "unknown_intent"
	case errors.Is(err, game.ErrInsufficientQuestions):
		return http.StatusInternalServerError, "insufficient_questions"
	case errors.Is(err, game.ErrConfiguration):
		return http.StatusInternalServerError, "configuration_error"
	}
	return http.StatusInternalServerError, "internal"
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Str("requestId", chimw.GetReqID(r.Context())).Msg("request failed")
	}
	writeJSON(w, status, errorRes{Error: code, Message: err.Error()})
}

// ------------------------------ GAMES --------------------------------------

type levelInfo struct {
	Level     game.Difficulty `json:"level"`
	Questions int             `json:"questions"`
}

type gameInfo struct {
	ID     game.Game   `json:"id"`
	Title  string      `json:"title"`
	Blurb  string      `json:"blurb"`
	Levels []levelInfo `json:"levels"`
}

// handleGames lists both games with their per-difficulty session sizes.
func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bin := gameInfo{ID: game.GameBinary, Title: i18n.T(ctx, "GameBinaryTitle"), Blurb: i18n.T(ctx, "GameBinaryBlurb")}
	hck := gameInfo{ID: game.GameHacker, Title: i18n.T(ctx, "GameHackerTitle"), Blurb: i18n.T(ctx, "GameHackerBlurb")}
	for _, d := range game.Difficulties {
		bin.Levels = append(bin.Levels, levelInfo{Level: d, Questions: convert.Compositions[d].Total()})
		hck.Levels = append(hck.Levels, levelInfo{Level: d, Questions: hacker.Plans[d].Total()})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"title": i18n.T(ctx, "Welcome"),
		"games": []gameInfo{bin, hck},
	})
}

// newSessionRes is returned by POST /games/{game}/sessions.
type newSessionRes struct {
	SessionID string    `json:"sessionId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	State     stateRes  `json:"state"`
}

// handleCreate opens a session in the difficulty-selection phase and issues its token.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	g, err := game.ParseGame(chi.URLParam(r, "game"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.m.Create(r.Context(), g)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tok, exp, err := s.tokens.sign(sess.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.tokens.setCookie(w, tok, exp, s.opts.SecureCookies)
	writeJSON(w, http.StatusCreated, newSessionRes{
		SessionID: sess.ID,
		Token:     tok,
		ExpiresAt: exp,
		State:     s.render(r.Context(), sess.Snapshot()),
	})
}

// ------------------------------ SESSIONS -----------------------------------

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, err := s.m.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.render(r.Context(), sess.Snapshot()))
}

// handleDelete discards the session (player left the page).
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.m.Discard(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type difficultyReq struct {
	Level string `json:"level"`
}

func (s *Server) handleDifficulty(w http.ResponseWriter, r *http.Request) {
	var req difficultyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorRes{Error: "bad_json"})
		return
	}
	d, err := game.ParseDifficulty(req.Level)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.dispatch(w, r, game.Intent{Type: game.IntentSelectDifficulty, Difficulty: d})
}

type selectReq struct {
	Option string `json:"option"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorRes{Error: "bad_json"})
		return
	}
	s.dispatch(w, r, game.Intent{Type: game.IntentSelectOption, Value: req.Option})
}

type answerReq struct {
	Answer string `json:"answer"`
}

// handleAnswer submits typed text, or an option token for choice questions.
// An empty answer on a choice question submits the selected option.
func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorRes{Error: "bad_json"})
		return
	}
	s.dispatch(w, r, game.Intent{Type: game.IntentSubmit, Value: req.Answer})
}

// intent returns a handler for body-less intents.
func (s *Server) intent(t game.IntentType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.dispatch(w, r, game.Intent{Type: t})
	}
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, in game.Intent) {
	sess, v, err := s.m.Dispatch(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res := s.render(r.Context(), sess.Snapshot())
	if in.Type == game.IntentSubmit {
		res.Verdict = &v
	}
	writeJSON(w, http.StatusOK, res)
}

// ------------------------------ middleware ---------------------------------

// requireSession enforces a valid token for the {id} in the path.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerOrCookie(r)
		if raw == "" {
			writeJSON(w, http.StatusUnauthorized, errorRes{Error: "unauthorized"})
			return
		}
		sid, err := s.tokens.verify(raw)
		if err != nil || sid != chi.URLParam(r, "id") {
			writeJSON(w, http.StatusUnauthorized, errorRes{Error: "invalid_token"})
			return
		}
		s.renewToken(w, sid)
		next.ServeHTTP(w, r)
	})
}

// renewToken slides the token lifetime so an active tab never outlives it.
// The fresh token goes out as a cookie and in the X-Session-Token header.
func (s *Server) renewToken(w http.ResponseWriter, sid string) {
	tok, exp, err := s.tokens.sign(sid)
	if err != nil {
		log.Warn().Err(err).Str("session", sid).Msg("renew token")
		return
	}
	s.tokens.setCookie(w, tok, exp, s.opts.SecureCookies)
	w.Header().Set(tokenHeader, tok)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || origin == s.opts.ClientOrigin || origin == "http://"+r.Host || origin == "https://"+r.Host
}
