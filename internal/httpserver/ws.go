package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/codemytelab/gamezone/internal/game"
)

// WebSocket message types sent by the server.
const (
	msgState   = "state"
	msgVerdict = "verdict"
	msgError   = "error"
)

// wsMessage is the envelope for both directions. Inbound types are the
// player intents (select_difficulty, select_option, submit, toggle_hint,
// go_back, reset, retry).
type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type wsIntent struct {
	Level string `json:"level"`
	Value string `json:"value"`
}

// safeConn serializes writes; watcher callbacks and the read loop both write.
type safeConn struct {
	conn    *websocket.Conn
	mu      sync.Mutex
	version int // last state version written
}

func (sc *safeConn) send(typ string, v any) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.write(typ, v)
}

// sendState writes a state message unless a newer one already went out.
func (sc *safeConn) sendState(res stateRes) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if res.Version <= sc.version {
		return
	}
	sc.version = res.Version
	sc.write(msgState, res)
}

// write sends one envelope; callers hold sc.mu.
func (sc *safeConn) write(typ string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("type", typ).Msg("ws marshal")
		return
	}
	if err := sc.conn.WriteJSON(wsMessage{Type: typ, Payload: payload}); err != nil {
		log.Debug().Err(err).Msg("ws write")
	}
}

// handleWS streams snapshots of one session and accepts intents over the socket.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	if _, err := s.m.Get(ctx, id); err != nil {
		s.writeError(w, r, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(4096)
	sc := &safeConn{conn: conn, version: -1}

	// Watch before reading the first state so no commit falls between the
	// two; sendState discards whichever of them is older.
	cancel := s.m.Watch(id, func(snap game.Snapshot) {
		sc.sendState(s.render(ctx, snap))
	})
	defer cancel()

	sess, err := s.m.Get(ctx, id)
	if err != nil {
		_, code := errorStatus(err)
		sc.send(msgError, errorRes{Error: code, Message: err.Error()})
		return
	}
	sc.sendState(s.render(ctx, sess.Snapshot()))
	log.Debug().Str("session", id).Msg("ws connected")

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("session", id).Msg("ws read")
			}
			return
		}
		s.handleWSMessage(ctx, sc, id, msg)
	}
}

func (s *Server) handleWSMessage(ctx context.Context, sc *safeConn, id string, msg wsMessage) {
	in, err := parseWSIntent(msg)
	if err != nil {
		status, code := errorStatus(err)
		sc.send(msgError, errorRes{Error: code, Message: http.StatusText(status) + ": " + err.Error()})
		return
	}
	// The new snapshot reaches the client through the watcher.
	_, v, err := s.m.Dispatch(ctx, id, in)
	if err != nil {
		_, code := errorStatus(err)
		sc.send(msgError, errorRes{Error: code, Message: err.Error()})
		return
	}
	if in.Type == game.IntentSubmit {
		sc.send(msgVerdict, v)
	}
}

// parseWSIntent decodes a client message. RevealSummary is server-only.
func parseWSIntent(msg wsMessage) (game.Intent, error) {
	var p wsIntent
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return game.Intent{}, game.ErrUnknownIntent
		}
	}
	in := game.Intent{Type: game.IntentType(msg.Type), Value: p.Value}
	switch in.Type {
	case game.IntentSelectDifficulty:
		d, err := game.ParseDifficulty(p.Level)
		if err != nil {
			return game.Intent{}, err
		}
		in.Difficulty = d
	case game.IntentSelectOption, game.IntentSubmit, game.IntentToggleHint,
		game.IntentGoBack, game.IntentReset, game.IntentRetry:
	default:
		return game.Intent{}, game.ErrUnknownIntent
	}
	return in, nil
}
