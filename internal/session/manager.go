// internal/session/manager.go
//
// Manager owns live play-throughs for every front end (HTTP, WebSocket).
// Responsibilities:
//   - Create sessions and give them stable IDs.
//   - Serialize intents: one transition at a time, applied through game.Apply.
//   - Stage the summary: after the final answer a timer dispatches RevealSummary.
//   - Fan out new snapshots to watchers (open WebSocket connections).
//
// Timers are never cancelled. A reset or retry bumps the session round, and a
// stale RevealSummary is rejected by the state machine. Timers live in memory
// only; a pending summary found on load is revealed or rearmed there.

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/codemytelab/gamezone/internal/game"
	"github.com/codemytelab/gamezone/internal/store"
)

// DefaultSummaryDelay keeps the final cell observable before the summary replaces the board.
const DefaultSummaryDelay = 400 * time.Millisecond

// WatchFunc receives every committed snapshot of one session.
type WatchFunc func(game.Snapshot)

// Manager dispatches intents to stored sessions.
type Manager struct {
	store    store.Store
	builders map[game.Game]game.Builder
	delay    time.Duration
	now      func() time.Time

	mu       sync.Mutex // serializes transitions and guards watchers and timers
	watchers map[string]map[int]*watcher
	nextWID  int
	timers   map[string]int // session ID -> round with a summary timer armed
}

// watcher delivers snapshots to one callback in version order.
type watcher struct {
	fn   WatchFunc
	mu   sync.Mutex
	seen int
}

// deliver calls fn unless a newer snapshot already went out.
func (w *watcher) deliver(snap game.Snapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if snap.Version <= w.seen {
		return
	}
	w.seen = snap.Version
	w.fn(snap)
}

// Option customises a Manager.
type Option func(*Manager)

// WithSummaryDelay overrides DefaultSummaryDelay. Zero reveals the summary immediately.
func WithSummaryDelay(d time.Duration) Option {
	return func(m *Manager) { m.delay = d }
}

// WithClock replaces time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager builds a Manager. builders must hold one Builder per playable game.
func NewManager(st store.Store, builders map[game.Game]game.Builder, opts ...Option) *Manager {
	m := &Manager{
		store:    st,
		builders: builders,
		delay:    DefaultSummaryDelay,
		now:      time.Now,
		watchers: make(map[string]map[int]*watcher),
		timers:   make(map[string]int),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Create starts a session waiting for a difficulty.
func (m *Manager) Create(ctx context.Context, g game.Game) (game.Session, error) {
	if _, ok := m.builders[g]; !ok {
		return game.Session{}, fmt.Errorf("%w: %q", game.ErrUnknownGame, g)
	}
	s := game.New(uuid.NewString(), g)
	s.CreatedAt = m.now()
	s.UpdatedAt = s.CreatedAt
	if err := m.store.Save(ctx, s); err != nil {
		return game.Session{}, fmt.Errorf("save session: %w", err)
	}
	log.Info().Str("session", s.ID).Str("game", string(g)).Msg("session created")
	return s, nil
}

// Get returns the stored session, revealing an overdue summary first.
func (m *Manager) Get(ctx context.Context, id string) (game.Session, error) {
	m.mu.Lock()
	s, revealed, err := m.load(ctx, id)
	m.mu.Unlock()
	if revealed {
		m.notify(id, s)
	}
	return s, err
}

// Dispatch applies one intent. On rejection the stored session is unchanged and
// returned alongside the error.
func (m *Manager) Dispatch(ctx context.Context, id string, in game.Intent) (game.Session, game.Verdict, error) {
	m.mu.Lock()
	var (
		cur      game.Session
		revealed bool
		err      error
	)
	if in.Type == game.IntentRevealSummary {
		cur, err = m.store.Get(ctx, id)
	} else {
		cur, revealed, err = m.load(ctx, id)
	}
	if err != nil {
		m.mu.Unlock()
		return game.Session{}, game.Verdict{}, err
	}

	next, verdict, err := game.Apply(cur, in, m.builders[cur.Game])
	if err != nil {
		m.mu.Unlock()
		if revealed {
			m.notify(id, cur)
		}
		return cur, verdict, err
	}

	schedule := next.SummaryPending && !cur.SummaryPending
	if schedule && m.delay <= 0 {
		next, _ = game.RevealSummary(next, next.Round)
		schedule = false
	}
	if err := m.commit(ctx, &next, cur.Version); err != nil {
		m.mu.Unlock()
		return cur, game.Verdict{}, err
	}
	if schedule {
		m.scheduleSummary(id, next.Round, m.delay)
	}
	m.mu.Unlock()

	logTransition(cur, next, in, verdict)
	m.notify(id, next)
	return next, verdict, nil
}

// load reads a session. A pending summary whose timer is gone, as after a
// restart, is revealed when due or rearmed otherwise. Callers hold m.mu.
func (m *Manager) load(ctx context.Context, id string) (game.Session, bool, error) {
	s, err := m.store.Get(ctx, id)
	if err != nil || !s.SummaryPending {
		return s, false, err
	}
	due := s.UpdatedAt.Add(m.delay)
	if now := m.now(); now.Before(due) {
		if r, ok := m.timers[id]; !ok || r != s.Round {
			m.scheduleSummary(id, s.Round, due.Sub(now))
		}
		return s, false, nil
	}
	next, err := game.RevealSummary(s, s.Round)
	if err != nil {
		return s, false, err
	}
	if err := m.commit(ctx, &next, s.Version); err != nil {
		return s, false, err
	}
	logTransition(s, next, game.Intent{Type: game.IntentRevealSummary, Round: s.Round}, game.Verdict{})
	return next, true, nil
}

// commit stamps and saves next; callers hold m.mu.
func (m *Manager) commit(ctx context.Context, next *game.Session, prev int) error {
	next.Version = prev + 1
	next.UpdatedAt = m.now()
	if err := m.store.Save(ctx, *next); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// scheduleSummary arms the reveal timer for round; callers hold m.mu.
func (m *Manager) scheduleSummary(id string, round int, after time.Duration) {
	m.timers[id] = round
	time.AfterFunc(after, func() {
		m.mu.Lock()
		if m.timers[id] == round {
			delete(m.timers, id)
		}
		m.mu.Unlock()

		_, _, err := m.Dispatch(context.Background(), id,
			game.Intent{Type: game.IntentRevealSummary, Round: round})
		switch {
		case err == nil:
		case errors.Is(err, game.ErrIllegalTransition), errors.Is(err, store.ErrNotFound):
			// Session was reset, retried or discarded before the timer fired.
			log.Debug().Str("session", id).Int("round", round).Msg("summary timer stale")
		default:
			log.Error().Err(err).Str("session", id).Msg("reveal summary")
		}
	})
}

// notify hands the snapshot of s to every watcher of id. Watchers drop
// snapshots older than one they already received, so overlapping
// dispatches still reach them in commit order.
func (m *Manager) notify(id string, s game.Session) {
	m.mu.Lock()
	ws := make([]*watcher, 0, len(m.watchers[id]))
	for _, w := range m.watchers[id] {
		ws = append(ws, w)
	}
	m.mu.Unlock()

	snap := s.Snapshot()
	for _, w := range ws {
		w.deliver(snap)
	}
}

// Discard drops a session and its watchers (player left the page).
func (m *Manager) Discard(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}
	delete(m.watchers, id)
	delete(m.timers, id)
	log.Info().Str("session", id).Msg("session discarded")
	return nil
}

// Watch registers fn for snapshots of id and returns a function that unregisters it.
func (m *Manager) Watch(id string, fn WatchFunc) (cancel func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wid := m.nextWID
	m.nextWID++
	if m.watchers[id] == nil {
		m.watchers[id] = make(map[int]*watcher)
	}
	m.watchers[id][wid] = &watcher{fn: fn, seen: -1}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.watchers[id], wid)
		if len(m.watchers[id]) == 0 {
			delete(m.watchers, id)
		}
	}
}

// Prune expires sessions idle for longer than ttl when the store needs it.
func (m *Manager) Prune(ctx context.Context, ttl time.Duration) (int, error) {
	p, ok := m.store.(store.Pruner)
	if !ok || ttl <= 0 {
		return 0, nil
	}
	return p.Prune(ctx, m.now().Add(-ttl))
}

// RunJanitor prunes idle sessions every interval until ctx is done.
func (m *Manager) RunJanitor(ctx context.Context, ttl, interval time.Duration) {
	if _, ok := m.store.(store.Pruner); !ok || ttl <= 0 || interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := m.Prune(ctx, ttl)
			if err != nil {
				log.Warn().Err(err).Msg("prune sessions")
				continue
			}
			if n > 0 {
				log.Info().Int("count", n).Msg("pruned idle sessions")
			}
		}
	}
}

func logTransition(cur, next game.Session, in game.Intent, v game.Verdict) {
	ev := log.Debug().
		Str("session", next.ID).
		Str("game", string(next.Game)).
		Str("intent", string(in.Type)).
		Str("phase", string(next.Phase))
	switch in.Type {
	case game.IntentSubmit:
		ev.Int("index", cur.Current).Bool("correct", v.Correct).
			Bool("recorded", v.Recorded).Int("score", next.Score)
	case game.IntentSelectDifficulty, game.IntentRetry:
		ev.Str("difficulty", string(next.Difficulty)).Int("questions", len(next.Questions))
	}
	ev.Msg("transition")
	if next.Phase == game.PhaseSummary && cur.Phase != game.PhaseSummary {
		log.Info().Str("session", next.ID).Str("game", string(next.Game)).
			Int("score", next.Score).Int("total", len(next.Questions)).
			Bool("allCorrect", next.AllCorrect()).Msg("session finished")
	}
}
