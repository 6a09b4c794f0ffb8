package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codemytelab/gamezone/internal/game"
)

func sampleSession(id string, updated time.Time) game.Session {
	s := game.New(id, game.GameHacker)
	s, err := game.SelectDifficulty(s, game.Easy, func(game.Difficulty) ([]game.Question, error) {
		return []game.Question{
			{Kind: game.KindFillIn, Prompt: "DNS?", Answer: "DNS", Hint: "names", Difficulty: game.Easy},
			{Kind: game.KindTrueFalse, Prompt: "1 byte is 8 bits", Answer: "true", Difficulty: game.Easy},
		}, nil
	})
	if err != nil {
		panic(err)
	}
	s, _, _ = game.Submit(s, "dns")
	s.CreatedAt = updated.Add(-time.Minute)
	s.UpdatedAt = updated
	return s
}

// exerciseStore runs the behaviour every backend shares.
func exerciseStore(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	_, err := st.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	s := sampleSession("s1", now)
	require.NoError(t, st.Save(ctx, s))

	got, err := st.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, s.Phase, got.Phase)
	assert.Equal(t, s.Round, got.Round)
	assert.Equal(t, s.Score, got.Score)
	assert.Equal(t, s.Current, got.Current)
	assert.Equal(t, s.Cells, got.Cells)
	assert.Equal(t, s.Answered, got.Answered)
	assert.Equal(t, s.Questions, got.Questions)
	assert.True(t, s.UpdatedAt.Equal(got.UpdatedAt))

	// Returned sessions never alias stored state.
	got.Cells[0] = game.Cell{State: game.CellWrong}
	again, err := st.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, game.CellCorrect, again.Cells[0].State)

	s.Score = 0
	s.Phase = game.PhaseSummary
	require.NoError(t, st.Save(ctx, s))
	got, err = st.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, game.PhaseSummary, got.Phase)

	require.NoError(t, st.Delete(ctx, "s1"))
	_, err = st.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, st.Delete(ctx, "s1"))
}

func exercisePrune(t *testing.T, p Pruner, st Store) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, st.Save(ctx, sampleSession("old", now.Add(-3*time.Hour))))
	require.NoError(t, st.Save(ctx, sampleSession("fresh", now)))

	n, err := p.Prune(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = st.Get(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.Get(ctx, "fresh")
	assert.NoError(t, err)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())

	st := NewMemoryStore()
	p, ok := st.(Pruner)
	require.True(t, ok)
	exercisePrune(t, p, st)
}

func TestSQLiteStore(t *testing.T) {
	st, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer st.Close()

	exerciseStore(t, st)
	exercisePrune(t, st, st)
}

func TestSQLiteAcceptsDSNWithQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "gamezone.db")
	st, err := OpenSQLite("file:" + path + "?mode=rwc")
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.Save(context.Background(), sampleSession("q", time.Now())))
	_, err = st.Get(context.Background(), "q")
	require.NoError(t, err)

	var timeout int
	require.NoError(t, st.db.QueryRow(`PRAGMA busy_timeout`).Scan(&timeout))
	assert.Equal(t, 5000, timeout)
}

func TestSQLiteDSNHelpers(t *testing.T) {
	assert.Equal(t, "a.db?x=1", withParams("a.db", "x=1"))
	assert.Equal(t, "file:a.db?mode=rwc&x=1", withParams("file:a.db?mode=rwc", "x=1"))
	assert.Equal(t, "data/a.db", dbPath("file:data/a.db?mode=rwc"))
	assert.Equal(t, ":memory:", dbPath(":memory:"))
}

func TestSQLiteReopenKeepsSessionsAndMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "gamezone.db")
	st, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, st.Save(context.Background(), sampleSession("keep", time.Now())))
	require.NoError(t, st.Close())

	st, err = OpenSQLite(path)
	require.NoError(t, err)
	defer st.Close()
	got, err := st.Get(context.Background(), "keep")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Score)

	var applied int
	require.NoError(t, st.db.QueryRow(`SELECT COUNT(*) FROM _migrations`).Scan(&applied))
	assert.Equal(t, 1, applied)
}

// TestRedisStore needs a reachable server, e.g. REDIS_URL=redis://localhost:6379/15.
func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()
	st, err := OpenRedis(ctx, url, time.Minute)
	require.NoError(t, err)
	defer st.Close()

	exerciseStore(t, st)

	require.NoError(t, st.Save(ctx, sampleSession("ttl", time.Now())))
	ttl, err := st.client.TTL(ctx, redisKeyPrefix+"ttl").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	require.NoError(t, st.Delete(ctx, "ttl"))
}

func TestOpenRedisBadURL(t *testing.T) {
	_, err := OpenRedis(context.Background(), "not-a-url", time.Minute)
	assert.Error(t, err)
}
