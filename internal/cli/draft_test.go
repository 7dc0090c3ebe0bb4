package cli

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/slowpost/internal/clock"
	"github.com/rcliao/slowpost/internal/ink"
	"github.com/rcliao/slowpost/internal/lifecycle"
	"github.com/rcliao/slowpost/internal/model"
	"github.com/rcliao/slowpost/internal/store"
)

// typist hands out one line per Read and lets time pass before each.
type typist struct {
	lines []string
	clk   *clock.Manual
	pause time.Duration
}

func (t *typist) Read(p []byte) (int, error) {
	if len(t.lines) == 0 {
		return 0, io.EOF
	}
	t.clk.Advance(t.pause)
	n := copy(p, t.lines[0]+"\n")
	t.lines = t.lines[1:]
	return n, nil
}

func newDraftEnv(t *testing.T) (*lifecycle.Service, *store.FileStore, *clock.Manual) {
	t.Helper()
	dir := t.TempDir()
	letters, err := store.NewFileStore(filepath.Join(dir, "letters"), zerolog.Nop())
	require.NoError(t, err)
	state, err := store.NewSQLiteStore(context.Background(), filepath.Join(dir, "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { state.Close() })

	clk := clock.NewManual(time.Date(2026, 9, 9, 10, 0, 0, 0, time.UTC))
	svc := lifecycle.New(lifecycle.Deps{
		Letters:     letters,
		Flags:       state,
		Clock:       clk,
		Limiter:     ink.Limiter{RatePerSecond: 2},
		WeeklyLimit: 600,
		Location:    time.UTC,
		Logger:      zerolog.Nop(),
	})
	return svc, letters, clk
}

func TestDraftSession_SendsAcceptedText(t *testing.T) {
	svc, _, clk := newDraftEnv(t)
	var hints bytes.Buffer
	in := &typist{lines: []string{"hello", "world", "/send", "ignored"}, clk: clk, pause: 10 * time.Second}

	l, err := draftSession{svc: svc, in: in, hints: &hints}.run(context.Background(), "", model.RouteNation)
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Equal(t, "hello\nworld", l.Content)
	assert.Equal(t, 11, l.InkUsed)
	assert.Equal(t, []string{"ignored"}, in.lines, "input after /send is not read")
}

func TestDraftSession_DeleteThenEOFSends(t *testing.T) {
	svc, letters, clk := newDraftEnv(t)
	in := &typist{lines: []string{"hello", "/del 2"}, clk: clk, pause: 10 * time.Second}

	l, err := draftSession{svc: svc, in: in, hints: io.Discard}.run(context.Background(), "", model.RouteLocal)
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Equal(t, "hel", l.Content)

	all, err := letters.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDraftSession_Cancel(t *testing.T) {
	svc, letters, clk := newDraftEnv(t)
	in := &typist{lines: []string{"hello", "/cancel"}, clk: clk, pause: 10 * time.Second}

	l, err := draftSession{svc: svc, in: in, hints: io.Discard}.run(context.Background(), "", model.RouteLocal)
	require.NoError(t, err)
	assert.Nil(t, l)

	all, err := letters.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDraftSession_ThrottleHint(t *testing.T) {
	svc, _, clk := newDraftEnv(t)
	var hints bytes.Buffer
	in := &typist{lines: []string{"hello", "/send"}, clk: clk, pause: time.Second}

	l, err := draftSession{svc: svc, in: in, hints: &hints}.run(context.Background(), "", model.RouteLocal)
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Equal(t, "he", l.Content)
	assert.Contains(t, hints.String(), "slow down: kept 2 of 5 new characters")
}

func TestDraftSession_BadDeleteUsage(t *testing.T) {
	svc, _, clk := newDraftEnv(t)
	var hints bytes.Buffer
	in := &typist{lines: []string{"/del x", "/cancel"}, clk: clk, pause: time.Second}

	_, err := draftSession{svc: svc, in: in, hints: &hints}.run(context.Background(), "", model.RouteLocal)
	require.NoError(t, err)
	assert.Contains(t, hints.String(), "usage: /del N")
}

func TestDraftSession_PrefillIsKept(t *testing.T) {
	svc, _, clk := newDraftEnv(t)
	in := &typist{lines: []string{"/send"}, clk: clk}
	prefill := "\n\n— 回信：\n> 见字如面\n\n"

	l, err := draftSession{svc: svc, in: in, hints: io.Discard}.run(context.Background(), prefill, model.RouteLocal)
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.True(t, strings.HasPrefix(l.Content, "\n\n— 回信"))
}

func TestDropLast(t *testing.T) {
	assert.Equal(t, "见字", dropLast("见字如面", 2))
	assert.Equal(t, "", dropLast("abc", 5))
	assert.Equal(t, "abc", dropLast("abc", 0))
}
