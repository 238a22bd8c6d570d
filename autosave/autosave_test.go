package autosave

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/campuside/society-client/alerts"
)

type settings struct {
	Visibility string `json:"visibility"`
	Digest     bool   `json:"digest"`
}

type saveRecorder struct {
	mu     sync.Mutex
	saved  []json.RawMessage
	err    error
	notify chan struct{}
}

func newSaveRecorder() *saveRecorder {
	return &saveRecorder{notify: make(chan struct{}, 16)}
}

func (r *saveRecorder) save(ctx context.Context, value json.RawMessage) error {
	r.mu.Lock()
	r.saved = append(r.saved, value)
	err := r.err
	r.mu.Unlock()
	r.notify <- struct{}{}
	return err
}

func (r *saveRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}

func (r *saveRecorder) last() json.RawMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saved[len(r.saved)-1]
}

func (r *saveRecorder) waitForSave(t *testing.T) {
	t.Helper()
	select {
	case <-r.notify:
	case <-time.After(2 * time.Second):
		t.Fatal("no save happened in time")
	}
}

type countingSink struct {
	mu    sync.Mutex
	count int
}

func (s *countingSink) Show(alerts.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
}

func (s *countingSink) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func TestBaseline(t *testing.T) {
	t.Run("Test_first_value_never_saves", func(t *testing.T) {
		rec := newSaveRecorder()
		c := New(rec.save, nil, WithDebounce(10*time.Millisecond))
		defer c.Close()

		// Even a value that differs from the zero default is only the
		// baseline.
		require.NoError(t, c.Observe(settings{Visibility: "public", Digest: true}))
		time.Sleep(50 * time.Millisecond)
		require.Equal(t, 0, rec.count())
	})

	t.Run("Test_second_distinct_value_saves", func(t *testing.T) {
		rec := newSaveRecorder()
		c := New(rec.save, nil, WithDebounce(10*time.Millisecond))
		defer c.Close()

		require.NoError(t, c.Observe(settings{Visibility: "public"}))
		require.NoError(t, c.Observe(settings{Visibility: "members"}))
		rec.waitForSave(t)

		var got settings
		require.NoError(t, json.Unmarshal(rec.last(), &got))
		require.Equal(t, "members", got.Visibility)
	})

	t.Run("Test_unchanged_value_does_not_save", func(t *testing.T) {
		rec := newSaveRecorder()
		c := New(rec.save, nil, WithDebounce(10*time.Millisecond))
		defer c.Close()

		v := settings{Visibility: "public"}
		require.NoError(t, c.Observe(v))
		require.NoError(t, c.Observe(v))
		require.NoError(t, c.Observe(v))
		time.Sleep(50 * time.Millisecond)
		require.Equal(t, 0, rec.count())
	})
}

func TestDebounce(t *testing.T) {
	t.Run("Test_only_last_value_in_window_saves", func(t *testing.T) {
		rec := newSaveRecorder()
		c := New(rec.save, nil, WithDebounce(40*time.Millisecond))
		defer c.Close()

		require.NoError(t, c.Observe(settings{Visibility: "a"}))
		require.NoError(t, c.Observe(settings{Visibility: "b"}))
		time.Sleep(10 * time.Millisecond)
		require.NoError(t, c.Observe(settings{Visibility: "c"}))
		time.Sleep(10 * time.Millisecond)
		require.NoError(t, c.Observe(settings{Visibility: "d"}))

		rec.waitForSave(t)
		require.Equal(t, 1, rec.count())

		var got settings
		require.NoError(t, json.Unmarshal(rec.last(), &got))
		require.Equal(t, "d", got.Visibility)
	})

	t.Run("Test_changes_in_separate_windows_each_save", func(t *testing.T) {
		rec := newSaveRecorder()
		c := New(rec.save, nil, WithDebounce(10*time.Millisecond))
		defer c.Close()

		require.NoError(t, c.Observe(settings{Visibility: "a"}))
		require.NoError(t, c.Observe(settings{Visibility: "b"}))
		rec.waitForSave(t)

		require.NoError(t, c.Observe(settings{Visibility: "c"}))
		rec.waitForSave(t)
		require.Equal(t, 2, rec.count())
	})
}

func TestFailure(t *testing.T) {
	t.Run("Test_failure_raises_one_deduplicated_alert", func(t *testing.T) {
		rec := newSaveRecorder()
		rec.err = errors.New("backend down")

		sink := &countingSink{}
		dispatcher := alerts.NewDispatcher(sink, time.Minute)
		c := New(rec.save, dispatcher, WithDebounce(10*time.Millisecond))
		defer c.Close()

		require.NoError(t, c.Observe(settings{Visibility: "a"}))
		for _, v := range []string{"b", "c", "d"} {
			require.NoError(t, c.Observe(settings{Visibility: v}))
			rec.waitForSave(t)
		}

		// Three failed saves, one visible toast: the fixed key collapses
		// repeats inside the dedup interval.
		require.Equal(t, 3, rec.count())
		require.Equal(t, 1, sink.total())
	})

	t.Run("Test_failure_leaves_last_saved_unchanged", func(t *testing.T) {
		rec := newSaveRecorder()
		c := New(rec.save, nil, WithDebounce(10*time.Millisecond))
		defer c.Close()

		require.NoError(t, c.Observe(settings{Visibility: "a"}))
		require.NoError(t, c.Observe(settings{Visibility: "b"}))
		rec.waitForSave(t)
		firstSaved := c.LastSaved()
		require.False(t, firstSaved.IsZero())

		rec.mu.Lock()
		rec.err = errors.New("backend down")
		rec.mu.Unlock()

		require.NoError(t, c.Observe(settings{Visibility: "c"}))
		rec.waitForSave(t)
		require.Equal(t, firstSaved, c.LastSaved())
	})
}

func TestCoordinatorClose(t *testing.T) {
	t.Run("Test_close_cancels_pending_save", func(t *testing.T) {
		rec := newSaveRecorder()
		c := New(rec.save, nil, WithDebounce(30*time.Millisecond))

		require.NoError(t, c.Observe(settings{Visibility: "a"}))
		require.NoError(t, c.Observe(settings{Visibility: "b"}))
		c.Close()

		time.Sleep(60 * time.Millisecond)
		require.Equal(t, 0, rec.count())
	})

	t.Run("Test_observe_after_close_is_a_noop", func(t *testing.T) {
		rec := newSaveRecorder()
		c := New(rec.save, nil, WithDebounce(5*time.Millisecond))
		c.Close()

		require.NoError(t, c.Observe(settings{Visibility: "a"}))
		require.NoError(t, c.Observe(settings{Visibility: "b"}))
		time.Sleep(30 * time.Millisecond)
		require.Equal(t, 0, rec.count())
	})
}
