package autosave

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/campuside/society-client/alerts"
	Logger "github.com/campuside/society-client/utils/log"
)

var (
	Log = Logger.LogV2
)

const (
	// DefaultDebounce is the quiet period required before a changed value is
	// persisted.
	DefaultDebounce = 2 * time.Second

	// failureAlertKey is fixed so repeated save failures collapse into one
	// rate-limited toast instead of stacking.
	failureAlertKey = "autosave_failed"

	failureAlertMsg = "Your changes could not be saved automatically."
)

// SaveFunc persists the value handed to the coordinator.
type SaveFunc func(ctx context.Context, value json.RawMessage) error

// Coordinator persists incrementally edited settings without explicit user
// action. Change detection is by serialized structural equality; the first
// observed value is the baseline and never saved, so loading settings does
// not immediately write them back. Saves debounce trailing-edge: a newer
// change cancels the pending timer and restarts the window, and only the
// last scheduled save in a window runs.
type Coordinator struct {
	mu        sync.Mutex
	save      SaveFunc
	alerts    *alerts.Dispatcher
	delay     time.Duration
	timer     *time.Timer
	lastSeen  []byte
	seeded    bool
	pending   []byte
	saving    bool
	lastSaved time.Time
	closed    bool
}

type Option func(*Coordinator)

func WithDebounce(d time.Duration) Option {
	return func(c *Coordinator) { c.delay = d }
}

func New(save SaveFunc, dispatcher *alerts.Dispatcher, opts ...Option) *Coordinator {
	c := &Coordinator{
		save:   save,
		alerts: dispatcher,
		delay:  DefaultDebounce,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Observe hands the coordinator the current value. Serialization doubles as
// the deep copy, so later mutation of the original cannot leak into a
// pending save.
func (c *Coordinator) Observe(value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	if !c.seeded {
		c.seeded = true
		c.lastSeen = raw
		return nil
	}
	if bytes.Equal(raw, c.lastSeen) {
		return nil
	}
	c.lastSeen = raw
	c.pending = raw
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.delay, c.flush)
	return nil
}

// flush runs the debounced save. The saving flag brackets the call, but the
// debounce window is independent of it: a save scheduled during an in-flight
// save still runs when its timer fires.
func (c *Coordinator) flush() {
	c.mu.Lock()
	if c.closed || c.pending == nil {
		c.mu.Unlock()
		return
	}
	value := c.pending
	c.pending = nil
	c.saving = true
	c.mu.Unlock()

	err := c.save(context.Background(), value)

	c.mu.Lock()
	c.saving = false
	if err == nil {
		c.lastSaved = time.Now()
	}
	dispatcher := c.alerts
	c.mu.Unlock()

	if err != nil {
		Log.Infof("autosave failed: ", err)
		if dispatcher != nil {
			dispatcher.Notify(alerts.LevelError, failureAlertKey, failureAlertMsg)
		}
	}
}

func (c *Coordinator) IsSaving() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saving
}

// LastSaved reports when the most recent save succeeded; the zero time means
// never. Failed saves leave it unchanged.
func (c *Coordinator) LastSaved() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSaved
}

// Close cancels any pending debounce timer. No save is scheduled after
// Close returns.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.pending = nil
}
