package alerts

import (
	"sync"
	"time"

	"github.com/google/uuid"

	Logger "github.com/campuside/society-client/utils/log"
)

// Level classifies an alert for presentation.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

const (
	// DefaultMinInterval is how long a keyed alert suppresses repeats of the
	// same key. Callers that must always surface use NotifyOnce.
	DefaultMinInterval = 30 * time.Second
)

var (
	Log = Logger.LogV2
)

// Alert is one user-facing toast-style message.
type Alert struct {
	Key       string
	Level     Level
	Message   string
	CreatedAt time.Time
}

// Sink receives alerts for display. The view layer plugs in here.
type Sink interface {
	Show(alert Alert)
}

// LogSink is the fallback sink writing alerts to the process log.
type LogSink struct{}

func (LogSink) Show(alert Alert) {
	switch alert.Level {
	case LevelError:
		Log.Errorf("alert: ", alert.Message)
	case LevelWarning:
		Log.Infof("alert (warning): ", alert.Message)
	default:
		Log.Infof("alert: ", alert.Message)
	}
}

// Dispatcher fans alerts out to a sink, suppressing repeats of the same key
// within a fixed interval so a flapping failure does not stack toasts.
type Dispatcher struct {
	mu          sync.Mutex
	sink        Sink
	minInterval time.Duration
	lastShown   map[string]time.Time
}

func NewDispatcher(sink Sink, minInterval time.Duration) *Dispatcher {
	if sink == nil {
		sink = LogSink{}
	}
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	return &Dispatcher{
		sink:        sink,
		minInterval: minInterval,
		lastShown:   map[string]time.Time{},
	}
}

// Notify shows an alert unless the same key was shown within the dedup
// interval. Repeated autosave failures share one key and collapse to one
// visible toast per interval.
func (d *Dispatcher) Notify(level Level, key string, message string) {
	now := time.Now()

	d.mu.Lock()
	if shown, ok := d.lastShown[key]; ok && now.Sub(shown) < d.minInterval {
		d.mu.Unlock()
		Log.Debugf("alert suppressed by key: ", key)
		return
	}
	d.lastShown[key] = now
	d.cleanExpiredLocked(now)
	sink := d.sink
	d.mu.Unlock()

	sink.Show(Alert{Key: key, Level: level, Message: message, CreatedAt: now})
}

// NotifyOnce shows an alert unconditionally under a fresh unique key. Used by
// the HTTP wrapper, which must surface exactly one toast per failed call.
func (d *Dispatcher) NotifyOnce(level Level, message string) {
	d.Notify(level, uuid.New().String(), message)
}

func (d *Dispatcher) cleanExpiredLocked(now time.Time) {
	for key, shown := range d.lastShown {
		if now.Sub(shown) >= d.minInterval {
			delete(d.lastShown, key)
		}
	}
}
