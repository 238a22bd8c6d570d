package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/campuside/society-client/client"
	"github.com/campuside/society-client/model"
	Logger "github.com/campuside/society-client/utils/log"
)

var (
	Log = Logger.LogV2
)

// State is the notification stream connection state. The whole reconnect
// loop is driven as an explicit machine over these states with one owned
// timer, so teardown and cancellation stay race-free.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateReconnecting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

const (
	// MaxReconnectAttempts bounds automatic reconnects; after this many
	// consecutive failures only a manual Reconnect restarts the stream.
	MaxReconnectAttempts = 5

	baseBackoff = time.Second
	maxBackoff  = 30 * time.Second

	// DefaultConnectDelay is the short pause before the first connect so a
	// consumer that mounts and unmounts rapidly does not flash a
	// connect/disconnect cycle.
	DefaultConnectDelay = 300 * time.Millisecond
)

// BackoffDelay returns the reconnect delay for the given attempt count.
func BackoffDelay(attempt int) time.Duration {
	d := baseBackoff << uint(attempt)
	if d <= 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}

// PushHandler receives each newly arrived notification for local display.
// Registering a handler is the equivalent of push permission being granted.
type PushHandler func(n model.Notification)

// controlFrame probes a stream frame for the control message shapes.
type controlFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Client maintains the long-lived notification stream: it seeds the list
// once from the REST endpoint, applies push frames in arrival order with
// de-duplication by id, and reconnects with bounded exponential backoff.
type Client struct {
	mu            sync.Mutex
	api           *client.Client
	notifications []model.Notification
	unread        int
	state         State
	attempts      int
	timer         *time.Timer
	// connGen identifies the current connection; teardown events from a
	// superseded connection are ignored.
	connGen       uint64
	cancelConn    context.CancelFunc
	baseCtx       context.Context
	started       bool
	closed        bool
	push          PushHandler
	connectDelay  time.Duration
	// backoff is swappable in tests; production always uses BackoffDelay.
	backoff func(attempt int) time.Duration
}

type Option func(*Client)

func WithPushHandler(h PushHandler) Option {
	return func(c *Client) { c.push = h }
}

func WithConnectDelay(d time.Duration) Option {
	return func(c *Client) { c.connectDelay = d }
}

func New(api *client.Client, opts ...Option) *Client {
	c := &Client{
		api:          api,
		state:        StateIdle,
		connectDelay: DefaultConnectDelay,
		backoff:      BackoffDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start seeds the notification list and opens the stream after the connect
// delay. It is a no-op when called twice or after Close.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started || c.closed {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.baseCtx = ctx
	c.timer = time.AfterFunc(c.connectDelay, c.runConnect)
	c.mu.Unlock()

	go c.seed(ctx)
}

// seed performs the one-time cold-start fetch. The fetch and the first push
// frames are unordered relative to each other; de-duplication by id is the
// safety net, so fetched entries merge instead of replacing the list.
func (c *Client) seed(ctx context.Context) {
	fetched, err := c.api.ListNotifications(ctx)
	if err != nil {
		Log.Infof("notification seed fetch failed: ", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	for _, n := range fetched {
		if c.hasLocked(n.Id) {
			continue
		}
		c.notifications = append(c.notifications, n)
	}
	c.recountUnreadLocked()
}

func (c *Client) runConnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.state != StateReconnecting {
		c.state = StateConnecting
	}
	c.connGen++
	gen := c.connGen
	ctx, cancel := context.WithCancel(c.baseCtx)
	c.cancelConn = cancel
	c.mu.Unlock()

	resp, err := c.api.OpenNotificationStream(ctx)
	if err != nil {
		cancel()
		Log.Infof("notification stream connect failed: ", err)
		c.handleDisconnect(gen)
		return
	}

	c.mu.Lock()
	if c.closed || gen != c.connGen {
		c.mu.Unlock()
		cancel()
		resp.Body.Close()
		return
	}
	c.state = StateOpen
	c.attempts = 0
	c.mu.Unlock()

	c.readLoop(resp, gen)
}

func (c *Client) readLoop(resp *http.Response, gen uint64) {
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		c.handleFrame([]byte(strings.TrimPrefix(line, "data: ")), gen)
	}
	if err := scanner.Err(); err != nil {
		Log.Debugf("notification stream read error: ", err)
	}
	c.handleDisconnect(gen)
}

// handleFrame applies one stream frame. Control messages carry no
// application state; heartbeats exist purely to detect liveness. Frames from
// a superseded connection are dropped.
func (c *Client) handleFrame(data []byte, gen uint64) {
	var ctrl controlFrame
	if err := json.Unmarshal(data, &ctrl); err != nil {
		Log.Debugf("discarding malformed stream frame: ", err)
		return
	}
	switch ctrl.Type {
	case "connected":
		Log.Debugf("notification stream connected: ", ctrl.Message)
		return
	case "heartbeat":
		return
	}

	var n model.Notification
	if err := json.Unmarshal(data, &n); err != nil || len(n.Id) == 0 {
		return
	}

	c.mu.Lock()
	if c.closed || gen != c.connGen || c.hasLocked(n.Id) {
		c.mu.Unlock()
		return
	}
	c.notifications = append([]model.Notification{n}, c.notifications...)
	if !n.Read {
		c.unread++
	}
	push := c.push
	c.mu.Unlock()

	if push != nil {
		push(n)
	}
}

// handleDisconnect schedules the next reconnect, or parks the machine in
// Failed once the attempts are exhausted.
func (c *Client) handleDisconnect(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.connGen {
		return
	}
	if c.attempts >= MaxReconnectAttempts {
		c.state = StateFailed
		Log.Infof("notification stream giving up after ", c.attempts, " attempts; manual reconnect required")
		return
	}
	delay := c.backoff(c.attempts)
	c.attempts++
	c.state = StateReconnecting
	c.stopTimerLocked()
	c.timer = time.AfterFunc(delay, c.runConnect)
	Log.Infof("notification stream reconnecting in ", delay)
}

// Reconnect resets the attempt counter and retries immediately. This is the
// only path out of the Failed state.
func (c *Client) Reconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.attempts = 0
	c.stopTimerLocked()
	// Invalidate the old connection so its teardown cannot reschedule.
	c.connGen++
	if c.cancelConn != nil {
		c.cancelConn()
	}
	c.state = StateConnecting
	c.mu.Unlock()

	go c.runConnect()
}

// Close cancels the pending reconnect timer and the live connection. No
// state mutation occurs after Close returns.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stopTimerLocked()
	if c.cancelConn != nil {
		c.cancelConn()
	}
	c.state = StateIdle
}

// MarkAsRead optimistically flips the local read flag and issues a
// best-effort network call. Read state is low stakes and eventually
// consistent: a failed call is logged, never rolled back.
func (c *Client) MarkAsRead(ctx context.Context, id string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	flipped := false
	for i := range c.notifications {
		if c.notifications[i].Id == id {
			if !c.notifications[i].Read {
				c.notifications[i].Read = true
				c.unread--
				flipped = true
			}
			break
		}
	}
	c.mu.Unlock()
	if !flipped {
		return
	}

	if err := c.api.MarkNotificationRead(ctx, id); err != nil {
		Log.Infof("mark-read failed for notification ", id, ": ", err)
	}
}

func (c *Client) MarkAllAsRead(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	flipped := false
	for i := range c.notifications {
		if !c.notifications[i].Read {
			c.notifications[i].Read = true
			flipped = true
		}
	}
	c.unread = 0
	c.mu.Unlock()
	if !flipped {
		return
	}

	if err := c.api.MarkAllNotificationsRead(ctx); err != nil {
		Log.Infof("mark-all-read failed: ", err)
	}
}

// Notifications returns a snapshot of the list, newest first.
func (c *Client) Notifications() []model.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Notification, len(c.notifications))
	copy(out, c.notifications)
	return out
}

func (c *Client) UnreadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unread
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) IsConnected() bool {
	return c.State() == StateOpen
}

// Attempts reports the consecutive failure count, for surfacing retry UI.
func (c *Client) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

func (c *Client) hasLocked(id string) bool {
	for i := range c.notifications {
		if c.notifications[i].Id == id {
			return true
		}
	}
	return false
}

func (c *Client) recountUnreadLocked() {
	count := 0
	for i := range c.notifications {
		if !c.notifications[i].Read {
			count++
		}
	}
	c.unread = count
}

func (c *Client) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
