package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/campuside/society-client/alerts"
	Logger "github.com/campuside/society-client/utils/log"
)

const (
	// RequestTimeout applies uniformly to every REST call. The notification
	// stream connection is exempt, it is long-lived by design.
	RequestTimeout = 10 * time.Second

	msgBadRequest   = "The request could not be processed."
	msgForbidden    = "You don't have permission to do that."
	msgNotFound     = "The requested resource was not found."
	msgUnauthorized = "Unauthorized, please log in again."
	msgServerError  = "Server error. Please try again later."
	msgTransport    = "Something went wrong. Please check your connection."
	msgFallback     = "Something went wrong."
)

var (
	Log = Logger.LogV2
)

// Client is the single chokepoint for all network calls. It injects the
// bearer token from the token store, applies the uniform request timeout and
// translates failures into user-facing alerts exactly once per failed call.
// It never retries; callers own their retry policy.
type Client struct {
	http    *resty.Client
	stream  *http.Client
	baseURL string
	tokens  *TokenStore
	alerts  *alerts.Dispatcher
}

func New(baseURL string, tokens *TokenStore, dispatcher *alerts.Dispatcher) *Client {
	hc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(RequestTimeout).
		SetHeader("Accept", "application/json")

	hc.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		if token, _ := tokens.Load(); len(token) > 0 {
			req.SetAuthToken(token)
		}
		return nil
	})

	return &Client{
		http: hc,
		// No timeout here: this client only serves the SSE connection.
		stream:  &http.Client{},
		baseURL: baseURL,
		tokens:  tokens,
		alerts:  dispatcher,
	}
}

// Tokens exposes the token store to the session layer.
func (c *Client) Tokens() *TokenStore {
	return c.tokens
}

// envelope is the success body shape: the payload nests under "data".
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// errorBody is the failure body shape; the backend is inconsistent about
// which field carries the message.
type errorBody struct {
	Error        string `json:"error"`
	Message      string `json:"message"`
	ErrorMessage string `json:"error_message"`
}

func (b errorBody) message() string {
	switch {
	case len(b.Error) > 0:
		return b.Error
	case len(b.Message) > 0:
		return b.Message
	default:
		return b.ErrorMessage
	}
}

func (c *Client) do(ctx context.Context, method, path string, query map[string]string, body interface{}, out interface{}) error {
	req := c.http.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		c.alerts.NotifyOnce(alerts.LevelError, msgTransport)
		return errors.Wrapf(&APIError{Kind: KindTransport, Message: msgTransport}, "%s %s: %v", method, path, err)
	}
	if resp.IsError() {
		apiErr := c.classify(resp.StatusCode(), resp.Body())
		c.notifyFailure(apiErr)
		return apiErr
	}

	if out == nil {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return errors.Wrapf(err, "decode %s %s response", method, path)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return errors.Wrapf(err, "decode %s %s payload", method, path)
	}
	return nil
}

// classify buckets a non-2xx response into the user-facing error taxonomy.
func (c *Client) classify(status int, body []byte) *APIError {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)
	serverMsg := eb.message()

	switch {
	case status == http.StatusUnauthorized:
		return &APIError{Kind: KindUnauthorized, Status: status, Message: msgUnauthorized}
	case status == http.StatusBadRequest:
		return &APIError{Kind: KindClient, Status: status, Message: firstNonEmpty(serverMsg, msgBadRequest)}
	case status == http.StatusForbidden:
		return &APIError{Kind: KindClient, Status: status, Message: firstNonEmpty(serverMsg, msgForbidden)}
	case status == http.StatusNotFound:
		return &APIError{Kind: KindClient, Status: status, Message: firstNonEmpty(serverMsg, msgNotFound)}
	case status >= http.StatusInternalServerError:
		return &APIError{Kind: KindServer, Status: status, Message: msgServerError}
	default:
		return &APIError{Kind: KindClient, Status: status, Message: firstNonEmpty(serverMsg, msgFallback)}
	}
}

func (c *Client) notifyFailure(apiErr *APIError) {
	level := alerts.LevelError
	if apiErr.Kind == KindUnauthorized {
		level = alerts.LevelWarning
	}
	c.alerts.NotifyOnce(level, apiErr.Message)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if len(v) > 0 {
			return v
		}
	}
	return ""
}

// OpenNotificationStream opens the server-push connection. The caller owns
// reconnect policy and must close the returned body. Stream failures are not
// routed through the alert dispatcher, a reconnecting stream would otherwise
// toast on every attempt.
func (c *Client) OpenNotificationStream(ctx context.Context) (*http.Response, error) {
	token, _ := c.tokens.Load()
	streamURL := c.baseURL + "/notifications/sse?token=" + url.QueryEscape(token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create stream request")
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "open notification stream")
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, c.classify(resp.StatusCode, nil)
	}
	return resp, nil
}
