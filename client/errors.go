package client

import "fmt"

// ErrorKind buckets a failed call into the small set of user-facing
// categories the view layer distinguishes.
type ErrorKind string

const (
	// KindTransport covers timeouts and connection failures. The UI never
	// distinguishes these from a 500.
	KindTransport ErrorKind = "transport"
	// KindClient covers 400/403/404. These never invalidate the session.
	KindClient ErrorKind = "client"
	// KindUnauthorized covers a bare 401. It does not clear the session;
	// redirect-to-login is solely a route-guard reaction to the session
	// store reporting unauthenticated.
	KindUnauthorized ErrorKind = "unauthorized"
	// KindServer covers 5xx.
	KindServer ErrorKind = "server"
)

// APIError is returned for every failed call so callers that need
// form-field-level detail can inspect the server message independently of
// the global toast the wrapper already fired.
type APIError struct {
	Kind    ErrorKind
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error: %s", e.Message)
}
