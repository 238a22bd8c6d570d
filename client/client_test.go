package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campuside/society-client/alerts"
	"github.com/campuside/society-client/utils/dotenv"
)

func TestMain(m *testing.M) {
	dotenv.LoadDotEnvsInTests()
	os.Exit(m.Run())
}

type recordingSink struct {
	mu    sync.Mutex
	shown []alerts.Alert
}

func (s *recordingSink) Show(alert alerts.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shown = append(s.shown, alert)
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.shown)
}

func (s *recordingSink) last() alerts.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shown[len(s.shown)-1]
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *recordingSink, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	sink := &recordingSink{}
	dispatcher := alerts.NewDispatcher(sink, time.Minute)
	tokens := NewTokenStore(filepath.Join(t.TempDir(), "token.json"))
	return New(server.URL, tokens, dispatcher), sink, server
}

func TestClient_AuthHeader(t *testing.T) {
	t.Run("Test_bearer_token_attached_when_present", func(t *testing.T) {
		var gotAuth string
		c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			fmt.Fprint(w, `{"data":{"id":"u1","name":"Ada","email":"ada@uni.edu"}}`)
		}))
		require.NoError(t, c.Tokens().Save("tok-123", ScopeSession))

		user, err := c.GetUserInfo(context.Background())
		require.NoError(t, err)
		require.Equal(t, "Bearer tok-123", gotAuth)
		require.Equal(t, "Ada", user.Name)
	})

	t.Run("Test_no_header_without_token", func(t *testing.T) {
		var gotAuth string
		c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			fmt.Fprint(w, `{"data":{}}`)
		}))

		_, err := c.GetUserInfo(context.Background())
		require.NoError(t, err)
		require.Empty(t, gotAuth)
	})
}

func TestClient_ErrorClassification(t *testing.T) {
	cases := []struct {
		name        string
		status      int
		body        string
		wantKind    ErrorKind
		wantMessage string
	}{
		{
			name:        "bad_request_uses_server_message",
			status:      http.StatusBadRequest,
			body:        `{"error":"name already taken"}`,
			wantKind:    KindClient,
			wantMessage: "name already taken",
		},
		{
			name:        "not_found_falls_back_to_generic",
			status:      http.StatusNotFound,
			body:        `{}`,
			wantKind:    KindClient,
			wantMessage: msgNotFound,
		},
		{
			name:        "forbidden_reads_message_field",
			status:      http.StatusForbidden,
			body:        `{"message":"members only"}`,
			wantKind:    KindClient,
			wantMessage: "members only",
		},
		{
			name:        "unauthorized_is_distinct_and_generic",
			status:      http.StatusUnauthorized,
			body:        `{"error":"token expired"}`,
			wantKind:    KindUnauthorized,
			wantMessage: msgUnauthorized,
		},
		{
			name:        "server_error_is_generic",
			status:      http.StatusInternalServerError,
			body:        `{"error":"stack trace here"}`,
			wantKind:    KindServer,
			wantMessage: msgServerError,
		},
		{
			name:        "unmapped_status_uses_error_message_field",
			status:      http.StatusTeapot,
			body:        `{"error_message":"odd failure"}`,
			wantKind:    KindClient,
			wantMessage: "odd failure",
		},
	}

	for _, tc := range cases {
		t.Run("Test_"+tc.name, func(t *testing.T) {
			c, sink, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			}))

			_, err := c.GetUserInfo(context.Background())
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			require.Equal(t, tc.wantKind, apiErr.Kind)
			require.Equal(t, tc.status, apiErr.Status)
			require.Equal(t, tc.wantMessage, apiErr.Message)

			// Exactly one toast per failed call.
			require.Equal(t, 1, sink.count())
			require.Equal(t, tc.wantMessage, sink.last().Message)
		})
	}
}

func TestClient_FailureToasts(t *testing.T) {
	t.Run("Test_every_failed_call_toasts_exactly_once", func(t *testing.T) {
		c, sink, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))

		for i := 0; i < 3; i++ {
			_, err := c.GetUserInfo(context.Background())
			require.Error(t, err)
		}
		require.Equal(t, 3, sink.count())
	})

	t.Run("Test_success_produces_no_toast", func(t *testing.T) {
		c, sink, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"data":{}}`)
		}))

		_, err := c.GetUserInfo(context.Background())
		require.NoError(t, err)
		require.Equal(t, 0, sink.count())
	})

	t.Run("Test_transport_failure_toasts_generically", func(t *testing.T) {
		c, sink, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		_, err := c.GetUserInfo(context.Background())
		require.Error(t, err)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, KindTransport, apiErr.Kind)
		require.Equal(t, 1, sink.count())
		require.Equal(t, msgTransport, sink.last().Message)
	})
}

func TestClient_EnvelopeDecoding(t *testing.T) {
	t.Run("Test_payload_nested_under_data", func(t *testing.T) {
		c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status":"success","data":[{"id":"s1","name":"Chess Society"},{"id":"s2","name":"Film Society"}]}`)
		}))

		societies, err := c.ListSocieties(context.Background(), 0)
		require.NoError(t, err)
		require.Len(t, societies, 2)
		require.Equal(t, "Chess Society", societies[0].Name)
	})

	t.Run("Test_login_payload", func(t *testing.T) {
		c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/auth/login", r.URL.Path)
			require.Equal(t, "ada@uni.edu", r.URL.Query().Get("email"))
			fmt.Fprint(w, `{"data":{"token":"tok-9","user":{"id":"u1","name":"Ada"}}}`)
		}))

		res, err := c.Login(context.Background(), "ada@uni.edu", "pw")
		require.NoError(t, err)
		require.Equal(t, "tok-9", res.Token)
		require.Equal(t, "u1", res.User.Id)
	})
}

func TestClient_OpenNotificationStream(t *testing.T) {
	t.Run("Test_token_passed_as_query_param", func(t *testing.T) {
		var gotToken string
		c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotToken = r.URL.Query().Get("token")
			w.Header().Set("Content-Type", "text/event-stream")
			w.WriteHeader(http.StatusOK)
		}))
		require.NoError(t, c.Tokens().Save("stream-tok", ScopeSession))

		resp, err := c.OpenNotificationStream(context.Background())
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, "stream-tok", gotToken)
	})

	t.Run("Test_non_200_is_an_error", func(t *testing.T) {
		c, sink, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))

		_, err := c.OpenNotificationStream(context.Background())
		require.Error(t, err)
		// The stream reconnect loop owns its failures; no toast fires here.
		require.Equal(t, 0, sink.count())
	})
}
