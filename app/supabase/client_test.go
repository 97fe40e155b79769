package supabase_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/worckyky/sport-booking-backend/app/supabase"
	"github.com/worckyky/sport-booking-backend/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *supabase.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return supabase.NewClient(config.SupabaseConfig{
		URL:            srv.URL + "/",
		AnonKey:        "anon-key",
		ServiceRoleKey: "service-key",
	}, supabase.WithHTTPClient(srv.Client()))
}

func TestClient_SignUpWithoutSession(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/v1/signup", r.URL.Path)
		assert.Equal(t, "http://localhost:3000/confirm", r.URL.Query().Get("redirect_to"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@example.com", body["email"])
		assert.Equal(t, map[string]interface{}{"role": "CAMPAIGN"}, body["data"])

		_, _ = w.Write([]byte(`{"id":"user-1","email":"a@example.com","user_metadata":{"role":"CAMPAIGN"},"created_at":"2024-01-01T00:00:00Z","updated_at":"2024-01-01T00:00:00Z"}`))
	})

	user, session, err := client.SignUp(context.Background(), "a@example.com", "secret",
		map[string]interface{}{"role": "CAMPAIGN"}, "http://localhost:3000/confirm")
	require.NoError(t, err)
	assert.Nil(t, session)
	assert.Equal(t, "user-1", user.ID)
	assert.False(t, user.Confirmed())
}

func TestClient_SignInWithPassword(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))

		_, _ = w.Write([]byte(`{"access_token":"jwt","refresh_token":"r","expires_in":3600,"user":{"id":"user-1","email":"a@example.com","email_confirmed_at":"2024-01-02T00:00:00Z"}}`))
	})

	session, err := client.SignInWithPassword(context.Background(), "a@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "jwt", session.AccessToken)
	assert.Equal(t, int64(3600), session.ExpiresIn)
	require.NotNil(t, session.User)
	assert.True(t, session.User.Confirmed())
}

func TestClient_ErrorShapes(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		code    string
		message string
	}{
		{"current", http.StatusBadRequest, `{"code":400,"error_code":"invalid_credentials","msg":"Invalid login credentials"}`, "invalid_credentials", "Invalid login credentials"},
		{"oauth", http.StatusBadRequest, `{"error":"invalid_grant","error_description":"Invalid login credentials"}`, "invalid_grant", "Invalid login credentials"},
		{"message", http.StatusUnauthorized, `{"message":"invalid JWT"}`, "", "invalid JWT"},
		{"empty", http.StatusBadGateway, ``, "", "Bad Gateway"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			_, err := client.SignInWithPassword(context.Background(), "a@example.com", "secret")
			var apiErr *supabase.APIError
			require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
			assert.Equal(t, tc.status, apiErr.Status)
			assert.Equal(t, tc.code, apiErr.Code)
			assert.Equal(t, tc.message, apiErr.Message)
		})
	}
}

func TestClient_UserTokenAndAdminCalls(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/user":
			assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
			assert.Equal(t, "anon-key", r.Header.Get("apikey"))
			_, _ = w.Write([]byte(`{"id":"user-1","email":"a@example.com"}`))
		case "/auth/v1/admin/users/user-1":
			assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
			assert.Equal(t, "service-key", r.Header.Get("apikey"))
			if r.Method == http.MethodPut {
				var body map[string]map[string]interface{}
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Contains(t, body["user_metadata"], "phone")
				assert.Nil(t, body["user_metadata"]["phone"])
			}
			if r.Method == http.MethodDelete {
				w.WriteHeader(http.StatusOK)
				return
			}
			_, _ = w.Write([]byte(`{"id":"user-1","email":"a@example.com","user_metadata":{"role":"USER","name":"Alex"}}`))
		case "/auth/v1/logout":
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	user, err := client.GetUser(context.Background(), "user-token")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)

	user, err = client.AdminGetUser(context.Background(), "user-1")
	require.NoError(t, err)
	name, ok := user.MetadataString("name")
	assert.True(t, ok)
	assert.Equal(t, "Alex", name)

	_, err = client.AdminUpdateMetadata(context.Background(), "user-1", map[string]interface{}{"phone": nil})
	require.NoError(t, err)

	require.NoError(t, client.AdminDeleteUser(context.Background(), "user-1"))
	require.NoError(t, client.Logout(context.Background(), "user-token"))
}
