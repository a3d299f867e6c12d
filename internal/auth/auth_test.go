package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/atlassify/internal/credential"
	"github.com/nhle/atlassify/internal/model"
	"github.com/nhle/atlassify/internal/source/atlassian"
	"github.com/nhle/atlassify/tests/testutil"
)

type user struct {
	id, name string
}

// newGateway fakes the Me query. users maps a username to its valid
// token and profile.
func newGateway(t *testing.T, tokens map[string]string, users map[string]user) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, token, ok := r.BasicAuth()
		if !ok || tokens[username] != token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		u := users[username]
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"me": map[string]any{
					"user": map[string]any{
						"accountId": u.id,
						"name":      u.name,
						"picture":   "https://avatar.example.com/" + u.id,
					},
				},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newService(t *testing.T, srv *httptest.Server) (*Service, keyring.Keyring) {
	t.Helper()

	ring := keyring.NewArrayKeyring(nil)
	vault := credential.NewVault(ring)
	client := atlassian.NewClient(srv.URL, vault, 5*time.Second)
	return NewService(testutil.NewTestStore(t), vault, client), ring
}

func TestLogin_StoresValidatedAccount(t *testing.T) {
	srv := newGateway(t,
		map[string]string{"jane@example.com": "tok-1"},
		map[string]user{"jane@example.com": {id: "557058:jane", name: "Jane Doe"}},
	)
	svc, ring := newService(t, srv)
	ctx := context.Background()

	account, err := svc.Login(ctx, " jane@example.com ", "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "557058:jane", account.ID)
	assert.Equal(t, "Jane Doe", account.DisplayName)
	assert.Equal(t, "https://avatar.example.com/557058:jane", account.AvatarURL)
	assert.NotContains(t, account.EncryptedToken, "tok-1")

	accounts, err := svc.Accounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"557058:jane"}, ids(accounts))

	keys, err := ring.Keys()
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestLogin_RejectedCredentialsLeaveNoTrace(t *testing.T) {
	srv := newGateway(t, map[string]string{"jane@example.com": "tok-1"}, nil)
	svc, ring := newService(t, srv)
	ctx := context.Background()

	_, err := svc.Login(ctx, "jane@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, atlassian.IsAuthError(err))

	accounts, err := svc.Accounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)

	keys, err := ring.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestLogin_RequiresCredentials(t *testing.T) {
	svc, _ := newService(t, newGateway(t, nil, nil))
	_, err := svc.Login(context.Background(), "", "tok")
	assert.Error(t, err)
}

func TestLogin_SameUserReplacesEntry(t *testing.T) {
	srv := newGateway(t,
		map[string]string{"jane@example.com": "tok-1"},
		map[string]user{"jane@example.com": {id: "557058:jane", name: "Jane"}},
	)
	svc, ring := newService(t, srv)
	ctx := context.Background()

	_, err := svc.Login(ctx, "jane@example.com", "tok-1")
	require.NoError(t, err)
	_, err = svc.Login(ctx, "jane@example.com", "tok-1")
	require.NoError(t, err)

	accounts, err := svc.Accounts(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)

	keys, err := ring.Keys()
	require.NoError(t, err)
	assert.Len(t, keys, 1, "old token is forgotten")
}

func TestLogout(t *testing.T) {
	srv := newGateway(t,
		map[string]string{"jane@example.com": "tok-1", "sam@example.com": "tok-2"},
		map[string]user{
			"jane@example.com": {id: "jane", name: "Jane"},
			"sam@example.com":  {id: "sam", name: "Sam"},
		},
	)
	svc, ring := newService(t, srv)
	ctx := context.Background()

	_, err := svc.Login(ctx, "jane@example.com", "tok-1")
	require.NoError(t, err)
	_, err = svc.Login(ctx, "sam@example.com", "tok-2")
	require.NoError(t, err)

	removed, err := svc.Logout(ctx, "jane")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", removed.Username)

	accounts, err := svc.Accounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"sam"}, ids(accounts))

	keys, err := ring.Keys()
	require.NoError(t, err)
	assert.Len(t, keys, 1)

	_, err = svc.Logout(ctx, "jane")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestRefreshAccounts(t *testing.T) {
	tokens := map[string]string{"jane@example.com": "tok-1", "sam@example.com": "tok-2"}
	users := map[string]user{
		"jane@example.com": {id: "jane", name: "Jane"},
		"sam@example.com":  {id: "sam", name: "Sam"},
	}
	srv := newGateway(t, tokens, users)
	svc, _ := newService(t, srv)
	ctx := context.Background()

	_, err := svc.Login(ctx, "jane@example.com", "tok-1")
	require.NoError(t, err)
	_, err = svc.Login(ctx, "sam@example.com", "tok-2")
	require.NoError(t, err)

	users["jane@example.com"] = user{id: "jane", name: "Jane Q. Doe"}
	tokens["sam@example.com"] = "revoked"

	accounts, err := svc.RefreshAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "Jane Q. Doe", accounts[0].DisplayName)
	assert.Equal(t, "Sam", accounts[1].DisplayName, "failed refresh keeps stored details")
}

func ids(accounts []model.Account) []string {
	out := make([]string, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a.ID)
	}
	return out
}
