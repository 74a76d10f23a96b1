package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/xraph/depot"
	"github.com/xraph/depot/auth"
	"github.com/xraph/depot/id"
	"github.com/xraph/depot/store/memory"
	"github.com/xraph/depot/user"
)

func login(t *testing.T) (*auth.Provider, *user.User, string) {
	t.Helper()
	ctx := context.Background()
	h, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	st := memory.New()
	u := &user.User{ID: id.NewUserID(), Email: "rui@example.com", PasswordHash: string(h)}
	require.NoError(t, st.CreateUser(ctx, u))

	p, err := auth.NewProvider(auth.WithStore(st))
	require.NoError(t, err)
	sess, err := p.Login(ctx, auth.LoginRequest{Email: u.Email, Password: "secret"})
	require.NoError(t, err)
	return p, u, sess.Token
}

func TestSessionInjectsUser(t *testing.T) {
	p, u, token := login(t)

	var got *user.User
	h := Session(p)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.UserFrom(r.Context())
		assert.Equal(t, token, auth.TokenFrom(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/stops", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
}

func TestSessionRejectsUnknownToken(t *testing.T) {
	p, _, _ := login(t)
	called := false
	h := Session(p)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	req := httptest.NewRequest(http.MethodGet, "/stops", nil)
	req.Header.Set(auth.HeaderSessionToken, "nope")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
}

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{depot.ErrUnauthorized, http.StatusUnauthorized},
		{depot.ErrForbidden, http.StatusForbidden},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		code, _ := status(tt.err)
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}

func TestMemberOf(t *testing.T) {
	org := id.NewOrganizationID()
	assert.True(t, memberOf([]id.OrganizationID{id.NewOrganizationID(), org}, org.String()))
	assert.False(t, memberOf(nil, org.String()))
}
