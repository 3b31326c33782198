package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/discord-modmail/modmail/internal/config"
	"github.com/discord-modmail/modmail/internal/domain"
	"github.com/discord-modmail/modmail/pkg/errorutil"
)

func newAccounts(t *testing.T) *Accounts {
	t.Helper()
	hash, err := HashPassword("hunter2", bcrypt.MinCost)
	require.NoError(t, err)
	accounts, err := NewAccounts([]config.AccountConfig{
		{Username: "admin", PasswordHash: hash, Role: "admin"},
		{Username: "mod", PasswordHash: hash},
	}, NewTokenManager("secret", 5))
	require.NoError(t, err)
	return accounts
}

func TestAccounts_Login(t *testing.T) {
	accounts := newAccounts(t)
	assert.Equal(t, 2, accounts.Len())

	acc, token, exp, err := accounts.Login("admin", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, domain.StaffRoleAdmin, acc.Role)
	assert.NotEmpty(t, token)
	assert.False(t, exp.IsZero())

	claims, err := accounts.tokens.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
	assert.Equal(t, domain.StaffRoleAdmin, claims.Role)

	acc, _, _, err = accounts.Login("mod", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, domain.StaffRoleModerator, acc.Role)

	_, _, _, err = accounts.Login("admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, _, err = accounts.Login("ghost", "hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("hunter2", 0)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
	assert.True(t, passwordMatches(hash, "hunter2"))
	assert.False(t, passwordMatches(hash, "hunter3"))
	assert.False(t, passwordMatches("not-a-hash", "hunter2"))

	_, err = HashPassword("", bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrEmptyPassword)
	_, err = HashPassword("hunter2", bcrypt.MaxCost+1)
	assert.Error(t, err)
}

func TestNewAccounts_UnknownRole(t *testing.T) {
	_, err := NewAccounts([]config.AccountConfig{{Username: "x", PasswordHash: "h", Role: "owner"}}, NewTokenManager("s", 1))
	require.Error(t, err)
}

func TestParseToken_RejectsOtherSecret(t *testing.T) {
	token, _, err := NewTokenManager("one", 5).GenerateToken("admin", domain.StaffRoleAdmin)
	require.NoError(t, err)

	_, err = NewTokenManager("two", 5).ParseToken(token)
	require.Error(t, err)
}

func newProtectedApp(tokens *TokenManager, roles ...domain.StaffRole) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if de, ok := err.(*errorutil.DomainError); ok {
				return c.SendStatus(de.HTTPStatus)
			}
			if fe, ok := err.(*fiber.Error); ok {
				return c.SendStatus(fe.Code)
			}
			return c.SendStatus(http.StatusInternalServerError)
		},
	})
	mw := NewAuthMiddleware(tokens)
	app.Get("/secret", mw.Handle, RequireStaffRole(roles...), func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.SendString(p.Username)
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	tokens := NewTokenManager("secret", 5)
	adminToken, _, err := tokens.GenerateToken("admin", domain.StaffRoleAdmin)
	require.NoError(t, err)
	modToken, _, err := tokens.GenerateToken("mod", domain.StaffRoleModerator)
	require.NoError(t, err)

	app := newProtectedApp(tokens, domain.StaffRoleAdmin)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"malformed", "Token abc", http.StatusUnauthorized},
		{"garbage", "Bearer abc", http.StatusUnauthorized},
		{"wrong role", "Bearer " + modToken, http.StatusForbidden},
		{"admin", "Bearer " + adminToken, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/secret", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
