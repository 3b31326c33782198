package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/discord-modmail/modmail/internal/config"
	"github.com/discord-modmail/modmail/internal/domain"
)

// ErrInvalidCredentials is returned for unknown users and wrong passwords alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Accounts authenticates dashboard logins against configured staff accounts.
type Accounts struct {
	byName map[string]domain.StaffAccount
	tokens *TokenManager
}

// NewAccounts validates the configured accounts. Role defaults to MODERATOR.
func NewAccounts(cfg []config.AccountConfig, tokens *TokenManager) (*Accounts, error) {
	a := &Accounts{byName: make(map[string]domain.StaffAccount, len(cfg)), tokens: tokens}
	for _, acc := range cfg {
		role := domain.StaffRole(strings.ToUpper(strings.TrimSpace(acc.Role)))
		if role == "" {
			role = domain.StaffRoleModerator
		}
		if !role.Valid() {
			return nil, fmt.Errorf("account %q: unknown role %q", acc.Username, acc.Role)
		}
		a.byName[acc.Username] = domain.StaffAccount{
			Username:     acc.Username,
			PasswordHash: acc.PasswordHash,
			Role:         role,
		}
	}
	return a, nil
}

// Len returns the number of configured accounts.
func (a *Accounts) Len() int {
	return len(a.byName)
}

// Login checks the password and issues an access token.
func (a *Accounts) Login(username, password string) (*domain.StaffAccount, string, time.Time, error) {
	acc, ok := a.byName[username]
	if !ok {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if !passwordMatches(acc.PasswordHash, password) {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	token, exp, err := a.tokens.GenerateToken(acc.Username, acc.Role)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return &acc, token, exp, nil
}
