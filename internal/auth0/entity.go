package auth0

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is a user record as returned by the management API.
type User struct {
	UserID        string     `json:"user_id"`
	Email         string     `json:"email"`
	EmailVerified bool       `json:"email_verified"`
	Username      string     `json:"username,omitempty"`
	FamilyName    string     `json:"family_name,omitempty"`
	GivenName     string     `json:"given_name,omitempty"`
	Name          string     `json:"name"`
	Nickname      string     `json:"nickname"`
	Picture       string     `json:"picture,omitempty"`
	PhoneNumber   string     `json:"phone_number,omitempty"`
	PhoneVerified bool       `json:"phone_verified"`
	Locale        string     `json:"locale,omitempty"`
	Identities    []Identity `json:"identities"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	LastLogin     time.Time  `json:"last_login"`
	LastIP        string     `json:"last_ip"`
	LoginsCount   int        `json:"logins_count"`
	Blog          string     `json:"blog,omitempty"`
	Company       string     `json:"company,omitempty"`
}

// Identity is one authentication method bound to a user.
type Identity struct {
	AccessToken string `json:"access_token,omitempty"`
	Provider    string `json:"provider"`
	UserID      string `json:"user_id"`
	Connection  string `json:"connection"`
	IsSocial    bool   `json:"isSocial"`
}

// LogEntry is one event from a user's log stream.
type LogEntry struct {
	LogID        string    `json:"log_id"`
	Date         time.Time `json:"date"`
	Type         string    `json:"type"`
	Description  string    `json:"description,omitempty"`
	ClientID     string    `json:"client_id,omitempty"`
	ClientName   string    `json:"client_name,omitempty"`
	Connection   string    `json:"connection,omitempty"`
	IP           string    `json:"ip,omitempty"`
	Hostname     string    `json:"hostname,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
	UserID       string    `json:"user_id,omitempty"`
	UserName     string    `json:"user_name,omitempty"`
	Strategy     string    `json:"strategy,omitempty"`
	StrategyType string    `json:"strategy_type,omitempty"`
	IsMobile     bool      `json:"isMobile"`
}

// Token is the bearer credential used for one sync run.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	Expiry      time.Time `json:"-"`
}

// Claims decodes the registered claims of a JWT access token without
// verifying its signature. It is only used for diagnostics.
func (t *Token) Claims() (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(t.AccessToken, claims); err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}
	return claims, nil
}
