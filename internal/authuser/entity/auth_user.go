package entity

import (
	"time"

	"github.com/lib/pq"
)

// AuthUser is the internal record for one identity-provider user, keyed by UserID.
type AuthUser struct {
	ID                      int64          `db:"id" json:"-"`
	UserID                  string         `db:"user_id" json:"user_id"`
	Name                    string         `db:"name" json:"name"`
	Nickname                string         `db:"nickname" json:"nickname"`
	Username                string         `db:"username" json:"username,omitempty"`
	Email                   string         `db:"email" json:"email"`
	EmailVerified           bool           `db:"email_verified" json:"email_verified"`
	Picture                 string         `db:"picture" json:"picture,omitempty"`
	Company                 string         `db:"company" json:"company"`
	Blog                    string         `db:"blog" json:"blog,omitempty"`
	Phone                   string         `db:"phone" json:"phone,omitempty"`
	PhoneVerified           bool           `db:"phone_verified" json:"phone_verified"`
	Locale                  string         `db:"locale" json:"locale,omitempty"`
	LoginProvider           string         `db:"login_provider" json:"login_provider"`
	CreatedAt               time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time      `db:"updated_at" json:"updated_at"`
	LastLogin               time.Time      `db:"last_login" json:"last_login"`
	LastIP                  string         `db:"last_ip" json:"last_ip"`
	LoginsCount             int            `db:"logins_count" json:"logins_count"`
	LastApplicationAccessed string         `db:"last_application_accessed" json:"last_application_accessed"`
	LinkToPeople            pq.StringArray `db:"link_to_people" json:"link_to_people"`
	LinkToAuthUserLogins    pq.StringArray `db:"link_to_auth_user_logins" json:"link_to_auth_user_logins"`
	LinkToPageViews         pq.StringArray `db:"link_to_page_views" json:"link_to_page_views"`
}

// AuthUserLogin is one login event of one user. ID is derived from
// (UserID, LogID) so the same event always maps to the same row.
type AuthUserLogin struct {
	ID           string    `db:"id" json:"id"`
	LogID        string    `db:"log_id" json:"log_id"`
	UserID       string    `db:"user_id" json:"user_id"`
	Email        string    `db:"email" json:"email"`
	Date         time.Time `db:"date" json:"date"`
	Type         string    `db:"type" json:"type"`
	Description  string    `db:"description" json:"description,omitempty"`
	ClientID     string    `db:"client_id" json:"client_id,omitempty"`
	ClientName   string    `db:"client_name" json:"client_name"`
	Connection   string    `db:"connection" json:"connection,omitempty"`
	IP           string    `db:"ip" json:"ip,omitempty"`
	Hostname     string    `db:"hostname" json:"hostname,omitempty"`
	UserAgent    string    `db:"user_agent" json:"user_agent,omitempty"`
	UserName     string    `db:"user_name" json:"user_name,omitempty"`
	Strategy     string    `db:"strategy" json:"strategy,omitempty"`
	StrategyType string    `db:"strategy_type" json:"strategy_type,omitempty"`
	IsMobile     bool      `db:"is_mobile" json:"is_mobile"`
}
