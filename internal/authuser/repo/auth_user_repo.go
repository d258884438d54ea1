package repo

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ovaphlow/pitchfork/service-authsync/internal/authuser/entity"
)

// AuthUserRepo provides data access for the auth_users table using sqlx.
// Schema lives in pkg/database/migrations.
type AuthUserRepo struct {
	db *sqlx.DB
}

func NewAuthUserRepo(db *sqlx.DB) *AuthUserRepo { return &AuthUserRepo{db: db} }

// UpsertAuthUser inserts or updates the row keyed by user_id. The link_to_*
// columns are only written on insert; later enrichment owns them afterwards.
func (r *AuthUserRepo) UpsertAuthUser(ctx context.Context, u *entity.AuthUser) error {
	if u.UserID == "" {
		return errors.New("auth user without user_id")
	}
	const q = `INSERT INTO auth_users (user_id,name,nickname,username,email,email_verified,picture,company,blog,phone,phone_verified,
		locale,login_provider,created_at,updated_at,last_login,last_ip,logins_count,last_application_accessed,
		link_to_people,link_to_auth_user_logins,link_to_page_views)
	  VALUES (:user_id,:name,:nickname,:username,:email,:email_verified,:picture,:company,:blog,:phone,:phone_verified,
		:locale,:login_provider,:created_at,:updated_at,:last_login,:last_ip,:logins_count,:last_application_accessed,
		:link_to_people,:link_to_auth_user_logins,:link_to_page_views)
	  ON CONFLICT (user_id) DO UPDATE SET
		name=EXCLUDED.name, nickname=EXCLUDED.nickname, username=EXCLUDED.username, email=EXCLUDED.email,
		email_verified=EXCLUDED.email_verified, picture=EXCLUDED.picture, company=EXCLUDED.company, blog=EXCLUDED.blog,
		phone=EXCLUDED.phone, phone_verified=EXCLUDED.phone_verified, locale=EXCLUDED.locale,
		login_provider=EXCLUDED.login_provider, created_at=EXCLUDED.created_at, updated_at=EXCLUDED.updated_at,
		last_login=EXCLUDED.last_login, last_ip=EXCLUDED.last_ip, logins_count=EXCLUDED.logins_count,
		last_application_accessed=EXCLUDED.last_application_accessed
	  RETURNING id`

	row := *u
	row.LinkToPeople = orEmpty(row.LinkToPeople)
	row.LinkToAuthUserLogins = orEmpty(row.LinkToAuthUserLogins)
	row.LinkToPageViews = orEmpty(row.LinkToPageViews)

	rows, err := r.db.NamedQueryContext(ctx, q, &row)
	if err != nil {
		return err
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&u.ID); err != nil {
			return err
		}
		return rows.Err()
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return errors.New("no id returned")
}

// GetByUserID returns the row for userID or sql.ErrNoRows.
func (r *AuthUserRepo) GetByUserID(ctx context.Context, userID string) (*entity.AuthUser, error) {
	const q = `SELECT id, user_id, name, nickname, username, email, email_verified, picture, company, blog,
		phone, phone_verified, locale, login_provider, created_at, updated_at, last_login, last_ip, logins_count,
		last_application_accessed, link_to_people, link_to_auth_user_logins, link_to_page_views
	  FROM auth_users WHERE user_id=$1`
	var u entity.AuthUser
	if err := r.db.GetContext(ctx, &u, q, userID); err != nil {
		return nil, err
	}
	return &u, nil
}

// Count returns the number of synced users.
func (r *AuthUserRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM auth_users`)
	return n, err
}

func orEmpty(a pq.StringArray) pq.StringArray {
	if a == nil {
		return pq.StringArray{}
	}
	return a
}
