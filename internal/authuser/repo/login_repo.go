package repo

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-authsync/internal/authuser/entity"
)

type LoginRepo struct {
	db *sqlx.DB
}

func NewLoginRepo(db *sqlx.DB) *LoginRepo { return &LoginRepo{db: db} }

// UpsertAuthUserLogin writes one login event keyed by its derived id.
func (r *LoginRepo) UpsertAuthUserLogin(ctx context.Context, l *entity.AuthUserLogin) error {
	if l.ID == "" {
		return errors.New("auth user login without id")
	}
	const q = `INSERT INTO auth_user_logins (id,log_id,user_id,email,date,type,description,client_id,client_name,
		connection,ip,hostname,user_agent,user_name,strategy,strategy_type,is_mobile)
	  VALUES (:id,:log_id,:user_id,:email,:date,:type,:description,:client_id,:client_name,
		:connection,:ip,:hostname,:user_agent,:user_name,:strategy,:strategy_type,:is_mobile)
	  ON CONFLICT (id) DO UPDATE SET
		email=EXCLUDED.email, date=EXCLUDED.date, type=EXCLUDED.type, description=EXCLUDED.description,
		client_id=EXCLUDED.client_id, client_name=EXCLUDED.client_name, connection=EXCLUDED.connection,
		ip=EXCLUDED.ip, hostname=EXCLUDED.hostname, user_agent=EXCLUDED.user_agent, user_name=EXCLUDED.user_name,
		strategy=EXCLUDED.strategy, strategy_type=EXCLUDED.strategy_type, is_mobile=EXCLUDED.is_mobile`
	_, err := r.db.NamedExecContext(ctx, q, l)
	return err
}

// ListByUserID returns the stored logins of a user, newest first.
func (r *LoginRepo) ListByUserID(ctx context.Context, userID string) ([]entity.AuthUserLogin, error) {
	const q = `SELECT id, log_id, user_id, email, date, type, description, client_id, client_name, connection,
		ip, hostname, user_agent, user_name, strategy, strategy_type, is_mobile
	  FROM auth_user_logins WHERE user_id=$1 ORDER BY date DESC`
	var out []entity.AuthUserLogin
	if err := r.db.SelectContext(ctx, &out, q, userID); err != nil {
		return nil, err
	}
	return out, nil
}
