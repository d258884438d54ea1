package authuser

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/ovaphlow/pitchfork/service-authsync/internal/authuser/entity"
	"github.com/ovaphlow/pitchfork/service-authsync/internal/authuser/repo"
)

// UserWriter persists normalized users keyed by user id.
type UserWriter interface {
	UpsertAuthUser(ctx context.Context, u *entity.AuthUser) error
}

// LoginWriter persists login events keyed by their derived id.
type LoginWriter interface {
	UpsertAuthUserLogin(ctx context.Context, l *entity.AuthUserLogin) error
}

// Service is the upsert sink of a sync run. Each call is an independent,
// idempotent write; nothing is read back.
type Service struct {
	users  UserWriter
	logins LoginWriter
}

// NewService wires the sink. Nil writers default to the Postgres repos on db.
func NewService(db *sqlx.DB, users UserWriter, logins LoginWriter) *Service {
	if users == nil {
		users = repo.NewAuthUserRepo(db)
	}
	if logins == nil {
		logins = repo.NewLoginRepo(db)
	}
	return &Service{users: users, logins: logins}
}

// NewRedisService stores both record kinds in Redis.
func NewRedisService(rdb redis.UniversalClient) *Service {
	r := repo.NewRedisRepo(rdb, "")
	return &Service{users: r, logins: r}
}

func (s *Service) UpsertAuthUser(ctx context.Context, u *entity.AuthUser) error {
	if err := s.users.UpsertAuthUser(ctx, u); err != nil {
		return fmt.Errorf("upsert auth user %s: %w", u.UserID, err)
	}
	return nil
}

func (s *Service) UpsertAuthUserLogin(ctx context.Context, l *entity.AuthUserLogin) error {
	if err := s.logins.UpsertAuthUserLogin(ctx, l); err != nil {
		return fmt.Errorf("upsert auth user login %s for %s: %w", l.ID, l.UserID, err)
	}
	return nil
}
