package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ovaphlow/pitchfork/service-authsync/internal/authuser/entity"
)

const defaultRedisPrefix = "authsync"

// RedisRepo stores users and logins as JSON documents in Redis. Key layout:
//
//	{prefix}:users                  set of user ids
//	{prefix}:user:{user_id}         user document
//	{prefix}:user:{user_id}:logins  sorted set of login ids scored by event time
//	{prefix}:login:{id}             login document
type RedisRepo struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedisRepo(rdb redis.UniversalClient, prefix string) *RedisRepo {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisRepo{rdb: rdb, prefix: prefix}
}

func (r *RedisRepo) usersKey() string { return r.prefix + ":users" }
func (r *RedisRepo) userKey(id string) string { return r.prefix + ":user:" + id }
func (r *RedisRepo) userLoginsKey(id string) string { return r.prefix + ":user:" + id + ":logins" }
func (r *RedisRepo) loginKey(id string) string { return r.prefix + ":login:" + id }

func (r *RedisRepo) UpsertAuthUser(ctx context.Context, u *entity.AuthUser) error {
	if u.UserID == "" {
		return errors.New("auth user without user_id")
	}
	b, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode auth user: %w", err)
	}
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.userKey(u.UserID), b, 0)
		pipe.SAdd(ctx, r.usersKey(), u.UserID)
		return nil
	})
	return err
}

func (r *RedisRepo) UpsertAuthUserLogin(ctx context.Context, l *entity.AuthUserLogin) error {
	if l.ID == "" {
		return errors.New("auth user login without id")
	}
	b, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("encode auth user login: %w", err)
	}
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.loginKey(l.ID), b, 0)
		pipe.ZAdd(ctx, r.userLoginsKey(l.UserID), redis.Z{Score: float64(l.Date.Unix()), Member: l.ID})
		return nil
	})
	return err
}

// GetByUserID returns the stored user or redis.Nil when absent.
func (r *RedisRepo) GetByUserID(ctx context.Context, userID string) (*entity.AuthUser, error) {
	b, err := r.rdb.Get(ctx, r.userKey(userID)).Bytes()
	if err != nil {
		return nil, err
	}
	var u entity.AuthUser
	if err := json.Unmarshal(b, &u); err != nil {
		return nil, fmt.Errorf("decode auth user: %w", err)
	}
	return &u, nil
}

// LoginIDs returns the stored login ids of a user, newest first.
func (r *RedisRepo) LoginIDs(ctx context.Context, userID string) ([]string, error) {
	return r.rdb.ZRevRange(ctx, r.userLoginsKey(userID), 0, -1).Result()
}

// Count returns the number of synced users.
func (r *RedisRepo) Count(ctx context.Context) (int, error) {
	n, err := r.rdb.SCard(ctx, r.usersKey()).Result()
	return int(n), err
}
