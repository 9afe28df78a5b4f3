// Package redis keeps admin sessions and the admin audit trail in redis.
package redis

import (
	"context"

	gredis "github.com/Laisky/go-redis/v2"
	"github.com/Laisky/errors/v2"
	"github.com/redis/go-redis/v9"
)

// DB is a wrapper for go-redis
type DB struct {
	cli   *redis.Client
	utils *gredis.Utils
}

// NewDB creates a new DB instance
func NewDB(opt *redis.Options) *DB {
	rdb := redis.NewClient(opt)

	return &DB{
		cli:   rdb,
		utils: gredis.NewRedisUtils(rdb),
	}
}

// Ping checks the server is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return errors.Wrap(db.cli.Ping(ctx).Err(), "ping redis")
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return errors.Wrap(db.cli.Close(), "close redis")
}
