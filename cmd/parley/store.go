package main

import (
	"context"
	"fmt"

	"github.com/nathoo/parley/config"
	"github.com/nathoo/parley/store"
	"github.com/nathoo/parley/store/file"
	"github.com/nathoo/parley/store/redis"
	"github.com/nathoo/parley/store/sqlite"
)

// openStore builds the save-slot backend named by the configuration. The
// redis backend is pinged so a bad address fails before play starts.
func openStore(ctx context.Context, cfg config.Store) (store.Store, error) {
	switch cfg.Driver {
	case "file":
		return file.New(cfg.Path), nil
	case "sqlite":
		s, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, nil
	case "redis":
		s := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, redis.WithPrefix(cfg.Prefix))
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("connect redis store at %s: %w", cfg.RedisAddr, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
