package cachestore

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/riverlink/embedsvc/internal/svcerr"
)

// Options is the string-keyed option map a cache.<backend> TOML table
// decodes into (spec.md §6: `cache.{backend}.{option}` string map).
type Options map[string]string

func (o Options) require(field string) (string, error) {
	v, ok := o[field]
	if !ok || v == "" {
		return "", svcerr.ConfigMissing(field)
	}
	return v, nil
}

func (o Options) intOr(field string, def int) (int, error) {
	v, ok := o[field]
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, svcerr.ConfigInvalid(field, err)
	}
	return n, nil
}

// New builds one named backend from its declared kind and options.
// kind is one of "memory", "sqlite", "redis", "kv".
func New(kind string, opts Options, logger *zap.Logger) (Backend, error) {
	switch kind {
	case "memory":
		size, err := opts.intOr("cache_size", 1024)
		if err != nil {
			return nil, err
		}
		return NewMemoryBackend(size), nil
	case "sqlite":
		path, err := opts.require("path")
		if err != nil {
			return nil, err
		}
		return OpenSQLiteBackend(path)
	case "redis":
		addr, err := opts.require("addr")
		if err != nil {
			return nil, err
		}
		db, err := opts.intOr("db", 0)
		if err != nil {
			return nil, err
		}
		return NewRedisBackend(RedisConfig{Addr: addr, Password: opts["password"], DB: db}, logger)
	case "kv":
		path, err := opts.require("path")
		if err != nil {
			return nil, err
		}
		return OpenKVBackend(path)
	default:
		return nil, svcerr.ConfigInvalid("cache.kind", fmt.Errorf("unknown backend kind %q", kind))
	}
}
