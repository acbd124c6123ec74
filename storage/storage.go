// Package storage is the key/value port behind the local overlay. Every driver scopes
// its keys to one namespace, which plays the role of a single browser profile.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cppla/postfeed/config"
	"github.com/cppla/postfeed/utils"
)

// ErrNotFound is returned by Get when a key has never been written or was removed.
var ErrNotFound = errors.New("storage: key not found")

// Storage is a namespaced byte store.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	// Clear removes every key of the namespace.
	Clear(ctx context.Context) error
}

// Open builds the driver selected by configuration.
func Open(cfg config.AppConfig) (Storage, error) {
	switch strings.ToLower(cfg.StorageDriver) {
	case "memory":
		return NewMemory(), nil
	case "redis":
		rc := utils.GetRedis()
		if rc == nil {
			return nil, errors.New("storage: redis driver selected but no redis host configured")
		}
		return NewRedis(rc, cfg.StorageNamespace), nil
	case "mysql":
		db, err := config.InitDatabase(cfg)
		if err != nil {
			return nil, err
		}
		return NewGorm(db, cfg.StorageNamespace), nil
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q", cfg.StorageDriver)
	}
}

func namespaced(namespace, key string) string {
	if namespace == "" {
		return key
	}
	return namespace + ":" + key
}

func namespacePrefix(namespace string) string {
	if namespace == "" {
		return ""
	}
	return namespace + ":"
}
