package storage

import (
	"fmt"
	"log/slog"

	"github.com/rs/zerolog"

	"github.com/opendash/cansim/internal/config"
	"github.com/opendash/cansim/internal/storage/memory"
	"github.com/opendash/cansim/internal/storage/sqlite"
	"github.com/opendash/cansim/internal/storage/websocket"
)

// NewBackend creates a storage backend based on configuration.
func NewBackend(cfg config.StorageConfig, dbLog zerolog.Logger, log *slog.Logger) (Backend, error) {
	switch cfg.Type {
	case "memory":
		return memory.New(cfg.Memory), nil
	case "sqlite":
		return sqlite.New(sqlite.Config{
			DumpInterval: cfg.SQLite.DumpInterval,
			DumpPath:     cfg.SQLite.DumpPath,
		}, dbLog, log), nil
	case "websocket":
		return websocket.New(websocket.Config{
			URL:    cfg.Websocket.URL,
			Secret: cfg.Websocket.Secret,
		}), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
