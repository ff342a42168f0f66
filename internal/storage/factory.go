// Package storage provides factory for creating storage backends.
package storage

import (
	"fmt"
	"io"
	"log"

	"reasoning-orchestrator/internal/config"
)

// New creates a Store backend from configuration, falling back to
// memory (non-durable) if a SQLite backend cannot be initialized. Per
// spec §6 the store is optional: a construction failure here degrades
// the core to in-memory mode rather than failing startup.
func New(cfg config.StorageConfig) (Store, error) {
	switch cfg.Type {
	case "memory", "":
		log.Println("initializing in-memory store")
		return NewMemoryStore(), nil

	case "sqlite":
		log.Printf("initializing sqlite store at %s", cfg.Path)
		store, err := NewSQLiteStore(cfg.Path)
		if err != nil {
			log.Printf("sqlite initialization failed: %v. falling back to in-memory store", err)
			return NewMemoryStore(), nil
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// Close safely closes a store if it implements io.Closer (SQLiteStore
// does; MemoryStore does not need cleanup).
func Close(s Store) error {
	if closer, ok := s.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
