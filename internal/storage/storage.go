package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/shelfwatch/internal/catalog"
	"github.com/IshaanNene/shelfwatch/internal/config"
)

// RecordStore persists the product catalogue between crawl sessions.
type RecordStore interface {
	// Load returns the previously persisted catalogue in insertion
	// order. File-backed stores treat absent or malformed data as an
	// empty catalogue; server-backed stores may return infrastructure
	// errors.
	Load(ctx context.Context) ([]catalog.Product, error)

	// Save replaces the persisted catalogue with products.
	Save(ctx context.Context, products []catalog.Product) error

	// Name returns the storage backend identifier.
	Name() string

	// Close flushes pending writes and releases resources.
	Close() error
}

// New creates the configured storage backend.
func New(cfg config.StorageConfig, logger *slog.Logger) (RecordStore, error) {
	switch cfg.Type {
	case "json", "":
		return NewJSONStore(cfg.Path, logger)
	case "sqlite":
		return NewSQLiteStore(cfg.Path, logger)
	case "mongo":
		return NewMongoStore(cfg.MongoURI, cfg.Database, cfg.Collection, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
