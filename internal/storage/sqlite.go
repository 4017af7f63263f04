package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/IshaanNene/shelfwatch/internal/catalog"
	"github.com/IshaanNene/shelfwatch/internal/types"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS products (
	seq           INTEGER PRIMARY KEY,
	product_title TEXT NOT NULL UNIQUE,
	product_price REAL NOT NULL CHECK (product_price >= 0),
	path_to_image TEXT NOT NULL
);`

// SQLiteStore persists the catalogue in a local SQLite database. The
// seq column preserves insertion order across save/load cycles.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) the database at path and ensures
// the schema exists.
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &types.StorageError{Backend: "sqlite", Op: "open", Err: err}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, &types.StorageError{Backend: "sqlite", Op: "init schema", Err: err}
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "sqlite_store"),
	}, nil
}

func (s *SQLiteStore) Name() string { return "sqlite" }

func (s *SQLiteStore) Load(ctx context.Context) ([]catalog.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT product_title, product_price, path_to_image FROM products ORDER BY seq`)
	if err != nil {
		return nil, &types.StorageError{Backend: "sqlite", Op: "load", Err: err}
	}
	defer rows.Close()

	var products []catalog.Product
	for rows.Next() {
		var p catalog.Product
		if err := rows.Scan(&p.Title, &p.Price, &p.ImagePath); err != nil {
			return nil, &types.StorageError{Backend: "sqlite", Op: "load", Err: err}
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &types.StorageError{Backend: "sqlite", Op: "load", Err: err}
	}

	s.logger.Debug("catalogue loaded", "products", len(products))
	return products, nil
}

func (s *SQLiteStore) Save(ctx context.Context, products []catalog.Product) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &types.StorageError{Backend: "sqlite", Op: "save", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
		return &types.StorageError{Backend: "sqlite", Op: "save", Err: err}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO products (seq, product_title, product_price, path_to_image) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return &types.StorageError{Backend: "sqlite", Op: "save", Err: err}
	}
	defer stmt.Close()

	for i, p := range products {
		if _, err := stmt.ExecContext(ctx, i+1, p.Title, p.Price, p.ImagePath); err != nil {
			return &types.StorageError{Backend: "sqlite", Op: "save", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &types.StorageError{Backend: "sqlite", Op: "save", Err: err}
	}

	s.logger.Info("catalogue written", "products", len(products))
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
