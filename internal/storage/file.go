package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/IshaanNene/shelfwatch/internal/catalog"
)

// JSONStore persists the catalogue as a pretty-printed JSON array.
//
// Load never fails the caller: a missing, unreadable, or structurally
// invalid file is logged and treated as an empty catalogue, so a crawl
// session always has a baseline to reconcile against.
type JSONStore struct {
	path   string
	logger *slog.Logger
}

// NewJSONStore creates a JSON file store at path.
func NewJSONStore(path string, logger *slog.Logger) (*JSONStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	return &JSONStore{
		path:   path,
		logger: logger.With("component", "json_store"),
	}, nil
}

func (s *JSONStore) Name() string { return "json" }

func (s *JSONStore) Load(ctx context.Context) ([]catalog.Product, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info("no existing catalogue, starting fresh", "path", s.path)
		} else {
			s.logger.Warn("catalogue unreadable, starting fresh", "path", s.path, "error", err)
		}
		return nil, nil
	}

	products, err := decodeProducts(data)
	if err != nil {
		s.logger.Warn("discarding invalid catalogue file", "path", s.path, "error", err)
		return nil, nil
	}

	s.logger.Debug("catalogue loaded", "path", s.path, "products", len(products))
	return products, nil
}

func (s *JSONStore) Save(ctx context.Context, products []catalog.Product) error {
	if products == nil {
		products = []catalog.Product{}
	}

	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(products); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}

	s.logger.Info("catalogue written", "path", s.path, "products", len(products))
	return nil
}

func (s *JSONStore) Close() error { return nil }

// decodeProducts parses and structurally validates a catalogue file.
// Every record must carry exactly product_title (string), product_price
// (non-negative number), and path_to_image (string); any deviation
// invalidates the whole file.
func decodeProducts(data []byte) ([]catalog.Product, error) {
	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}

	products := make([]catalog.Product, 0, len(records))
	for i, record := range records {
		if len(record) != 3 {
			return nil, fmt.Errorf("record %d: has %d fields, want 3", i, len(record))
		}

		title, ok := record["product_title"].(string)
		if !ok {
			return nil, fmt.Errorf("record %d: product_title missing or not a string", i)
		}
		price, ok := record["product_price"].(float64)
		if !ok {
			return nil, fmt.Errorf("record %d: product_price missing or not a number", i)
		}
		if price < 0 {
			return nil, fmt.Errorf("record %d: product_price is negative", i)
		}
		imagePath, ok := record["path_to_image"].(string)
		if !ok {
			return nil, fmt.Errorf("record %d: path_to_image missing or not a string", i)
		}

		products = append(products, catalog.Product{
			Title:     title,
			Price:     price,
			ImagePath: imagePath,
		})
	}

	return products, nil
}
