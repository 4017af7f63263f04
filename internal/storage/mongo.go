package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/shelfwatch/internal/catalog"
	"github.com/IshaanNene/shelfwatch/internal/types"
)

// mongoDoc is the stored document shape. seq preserves catalogue order.
type mongoDoc struct {
	Seq       int     `bson:"seq"`
	Title     string  `bson:"product_title"`
	Price     float64 `bson:"product_price"`
	ImagePath string  `bson:"path_to_image"`
}

// MongoStore persists the catalogue in a MongoDB collection.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewMongoStore connects to MongoDB and pings it to fail fast on a bad
// URI.
func NewMongoStore(uri, database, collection string, logger *slog.Logger) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
		logger:     logger.With("component", "mongo_store"),
	}, nil
}

func (s *MongoStore) Name() string { return "mongo" }

func (s *MongoStore) Load(ctx context.Context) ([]catalog.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	cursor, err := s.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, &types.StorageError{Backend: "mongo", Op: "load", Err: err}
	}
	defer cursor.Close(ctx)

	var docs []mongoDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, &types.StorageError{Backend: "mongo", Op: "load", Err: err}
	}

	products := make([]catalog.Product, len(docs))
	for i, doc := range docs {
		products[i] = catalog.Product{
			Title:     doc.Title,
			Price:     doc.Price,
			ImagePath: doc.ImagePath,
		}
	}

	s.logger.Debug("catalogue loaded", "products", len(products))
	return products, nil
}

func (s *MongoStore) Save(ctx context.Context, products []catalog.Product) error {
	if _, err := s.collection.DeleteMany(ctx, bson.D{}); err != nil {
		return &types.StorageError{Backend: "mongo", Op: "save", Err: err}
	}

	if len(products) == 0 {
		s.logger.Info("catalogue written", "products", 0)
		return nil
	}

	docs := make([]any, len(products))
	for i, p := range products {
		docs[i] = mongoDoc{
			Seq:       i + 1,
			Title:     p.Title,
			Price:     p.Price,
			ImagePath: p.ImagePath,
		}
	}

	if _, err := s.collection.InsertMany(ctx, docs); err != nil {
		return &types.StorageError{Backend: "mongo", Op: "save", Err: err}
	}

	s.logger.Info("catalogue written", "products", len(products))
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
