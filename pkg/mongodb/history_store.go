// Package mongodb keeps the dispatch history in a MongoDB collection, one
// document per dispatch id.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/onurcolak/checkin-dispatch-service/environments"
	"github.com/onurcolak/checkin-dispatch-service/internal/domain"
	"github.com/onurcolak/checkin-dispatch-service/pkg/logger"
)

type historyDocument struct {
	ID        string `bson:"_id"`
	Timestamp string `bson:"timestamp"`
	Success   bool   `bson:"success"`
}

type HistoryStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewHistoryStore connects and pings before returning.
func NewHistoryStore(ctx context.Context, cfg environments.MongoConfig) (*HistoryStore, error) {
	clientOptions := options.Client().ApplyURI(cfg.URI)

	if cfg.Username != "" && cfg.Password != "" {
		clientOptions.SetAuth(options.Credential{
			Username: cfg.Username,
			Password: cfg.Password,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Infof("Connected to MongoDB, history collection %s.%s", cfg.Database, cfg.Collection)

	return &HistoryStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (s *HistoryStore) LoadHistory(ctx context.Context) (domain.DispatchHistory, error) {
	cursor, err := s.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to query dispatch history: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var docs []historyDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode dispatch history: %w", err)
	}

	return fromDocuments(docs), nil
}

// SaveHistory upserts every entry, then deletes documents whose id is not in
// history.
func (s *HistoryStore) SaveHistory(ctx context.Context, history domain.DispatchHistory) error {
	ids := make([]string, 0, len(history))

	if len(history) > 0 {
		models := make([]mongo.WriteModel, 0, len(history))
		for _, doc := range toDocuments(history) {
			ids = append(ids, doc.ID)
			models = append(models, mongo.NewReplaceOneModel().
				SetFilter(bson.M{"_id": doc.ID}).
				SetReplacement(doc).
				SetUpsert(true))
		}

		if _, err := s.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
			return fmt.Errorf("failed to upsert dispatch history: %w", err)
		}
	}

	if _, err := s.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$nin": ids}}); err != nil {
		return fmt.Errorf("failed to prune dispatch history: %w", err)
	}

	return nil
}

func (s *HistoryStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *HistoryStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func toDocuments(history domain.DispatchHistory) []historyDocument {
	docs := make([]historyDocument, 0, len(history))
	for id, status := range history {
		docs = append(docs, historyDocument{ID: id, Timestamp: status.Timestamp, Success: status.Success})
	}
	return docs
}

func fromDocuments(docs []historyDocument) domain.DispatchHistory {
	history := make(domain.DispatchHistory, len(docs))
	for _, doc := range docs {
		history[doc.ID] = domain.DispatchStatus{Timestamp: doc.Timestamp, Success: doc.Success}
	}
	return history
}
