// Package store persists layout documents.
//
// The API server writes every pipeline run to MongoDB so layouts can be
// fetched later by run ID and browsed per circuit. The store is optional:
// components that do not need persistence simply never construct one.
package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/schemalab/circuitlay/pkg/cache"
	"github.com/schemalab/circuitlay/pkg/errors"
	"github.com/schemalab/circuitlay/pkg/layout"
)

const (
	defaultDatabase   = "circuitlay"
	defaultCollection = "layouts"
	connectTimeout    = 5 * time.Second
)

// LayoutStore persists layout documents in MongoDB.
type LayoutStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewLayoutStore connects to MongoDB and prepares the layouts collection.
// An empty database name selects the default.
func NewLayoutStore(ctx context.Context, uri, database string) (*LayoutStore, error) {
	if database == "" {
		database = defaultDatabase
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "failed to connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "mongodb unreachable")
	}

	s := &LayoutStore{
		client: client,
		coll:   client.Database(database).Collection(defaultCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *LayoutStore) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "run_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "circuit_name", Value: 1}, {Key: "generated_at", Value: -1}},
		},
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to create indexes")
	}
	return nil
}

// Save upserts a layout document keyed by run ID. Transient write
// failures are retried with backoff.
func (s *LayoutStore) Save(ctx context.Context, doc *layout.Document) error {
	if doc == nil || doc.RunID == "" {
		return errors.New(errors.ErrCodeInvalidOptions, "document with run_id is required")
	}
	return cache.RetryWithBackoff(ctx, func() error {
		_, err := s.coll.ReplaceOne(ctx,
			bson.M{"run_id": doc.RunID},
			doc,
			options.Replace().SetUpsert(true))
		if err != nil {
			return cache.Retryable(errors.Wrap(errors.ErrCodeInternal, err, "failed to save layout"))
		}
		return nil
	})
}

// Get retrieves a layout document by run ID.
func (s *LayoutStore) Get(ctx context.Context, runID string) (*layout.Document, error) {
	var doc layout.Document
	err := s.coll.FindOne(ctx, bson.M{"run_id": runID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeNotFound, "layout not found: %s", runID)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "failed to fetch layout")
	}
	return &doc, nil
}

// List returns the most recent layout documents for a circuit, newest
// first. An empty circuit name lists across all circuits.
func (s *LayoutStore) List(ctx context.Context, circuitName string, limit int64) ([]*layout.Document, error) {
	if limit <= 0 {
		limit = 20
	}
	filter := bson.M{}
	if circuitName != "" {
		filter["circuit_name"] = circuitName
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "generated_at", Value: -1}}).
		SetLimit(limit)
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "failed to list layouts")
	}
	defer cur.Close(ctx)

	var docs []*layout.Document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "failed to decode layouts")
	}
	return docs, nil
}

// Delete removes a layout document by run ID.
func (s *LayoutStore) Delete(ctx context.Context, runID string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"run_id": runID})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to delete layout")
	}
	if res.DeletedCount == 0 {
		return errors.New(errors.ErrCodeNotFound, "layout not found: %s", runID)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *LayoutStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
