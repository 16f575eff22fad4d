package historyrepo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yanqian/pdf-summarizer/internal/domain/history"
)

const defaultCollection = "histories"

// MongoRepository stores history documents in a MongoDB collection.
type MongoRepository struct {
	collection *mongo.Collection
}

// NewMongoRepository binds the repository to database/collection.
func NewMongoRepository(client *mongo.Client, database, collection string) *MongoRepository {
	if collection == "" {
		collection = defaultCollection
	}
	return &MongoRepository{collection: client.Database(database).Collection(collection)}
}

// EnsureIndexes creates the per-user listing index.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("user_recent"),
	})
	if err != nil {
		return fmt.Errorf("create history index: %w", err)
	}
	return nil
}

// Append inserts one document.
func (r *MongoRepository) Append(ctx context.Context, rec history.Record) (history.Record, error) {
	if _, err := r.collection.InsertOne(ctx, rec); err != nil {
		return history.Record{}, err
	}
	return rec, nil
}

// ListRecent returns the newest documents of a user first.
func (r *MongoRepository) ListRecent(ctx context.Context, userID int64, limit int) ([]history.Record, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []history.Record
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByUser removes every document of the user.
func (r *MongoRepository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

var _ history.Repository = (*MongoRepository)(nil)
