package regions

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/KonghaYao/text2location/app/models"
)

// MongoSource reads regions from a collection whose documents use the region column names.
type MongoSource struct {
	client     *mongo.Client
	Collection *mongo.Collection
}

// NewMongoSource connects to uri and binds database.collection.
func NewMongoSource(ctx context.Context, uri, database, collection string) (*MongoSource, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &MongoSource{
		client:     client,
		Collection: client.Database(database).Collection(collection),
	}, nil
}

func (s *MongoSource) Load(ctx context.Context) ([]models.Region, error) {
	cursor, err := s.Collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find regions: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.Region
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode regions: %w", err)
	}
	return out, nil
}

// Import creates the unique id index and inserts regions.
func (s *MongoSource) Import(ctx context.Context, regions []models.Region) error {
	_, err := s.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "pid", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create region indexes: %w", err)
	}
	if len(regions) == 0 {
		return nil
	}

	docs := make([]interface{}, len(regions))
	for i, r := range regions {
		docs[i] = r
	}
	if _, err := s.Collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert regions: %w", err)
	}
	return nil
}

func (s *MongoSource) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(context.Background())
}
