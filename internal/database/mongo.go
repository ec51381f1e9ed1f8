package database

import (
	"context"
	"fmt"

	"github.com/content-platform-api/internal/config"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDB holds the client and the collections the service reads and writes.
// It is constructed once at startup and shared by all requests.
type MongoDB struct {
	Client   *mongo.Client
	Users    *mongo.Collection
	Comments *mongo.Collection
	log      zerolog.Logger
}

// NewMongoDB connects to MongoDB and verifies the connection with a ping
func NewMongoDB(cfg *config.MongoConfig, log zerolog.Logger) (*MongoDB, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerAPIOptions(serverAPI).
		SetServerSelectionTimeout(cfg.ConnectTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(cfg.Database)
	m := &MongoDB{
		Client:   client,
		Users:    db.Collection("users"),
		Comments: db.Collection("comments"),
		log:      log.With().Str("component", "mongodb").Logger(),
	}

	m.log.Info().Str("database", cfg.Database).Msg("MongoDB connection established")
	return m, nil
}

// EnsureIndexes creates the indexes the comment queries rely on
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "article", Value: 1},
				{Key: "parentComment", Value: 1},
				{Key: "createdAt", Value: -1},
			},
		},
		{
			Keys: bson.D{{Key: "parentComment", Value: 1}, {Key: "createdAt", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "author", Value: 1}},
		},
	}

	names, err := m.Comments.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create comment indexes: %w", err)
	}

	m.log.Info().Strs("indexes", names).Msg("Comment indexes ensured")
	return nil
}

// HealthCheck pings the primary
func (m *MongoDB) HealthCheck(ctx context.Context) error {
	return m.Client.Ping(ctx, nil)
}

// Shutdown disconnects the client
func (m *MongoDB) Shutdown(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
