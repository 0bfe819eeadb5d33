package database

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultMongoDBName   = "portfolio"
	adminUsersCollection = "admin_users"
)

// Mongo wraps the document store client and the collections the service uses
type Mongo struct {
	client     *mongodriver.Client
	db         *mongodriver.Database
	adminUsers *mongodriver.Collection
}

// NewMongo connects to MongoDB, verifies the primary is reachable and ensures indexes
func NewMongo(ctx context.Context, uri string) (*Mongo, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo: empty connection URI")
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := cli.Database(databaseFromURI(uri))
	m := &Mongo{
		client:     cli,
		db:         db,
		adminUsers: db.Collection(adminUsersCollection),
	}

	if err := m.ensureIndexes(ctx); err != nil {
		_ = m.Close(ctx)
		return nil, err
	}

	return m, nil
}

// AdminUsers returns the admin accounts collection
func (m *Mongo) AdminUsers() *mongodriver.Collection {
	return m.adminUsers
}

// Close disconnects the client
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// Health pings the primary
func (m *Mongo) Health(ctx context.Context) error {
	if m == nil || m.client == nil {
		return fmt.Errorf("mongo connection not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return m.client.Ping(ctx, readpref.Primary())
}

// ensureIndexes creates the unique username index and a partial index used by the sweeper
func (m *Mongo) ensureIndexes(ctx context.Context) error {
	models := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName("username_unique").SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "last_login_at", Value: 1}},
			Options: options.Index().
				SetName("active_session_last_login").
				SetPartialFilterExpression(bson.M{"active_session_id": bson.M{"$type": "string"}}),
		},
	}

	if _, err := m.adminUsers.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("mongo ensure indexes: %w", err)
	}
	return nil
}

// databaseFromURI extracts the database name from the URI path, falling back to the default
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return defaultMongoDBName
}
