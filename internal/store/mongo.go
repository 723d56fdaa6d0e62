package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoTimeout bounds every round trip to the server.
const mongoTimeout = 5 * time.Second

type mongoDoc struct {
	Position int    `bson:"position"`
	Name     string `bson:"name"`
	Phone    string `bson:"phone"`
	Email    string `bson:"email"`
}

// Mongo is a [Backend] keeping one document per record in a collection.
//
// Save deletes every document and inserts the current records in order.
// Without a replica set this is not atomic: a failure between the two
// steps leaves the collection partially written until the next save.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

var _ Backend = (*Mongo)(nil)

// OpenMongo connects to uri and uses database.collection for storage.
func OpenMongo(ctx context.Context, uri, database, collection string) (*Mongo, error) {
	connectCtx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	m := &Mongo{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}
	if err := m.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return m, nil
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()
	_, err := m.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "position", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create mongo indexes: %w", err)
	}
	return nil
}

// Load returns all documents ordered by position.
func (m *Mongo) Load(ctx context.Context) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	cur, err := m.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "position", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	var docs []mongoDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	records := make([]Record, 0, len(docs))
	for _, d := range docs {
		records = append(records, Record{Name: d.Name, Phone: d.Phone, Email: d.Email})
	}
	return records, nil
}

// Save replaces all documents with records.
func (m *Mongo) Save(ctx context.Context, records []Record) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	if _, err := m.coll.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("failed to clear contacts: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(records))
	for i, r := range records {
		docs = append(docs, mongoDoc{Position: i, Name: r.Name, Phone: r.Phone, Email: r.Email})
	}
	if _, err := m.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert contacts: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()
	return m.client.Disconnect(ctx)
}
