// Package mongodb adapts the MongoDB Go driver to the exporting engine's
// uniform Sender contract (§4.7): each formatted batch is stored as one
// document, with the raw payload kept as a binary field rather than
// parsed back into structured fields, since the wire format is owned by
// whichever formatter produced it.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Sender inserts formatted batches into a MongoDB collection.
type Sender struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// New connects to uri and targets database/collection.
func New(ctx context.Context, uri, database, collection string) (*Sender, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("sdk/mongodb: connect: %w", err)
	}
	return &Sender{client: client, coll: client.Database(database).Collection(collection)}, nil
}

type record struct {
	ReceivedAt time.Time `bson:"received_at"`
	Payload    []byte    `bson:"payload"`
}

// Send implements instance.Sender.
func (s *Sender) Send(ctx context.Context, payload []byte) (int, int, error) {
	_, err := s.coll.InsertOne(ctx, record{ReceivedAt: time.Now(), Payload: payload})
	if err != nil {
		return 0, 0, fmt.Errorf("sdk/mongodb: insert: %w", err)
	}
	return len(payload), 0, nil
}

// Close disconnects the client.
func (s *Sender) Close() error {
	return s.client.Disconnect(context.Background())
}
