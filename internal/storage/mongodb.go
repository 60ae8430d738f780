// mongodb.go - MongoDB-backed record store

package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Mstr-Creta/Document-Extractor/internal/document"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore persists records in a MongoDB collection
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// recordDocument is the stored shape of a record. Fields stay a bson.D so the
// extraction order survives the round trip; absent values are stored as null.
type recordDocument struct {
	RecordID     string    `bson:"recordid"`
	SessionID    string    `bson:"sessionid"`
	FileName     string    `bson:"filename"`
	Timestamp    string    `bson:"timestamp"`
	DocumentType string    `bson:"documenttype"`
	Fields       bson.D    `bson:"fields"`
	CreatedAt    time.Time `bson:"createdat"`
}

// recordOrder sorts a session by insertion time. createdat has millisecond
// precision, so the driver-generated ObjectID breaks ties.
var recordOrder = bson.D{{Key: "createdat", Value: 1}, {Key: "_id", Value: 1}}

// NewMongoStore connects, pings and ensures the session index
func NewMongoStore(ctx context.Context, uri, dbName, collectionName string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	collection := client.Database(dbName).Collection(collectionName)
	_, err = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "sessionid", Value: 1}, {Key: "createdat", Value: 1}},
	})
	if err != nil {
		log.Printf("⚠️  Failed to create session index on %s: %v", collectionName, err)
	}

	log.Printf("✅ Connected to MongoDB (database: %s, collection: %s)", dbName, collectionName)
	return &MongoStore{client: client, collection: collection}, nil
}

func (s *MongoStore) Append(ctx context.Context, rec document.Record) error {
	if rec.SessionID == "" {
		return ErrSessionRequired
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := s.collection.InsertOne(ctx, toRecordDocument(rec)); err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, sessionID string) ([]document.Record, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	findOptions := options.Find().SetSort(recordOrder)
	cursor, err := s.collection.Find(ctx, bson.M{"sessionid": sessionID}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []recordDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}

	records := make([]document.Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, doc.toRecord())
	}
	return records, nil
}

func (s *MongoStore) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrSessionRequired
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := s.collection.DeleteMany(ctx, bson.M{"sessionid": sessionID})
	if err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	log.Printf("🗑️  Cleared %d record(s) for session %s", result.DeletedCount, sessionID)
	return nil
}

// Close disconnects the client
func (s *MongoStore) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		return err
	}
	log.Println("MongoDB connection closed")
	return nil
}

func toRecordDocument(rec document.Record) recordDocument {
	return recordDocument{
		RecordID:     rec.ID,
		SessionID:    rec.SessionID,
		FileName:     rec.FileName,
		Timestamp:    rec.Timestamp,
		DocumentType: rec.DocumentType.String(),
		Fields:       fieldsToBSON(rec.Fields),
		CreatedAt:    rec.CreatedAt,
	}
}

func (d recordDocument) toRecord() document.Record {
	return document.Record{
		ID:           d.RecordID,
		SessionID:    d.SessionID,
		FileName:     d.FileName,
		Timestamp:    d.Timestamp,
		CreatedAt:    d.CreatedAt,
		DocumentType: document.DocumentType(d.DocumentType),
		Fields:       fieldsFromBSON(d.Fields),
	}
}

func fieldsToBSON(fields document.FieldMap) bson.D {
	out := make(bson.D, 0, fields.Len())
	for _, key := range fields.Keys() {
		v, _ := fields.Get(key)
		if v.Found {
			out = append(out, bson.E{Key: key, Value: v.Value})
		} else {
			out = append(out, bson.E{Key: key, Value: nil})
		}
	}
	return out
}

func fieldsFromBSON(d bson.D) document.FieldMap {
	fields := document.NewFieldMap()
	for _, e := range d {
		switch v := e.Value.(type) {
		case string:
			fields.Set(e.Key, document.Found(v))
		case nil:
			fields.Set(e.Key, document.Absent())
		default:
			fields.Set(e.Key, document.Found(fmt.Sprint(v)))
		}
	}
	return fields
}
