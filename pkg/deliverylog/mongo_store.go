package deliverylog

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultCollection is the collection that holds delivery log entries.
const DefaultCollection = "email_logs"

// MongoStore persists entries in a MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore creates a store on db. An empty collection name uses DefaultCollection.
func NewMongoStore(db *mongo.Database, collection string) *MongoStore {
	if collection == "" {
		collection = DefaultCollection
	}
	return &MongoStore{coll: db.Collection(collection)}
}

// EnsureIndexes creates the indexes used by reporting queries.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "to", Value: 1}}},
		{Keys: bson.D{{Key: "templateName", Value: 1}}},
		{Keys: bson.D{{Key: "messageId", Value: 1}}, Options: options.Index().SetSparse(true)},
	})
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (s *MongoStore) Create(ctx context.Context, entry *Entry) error {
	if _, err := s.coll.InsertOne(ctx, entry); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateEntry, entry.ID)
		}
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// Update sets each patched field. Metadata is flattened into dotted paths so
// existing keys that the patch does not mention are preserved.
func (s *MongoStore) Update(ctx context.Context, id string, patch Patch) error {
	set := patchToSet(patch)
	if len(set) == 0 {
		return nil
	}

	res, err := s.coll.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Entry, error) {
	var entry Entry
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return &entry, nil
}

func patchToSet(p Patch) bson.M {
	set := bson.M{}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.Error != nil {
		set["error"] = *p.Error
	}
	if p.MessageID != nil {
		set["messageId"] = *p.MessageID
	}
	if p.RetryCount != nil {
		set["retryCount"] = *p.RetryCount
	}
	if p.SentAt != nil {
		set["sentAt"] = *p.SentAt
	}
	if !p.UpdatedAt.IsZero() {
		set["updatedAt"] = p.UpdatedAt
	}
	flattenInto(set, "metadata", p.Metadata)
	return set
}

func flattenInto(set bson.M, prefix string, m map[string]any) {
	for k, v := range m {
		path := prefix + "." + k
		if nested, ok := v.(map[string]any); ok && len(nested) > 0 {
			flattenInto(set, path, nested)
			continue
		}
		set[path] = v
	}
}
