package submission

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

var (
	ErrNotFound          = errors.New("submission not found")
	ErrDuplicate         = errors.New("submission already exists")
	ErrRepositoryFailure = errors.New("submission repository unavailable")
)

// Repository persists submissions.
type Repository interface {
	CreateConsultation(ctx context.Context, c *Consultation) error
	GetConsultation(ctx context.Context, id string) (*Consultation, error)
	CreateQuote(ctx context.Context, q *Quote) error
	GetQuote(ctx context.Context, id string) (*Quote, error)
}

// MemoryRepository keeps submissions in process memory.
type MemoryRepository struct {
	mu            sync.RWMutex
	consultations map[string]Consultation
	quotes        map[string]Quote
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		consultations: make(map[string]Consultation),
		quotes:        make(map[string]Quote),
	}
}

func (r *MemoryRepository) CreateConsultation(_ context.Context, c *Consultation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.consultations[c.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, c.ID)
	}
	r.consultations[c.ID] = *c
	return nil
}

func (r *MemoryRepository) GetConsultation(_ context.Context, id string) (*Consultation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.consultations[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &c, nil
}

func (r *MemoryRepository) CreateQuote(_ context.Context, q *Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.quotes[q.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, q.ID)
	}
	r.quotes[q.ID] = *q
	return nil
}

func (r *MemoryRepository) GetQuote(_ context.Context, id string) (*Quote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.quotes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &q, nil
}

// MongoRepository stores consultations and quotes in separate collections.
type MongoRepository struct {
	consultations *mongo.Collection
	quotes        *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		consultations: db.Collection("consultations"),
		quotes:        db.Collection("quotes"),
	}
}

// EnsureIndexes creates the createdAt and email indexes on both collections.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "email", Value: 1}}},
	}
	for _, coll := range []*mongo.Collection{r.consultations, r.quotes} {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return errors.Join(ErrRepositoryFailure, err)
		}
	}
	return nil
}

func (r *MongoRepository) CreateConsultation(ctx context.Context, c *Consultation) error {
	return insert(ctx, r.consultations, c.ID, c)
}

func (r *MongoRepository) GetConsultation(ctx context.Context, id string) (*Consultation, error) {
	return findByID[Consultation](ctx, r.consultations, id)
}

func (r *MongoRepository) CreateQuote(ctx context.Context, q *Quote) error {
	return insert(ctx, r.quotes, q.ID, q)
}

func (r *MongoRepository) GetQuote(ctx context.Context, id string) (*Quote, error) {
	return findByID[Quote](ctx, r.quotes, id)
}

func insert(ctx context.Context, coll *mongo.Collection, id string, doc any) error {
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrDuplicate, id)
		}
		return errors.Join(ErrRepositoryFailure, err)
	}
	return nil
}

func findByID[T any](ctx context.Context, coll *mongo.Collection, id string) (*T, error) {
	var doc T
	err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, errors.Join(ErrRepositoryFailure, err)
	}
	return &doc, nil
}
