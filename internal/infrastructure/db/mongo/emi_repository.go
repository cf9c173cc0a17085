package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/quickloan/lending-system/internal/core/domain"
)

const collectionEMIs = "emis"

var sortByDueDate = options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}})

type EMIRepository struct {
	col *mongo.Collection
}

func NewEMIRepository(db *mongo.Database) *EMIRepository {
	return &EMIRepository{col: db.Collection(collectionEMIs)}
}

// InsertBatch stores a full installment schedule in one InsertMany. Ids are
// assigned here so the caller's slice carries them after the insert. It
// participates in the caller's session when run inside a transaction.
func (r *EMIRepository) InsertBatch(ctx context.Context, emis []*domain.EMI) error {
	if len(emis) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(emis))
	for _, e := range emis {
		e.ID = primitive.NewObjectID().Hex()
		docs = append(docs, e)
	}

	_, err := r.col.InsertMany(ctx, docs)
	return err
}

func (r *EMIRepository) FindByID(ctx context.Context, id string) (*domain.EMI, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var e domain.EMI
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrEMINotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *EMIRepository) Update(ctx context.Context, emi *domain.EMI) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": emi.ID}, emi)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrEMINotFound
	}
	return nil
}

func (r *EMIRepository) ListAll(ctx context.Context) ([]*domain.EMI, error) {
	return r.find(ctx, bson.M{})
}

func (r *EMIRepository) ListByUser(ctx context.Context, userID string) ([]*domain.EMI, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

func (r *EMIRepository) ListByLoan(ctx context.Context, loanID string) ([]*domain.EMI, error) {
	return r.find(ctx, bson.M{"loan_id": loanID})
}

func (r *EMIRepository) CountByLoan(ctx context.Context, loanID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.col.CountDocuments(ctx, bson.M{"loan_id": loanID})
}

// FindPendingDueBefore returns pending installments whose due date is past
// the cutoff, oldest first.
func (r *EMIRepository) FindPendingDueBefore(ctx context.Context, cutoff time.Time) ([]*domain.EMI, error) {
	return r.find(ctx, bson.M{
		"status":   domain.EMIPending,
		"due_date": bson.M{"$lt": cutoff},
	})
}

// MarkOverdue flips the given installments to overdue in one UpdateMany.
func (r *EMIRepository) MarkOverdue(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"status": domain.EMIOverdue}},
	)
	return err
}

func (r *EMIRepository) find(ctx context.Context, query bson.M) ([]*domain.EMI, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, query, sortByDueDate)
	if err != nil {
		return nil, err
	}
	var emis []*domain.EMI
	if err := cur.All(ctx, &emis); err != nil {
		return nil, err
	}
	return emis, nil
}

// EnsureIndexes creates necessary indexes on the emis collection.
func (r *EMIRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "loan_id", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "due_date", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "due_date", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
