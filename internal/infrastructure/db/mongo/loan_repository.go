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
	"github.com/quickloan/lending-system/internal/core/ports"
)

const collectionLoans = "loans"

type LoanRepository struct {
	col *mongo.Collection
}

func NewLoanRepository(db *mongo.Database) *LoanRepository {
	return &LoanRepository{col: db.Collection(collectionLoans)}
}

func (r *LoanRepository) Create(ctx context.Context, loan *domain.Loan) (*domain.Loan, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	loan.ID = primitive.NewObjectID().Hex()
	if _, err := r.col.InsertOne(ctx, loan); err != nil {
		return nil, err
	}
	return loan, nil
}

func (r *LoanRepository) FindByID(ctx context.Context, id string) (*domain.Loan, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var l domain.Loan
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&l); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return &l, nil
}

// Update replaces the stored document with the given state. It participates
// in the caller's session when run inside a transaction.
func (r *LoanRepository) Update(ctx context.Context, loan *domain.Loan) error {
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": loan.ID}, loan)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

// List returns loans matching the filter, sorted by application date
// (newest first unless OldestFirst is set).
func (r *LoanRepository) List(ctx context.Context, filter ports.LoanFilter) ([]*domain.Loan, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	if filter.UserID != "" {
		query["user_id"] = filter.UserID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	order := -1
	if filter.OldestFirst {
		order = 1
	}

	cur, err := r.col.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "application_date", Value: order}}))
	if err != nil {
		return nil, err
	}
	var loans []*domain.Loan
	if err := cur.All(ctx, &loans); err != nil {
		return nil, err
	}
	return loans, nil
}

func (r *LoanRepository) UpdateStatus(ctx context.Context, id string, status domain.LoanStatus) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

// DistinctUserIDs returns the ids of every user holding at least one loan.
func (r *LoanRepository) DistinctUserIDs(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	raw, err := r.col.Distinct(ctx, "user_id", bson.M{})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}
	return ids, nil
}

// CountByUser returns a user's total and pending loan counts.
func (r *LoanRepository) CountByUser(ctx context.Context, userID string) (int64, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	total, err := r.col.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, 0, err
	}
	pending, err := r.col.CountDocuments(ctx, bson.M{"user_id": userID, "status": domain.LoanPending})
	if err != nil {
		return 0, 0, err
	}
	return total, pending, nil
}

// SetVerificationForPending cascades a KYC decision onto the verification
// snapshot of the user's still-pending loans.
func (r *LoanRepository) SetVerificationForPending(ctx context.Context, userID string, status domain.VerificationStatus, notes string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"verification_status": status}
	if notes != "" {
		set["verification_notes"] = notes
	}

	res, err := r.col.UpdateMany(ctx,
		bson.M{"user_id": userID, "status": domain.LoanPending},
		bson.M{"$set": set},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// AggregateByStatus groups loans by status with count and summed amount.
func (r *LoanRepository) AggregateByStatus(ctx context.Context) (map[domain.LoanStatus]ports.LoanAggregate, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":          "$status",
			"count":        bson.M{"$sum": 1},
			"total_amount": bson.M{"$sum": "$amount"},
		}}},
	}
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Status      domain.LoanStatus `bson:"_id"`
		Count       int64             `bson:"count"`
		TotalAmount float64           `bson:"total_amount"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}

	out := make(map[domain.LoanStatus]ports.LoanAggregate, len(rows))
	for _, row := range rows {
		out[row.Status] = ports.LoanAggregate{Count: row.Count, TotalAmount: row.TotalAmount}
	}
	return out, nil
}

// EnsureIndexes creates necessary indexes on the loans collection.
func (r *LoanRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "application_date", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
